package config

import (
	"testing"

	"github.com/loopforge/engine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidates(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestDefaultsStats(t *testing.T) {
	cfg := Defaults()
	stats := cfg.Stats()
	assert.Equal(t, len(cfg.Sandbox.Images), stats.Languages)
	assert.Equal(t, 100, stats.QueueCapacity)
	assert.Equal(t, 3, stats.QueueWorkerCount)
	assert.Equal(t, 10, stats.MaxTotalIterations)
	assert.Equal(t, 5, stats.MaxSelfCorrectionAttempts)
}

func TestValidateSandbox(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SandboxConfig)
		wantErr bool
	}{
		{name: "valid defaults"},
		{name: "empty workspace path", mutate: func(s *SandboxConfig) { s.WorkspacePath = "" }, wantErr: true},
		{name: "zero memory limit", mutate: func(s *SandboxConfig) { s.MemoryLimitMB = 0 }, wantErr: true},
		{name: "no images", mutate: func(s *SandboxConfig) { s.Images = nil }, wantErr: true},
		{
			name: "unknown language key",
			mutate: func(s *SandboxConfig) {
				s.Images = map[models.Language]string{"cobol": "cobol:latest"}
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			if tt.mutate != nil {
				tt.mutate(cfg.Sandbox)
			}
			err := NewValidator(cfg).ValidateAll()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRateLimitHourLessThanMinute(t *testing.T) {
	cfg := Defaults()
	cfg.RateLimit.MaxRequestsPerHour = cfg.RateLimit.MaxRequestsPerMinute - 1
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidateRateLimitMonthlyBelowDaily(t *testing.T) {
	cfg := Defaults()
	cfg.RateLimit.MaxMonthlyCostPerUser = 1
	cfg.RateLimit.MaxDailyCostPerUser = 10
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidatePipelineExceedsHardBound(t *testing.T) {
	cfg := Defaults()
	cfg.Pipeline.MaxTotalIterations = 999
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidateQueueWorkerExceedsCapacity(t *testing.T) {
	cfg := Defaults()
	cfg.Queue.WorkerCount = cfg.Queue.Capacity + 1
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestEstimateCost(t *testing.T) {
	r := DefaultRateLimitConfig()
	cost := r.EstimateCost(1000, 2, 5.0)
	want := 1000*r.CostPerToken + r.CostPerIteration + 2*r.CostPerSandboxExecution + 5.0*r.CostPerExecutionSecond
	assert.InDelta(t, want, cost, 0.0000001)
}
