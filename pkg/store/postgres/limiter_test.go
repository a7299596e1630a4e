package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
)

// newTestClient spins up a real Postgres container and returns a migrated
// Client, grounded on test/database/client.go's testcontainers-backed
// fixture.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("engine_test"),
		tcpostgres.WithUsername("engine"),
		tcpostgres.WithPassword("engine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{
		Host:     host,
		Port:     port.Int(),
		User:     "engine",
		Password: "engine",
		Database: "engine_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func testRateLimitConfig() *config.RateLimitConfig {
	cfg := config.DefaultRateLimitConfig()
	cfg.MaxRequestsPerMinute = 2
	cfg.MaxRequestsPerHour = 100
	cfg.MaxConcurrentExecutionsPerProject = 1
	cfg.MaxDailyCostPerUser = 1000
	cfg.MaxDailyCostPerProject = 1000
	return cfg
}

func TestLimiterCheckDeniesOverMinuteCap(t *testing.T) {
	client := newTestClient(t)
	limiter := NewLimiter(client, testRateLimitConfig())
	ctx := context.Background()

	out, err := limiter.Check(ctx, "proj-1", "user-1")
	require.NoError(t, err)
	require.True(t, out.Allowed)
	_, err = limiter.Record(ctx, "proj-1", "user-1", &models.PipelineResult{}) // release concurrency slot
	require.NoError(t, err)

	out, err = limiter.Check(ctx, "proj-1", "user-1")
	require.NoError(t, err)
	require.True(t, out.Allowed)
	_, err = limiter.Record(ctx, "proj-1", "user-1", &models.PipelineResult{})
	require.NoError(t, err)

	out, err = limiter.Check(ctx, "proj-1", "user-1")
	require.NoError(t, err)
	require.False(t, out.Allowed)
	require.Equal(t, 60, out.RetryAfterSeconds)
}

func TestLimiterCheckDeniesOverConcurrencyCap(t *testing.T) {
	client := newTestClient(t)
	limiter := NewLimiter(client, testRateLimitConfig())
	ctx := context.Background()

	out, err := limiter.Check(ctx, "proj-2", "user-2")
	require.NoError(t, err)
	require.True(t, out.Allowed)

	out, err = limiter.Check(ctx, "proj-2", "user-3")
	require.NoError(t, err)
	require.False(t, out.Allowed)
}

func TestLimiterRecordReleasesActiveExecutionSlot(t *testing.T) {
	client := newTestClient(t)
	cfg := testRateLimitConfig()
	limiter := NewLimiter(client, cfg)
	ctx := context.Background()

	out, err := limiter.Check(ctx, "proj-3", "user-4")
	require.NoError(t, err)
	require.True(t, out.Allowed)

	duration := 2 * time.Second
	result := &models.PipelineResult{
		Iterations:    1,
		TotalDuration: &duration,
		Phases: []models.PhaseResult{
			{Phase: models.PhaseGenerate, TokensUsed: 100},
		},
	}

	cost, err := limiter.Record(ctx, "proj-3", "user-4", result)
	require.NoError(t, err)
	require.Greater(t, cost, 0.0)

	out, err = limiter.Check(ctx, "proj-3", "user-5")
	require.NoError(t, err)
	require.True(t, out.Allowed, "active execution slot should have been released by Record")
}

func TestLimiterResetClearsProjectState(t *testing.T) {
	client := newTestClient(t)
	limiter := NewLimiter(client, testRateLimitConfig())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "proj-4", "user-6")
	require.NoError(t, err)

	require.NoError(t, limiter.Reset(ctx, "proj-4"))

	stats, err := limiter.Stats(ctx, "proj-4", "user-6")
	require.NoError(t, err)
	require.Zero(t, stats.DailyCost)
}
