package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectFileNormalize(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "simple relative path", path: "src/main.py"},
		{name: "empty path", path: "", wantErr: true},
		{name: "absolute path", path: "/etc/passwd", wantErr: true},
		{name: "parent escaping", path: "../secrets.env", wantErr: true},
		{name: "nested parent escaping", path: "a/b/../../../secrets.env", wantErr: true},
		{name: "dot segment is fine", path: "./a/b.py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ProjectFile{Path: tt.path, Content: "x"}
			err := f.Normalize()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPipelineRequestValidate(t *testing.T) {
	valid := &PipelineRequest{
		ProjectID:     "proj-1",
		UserID:        "user-1",
		Language:      LanguagePython,
		Prompt:        "write a function",
		MaxIterations: 10,
	}
	require.NoError(t, valid.Validate())

	missingUser := *valid
	missingUser.UserID = ""
	assert.Error(t, missingUser.Validate())

	badLanguage := *valid
	badLanguage.Language = "cobol"
	assert.Error(t, badLanguage.Validate())

	zeroIterations := *valid
	zeroIterations.MaxIterations = 0
	assert.Error(t, zeroIterations.Validate())
}

func TestExecutionErrorRetryability(t *testing.T) {
	tests := []struct {
		name      string
		result    ExecutionResult
		retryable bool
	}{
		{
			name:      "syntax error is non-retryable",
			result:    ExecutionResult{Errors: []ExecutionError{{Type: ErrorTypeSyntax}}},
			retryable: false,
		},
		{
			name:      "runtime error is retryable",
			result:    ExecutionResult{Errors: []ExecutionError{{Type: ErrorTypeRuntime}}},
			retryable: true,
		},
		{
			name:      "message mentions ModuleNotFoundError",
			result:    ExecutionResult{Errors: []ExecutionError{{Type: ErrorTypeRuntime, Message: "ModuleNotFoundError: no module named x"}}},
			retryable: false,
		},
		{
			name:      "no errors at all",
			result:    ExecutionResult{},
			retryable: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, !tt.retryable, tt.result.HasNonRetryableError())
		})
	}
}

func TestPruneRequests(t *testing.T) {
	now := time.Now()
	ts := []time.Time{
		now.Add(-48 * time.Hour),
		now.Add(-2 * time.Hour),
		now.Add(-1 * time.Minute),
	}
	pruned := PruneRequests(ts, now)
	require.Len(t, pruned, 2)
}

func TestPruneCosts(t *testing.T) {
	now := time.Now()
	entries := []CostEntry{
		{Timestamp: now.Add(-40 * 24 * time.Hour), Amount: 1},
		{Timestamp: now.Add(-10 * 24 * time.Hour), Amount: 2},
	}
	pruned := PruneCosts(entries, now)
	require.Len(t, pruned, 1)
	assert.Equal(t, 2.0, pruned[0].Amount)
}

func TestCategoryWeightsSumToOne(t *testing.T) {
	sum := CategoryWeight(CategoryQuality) + CategoryWeight(CategoryTests) +
		CategoryWeight(CategorySecurity) + CategoryWeight(CategoryBuild) +
		CategoryWeight(CategoryRuntime)
	assert.InDelta(t, 1.0, sum, 0.0001)
}

func TestPipelineResultFinalize(t *testing.T) {
	r := &PipelineResult{StartedAt: time.Now().Add(-time.Second)}
	r.Finalize(PipelineStatusSuccess, "")
	require.NotNil(t, r.CompletedAt)
	require.NotNil(t, r.TotalDuration)
	assert.True(t, *r.TotalDuration > 0)
	assert.Equal(t, PipelineStatusSuccess, r.Status)
}

func TestPipelineResultSandboxPhaseCount(t *testing.T) {
	r := &PipelineResult{Phases: []PhaseResult{
		{Phase: PhaseGenerate},
		{Phase: PhaseStaticAnalysis, Analysis: &StaticAnalysisResult{SyntaxValid: true}},
		{Phase: PhaseBuild},
		{Phase: PhaseTestGeneration},
		{Phase: PhaseTestExecution},
		{Phase: PhaseVerification},
	}}
	assert.Equal(t, 3, r.SandboxPhaseCount())
}

func TestPipelineResultSandboxPhaseCountSkipsSyntaxInvalidStaticAnalysis(t *testing.T) {
	r := &PipelineResult{Phases: []PhaseResult{
		{Phase: PhaseGenerate},
		{Phase: PhaseStaticAnalysis, Analysis: &StaticAnalysisResult{SyntaxValid: false}},
		{Phase: PhaseBuild},
	}}
	assert.Equal(t, 1, r.SandboxPhaseCount())
}

func TestVerificationResultHasCriticalIssue(t *testing.T) {
	v := &VerificationResult{Issues: []Issue{{Severity: SeverityWarning}}}
	assert.False(t, v.HasCriticalIssue())
	v.Issues = append(v.Issues, Issue{Severity: SeverityCritical})
	assert.True(t, v.HasCriticalIssue())
}
