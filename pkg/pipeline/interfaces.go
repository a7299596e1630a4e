package pipeline

import (
	"context"

	"github.com/loopforge/engine/pkg/generate"
	"github.com/loopforge/engine/pkg/models"
	"github.com/loopforge/engine/pkg/ratelimit"
	"github.com/loopforge/engine/pkg/verify"
)

// Sandboxed is the capability the pipeline needs from a SandboxExecutor.
type Sandboxed interface {
	Execute(ctx context.Context, req *models.ExecutionRequest) (*models.ExecutionResult, error)
	ExecuteWithRetry(ctx context.Context, req *models.ExecutionRequest, maxRetries int) (*models.ExecutionResult, error)
}

// Analyzed is the capability the pipeline needs from a StaticAnalyzer.
type Analyzed interface {
	Analyze(ctx context.Context, projectID string, language models.Language, files []models.ProjectFile) (*models.StaticAnalysisResult, error)
}

// TestsGenerated is the capability the pipeline needs from a TestGenerator.
type TestsGenerated interface {
	Generate(language models.Language, files []models.ProjectFile) (*models.ProjectFile, error)
}

// Verified is the capability the pipeline needs from a VerificationGate.
type Verified interface {
	Verify(projectID string, artifacts verify.Artifacts) *models.VerificationResult
}

// RateLimited is the capability the pipeline needs from a RateLimiter.
type RateLimited interface {
	Check(ctx context.Context, projectID, userID string) (*ratelimit.Outcome, error)
	Record(ctx context.Context, projectID, userID string, result *models.PipelineResult) (float64, error)
}

// Generated is the capability the pipeline needs from a Generator.
type Generated interface {
	Generate(ctx context.Context, req *generate.Request) (*generate.Result, error)
}
