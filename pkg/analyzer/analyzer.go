package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

// Sandboxed is the narrow capability the StaticAnalyzer needs from a
// SandboxExecutor: running the lint pass for a (language, phase).
type Sandboxed interface {
	Execute(ctx context.Context, req *models.ExecutionRequest) (*models.ExecutionResult, error)
}

// Analyzer is the StaticAnalyzer (§4.2): a syntax pre-check followed by a
// sandboxed lint invocation, scored and gated.
type Analyzer struct {
	executor       Sandboxed
	timeoutSeconds int
}

// New builds an Analyzer. timeoutSeconds bounds the sandboxed lint pass; a
// value of 0 or less uses 30 seconds.
func New(executor Sandboxed, timeoutSeconds int) *Analyzer {
	return &Analyzer{executor: executor, timeoutSeconds: timeoutSeconds}
}

// Analyze runs the syntax pre-check, then (if clean) the sandboxed lint pass,
// and returns the scored, gated result (§4.2).
func (a *Analyzer) Analyze(ctx context.Context, projectID string, language models.Language, files []models.ProjectFile) (*models.StaticAnalysisResult, error) {
	result := &models.StaticAnalysisResult{SyntaxValid: true}

	for _, f := range files {
		result.SyntaxErrors = append(result.SyntaxErrors, checkBrackets(f.Path, f.Content)...)
	}

	if len(result.SyntaxErrors) > 0 {
		result.SyntaxValid = false
		result.OverallScore = 0
		result.PassesGate = false
		return result, nil
	}

	req := &models.ExecutionRequest{
		ProjectID:      projectID,
		Language:       language,
		Files:          files,
		Phase:          models.ExecutionPhaseStaticAnalysis,
		TimeoutSeconds: a.timeoutSeconds,
	}
	if req.TimeoutSeconds <= 0 {
		req.TimeoutSeconds = 30
	}

	execResult, err := a.executor.Execute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("static analysis sandbox execution: %w", err)
	}

	result.LintErrors = execResult.Errors
	result.LintOutput = execResult.CombinedOutput()
	result.OverallScore = scoreLint(execResult.Errors)
	result.PassesGate = !hasGateFailingLint(execResult.Errors)

	return result, nil
}

// scoreLint applies the scoring formula: 100, minus 10 per error/CompileError
// diagnostic, 2 per warning, 1 otherwise, clamped to [0,100].
func scoreLint(errs []models.ExecutionError) int {
	score := 100
	for _, e := range errs {
		switch {
		case isGateFailingSeverity(e):
			score -= 10
		case strings.Contains(strings.ToLower(e.Message), "warning"):
			score -= 2
		default:
			score -= 1
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// hasGateFailingLint reports whether any lint diagnostic is severe enough to
// fail passes_gate on its own (§4.2 step 5).
func hasGateFailingLint(errs []models.ExecutionError) bool {
	for _, e := range errs {
		if isGateFailingSeverity(e) {
			return true
		}
	}
	return false
}

func isGateFailingSeverity(e models.ExecutionError) bool {
	if e.Type == models.ErrorTypeCompile {
		return true
	}
	return strings.Contains(strings.ToLower(string(e.Type))+" "+strings.ToLower(e.Message), "error")
}
