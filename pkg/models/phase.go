package models

import "time"

// PhaseResult captures the outcome of one phase execution within a pipeline
// iteration (§3). One is appended to PipelineResult.Phases per phase run.
type PhaseResult struct {
	Phase       PipelinePhase          `json:"phase"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration"`
	Output      string                 `json:"output,omitempty"`
	ExitCode    *int                   `json:"exit_code,omitempty"`
	Errors      []ExecutionError       `json:"errors,omitempty"`
	OutputFiles []ProjectFile          `json:"output_files,omitempty"`
	TokensUsed  int                    `json:"tokens_used"`
	Analysis    *StaticAnalysisResult  `json:"analysis,omitempty"`
	TestResults *TestResults           `json:"test_results,omitempty"`
}

// StaticAnalysisResult is produced by the StaticAnalyzer (§4.2).
type StaticAnalysisResult struct {
	SyntaxValid   bool             `json:"syntax_valid"`
	SyntaxErrors  []ExecutionError `json:"syntax_errors,omitempty"`
	LintErrors    []ExecutionError `json:"lint_errors,omitempty"`
	LintOutput    string           `json:"lint_output,omitempty"`
	OverallScore  int              `json:"overall_score"`
	PassesGate    bool             `json:"passes_gate"`
}

// TestResults aggregates outcomes from the test-execution phase (§4.4 check 2).
type TestResults struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// PassRate returns 100*passed/total, or 0 when there were no tests.
func (t *TestResults) PassRate() float64 {
	if t == nil || t.Total == 0 {
		return 0
	}
	return 100 * float64(t.Passed) / float64(t.Total)
}
