package models

import "time"

// MaxTotalIterations is the hard ceiling on pipeline iterations (§6, §8).
const MaxTotalIterations = 10

// MaxSelfCorrectionAttempts bounds self-correction attempts per failing
// phase class before the pipeline gives up (§4.6, §8).
const MaxSelfCorrectionAttempts = 5

// PipelineResult accumulates the outcome of one pipeline run (§3).
type PipelineResult struct {
	ProjectID      string            `json:"project_id"`
	RequestID      string            `json:"request_id"`
	Status         PipelineStatus    `json:"status"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	TotalDuration  *time.Duration    `json:"total_duration,omitempty"`
	Iterations     int               `json:"iterations"`
	Phases         []PhaseResult     `json:"phases"`
	OutputFiles    []ProjectFile     `json:"output_files,omitempty"`
	Verification   *VerificationResult `json:"verification,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	TotalCost      float64           `json:"total_cost"`
}

// Finalize marks the result terminal: sets CompletedAt/TotalDuration and the
// given status/message. Safe to call exactly once per PipelineResult (§3:
// "finalized once by worker").
func (r *PipelineResult) Finalize(status PipelineStatus, errMsg string) {
	now := time.Now()
	r.Status = status
	r.ErrorMessage = errMsg
	r.CompletedAt = &now
	d := now.Sub(r.StartedAt)
	r.TotalDuration = &d
}

// AppendPhase appends a phase outcome, preserving the ordering invariant of
// §8 ("|phases| equals the number of phases executed, in sequence").
func (r *PipelineResult) AppendPhase(p PhaseResult) {
	r.Phases = append(r.Phases, p)
}

// SandboxPhaseCount returns the number of phases that performed at least one
// sandbox execution, used by RateLimiter.Record's cost formula (§4.5).
// Execution, Build, and TestExecution phases each reach the sandbox on every
// occurrence and are counted once per occurrence, even when ExecuteWithRetry
// made several attempts; TestGeneration and Verification never do. StaticAnalysis only reaches the sandbox when its syntax pre-check
// passes (analyzer.Analyze returns before invoking the executor on a syntax
// error, §4.2), so a syntax-invalid occurrence must not be billed.
func (r *PipelineResult) SandboxPhaseCount() int {
	count := 0
	for _, p := range r.Phases {
		switch p.Phase {
		case PhaseBuild, PhaseTestExecution, PhaseExecution:
			count++
		case PhaseStaticAnalysis:
			if p.Analysis != nil && p.Analysis.SyntaxValid {
				count++
			}
		}
	}
	return count
}

// TotalTokensUsed sums TokensUsed across all recorded phases.
func (r *PipelineResult) TotalTokensUsed() int {
	total := 0
	for _, p := range r.Phases {
		total += p.TokensUsed
	}
	return total
}
