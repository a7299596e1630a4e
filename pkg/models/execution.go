package models

import (
	"fmt"
	"strings"
)

// ExecutionRequest is the transient input to a single SandboxExecutor
// invocation (§3).
type ExecutionRequest struct {
	ProjectID     string         `json:"project_id" validate:"required"`
	Language      Language       `json:"language" validate:"required"`
	Files         []ProjectFile  `json:"files"`
	EntryPoint    string         `json:"entry_point,omitempty"`
	Phase         ExecutionPhase `json:"phase" validate:"required"`
	TimeoutSeconds int           `json:"timeout_seconds" validate:"min=1"`
	AllowNetwork  bool           `json:"allow_network"`
	Env           map[string]string `json:"env,omitempty"`
}

// Validate enforces the invariants of the ExecutionRequest row of §3's
// data model table.
func (r *ExecutionRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	if !r.Phase.IsValid() {
		return fmt.Errorf("invalid execution phase %q", r.Phase)
	}
	return nil
}

// ExecutionError is an immutable structured diagnostic (§3, §7).
type ExecutionError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	File       string    `json:"file,omitempty"`
	Line       int       `json:"line,omitempty"`
	Column     int       `json:"column,omitempty"`
	Code       string    `json:"code,omitempty"`
	StackTrace string    `json:"stack_trace,omitempty"`
}

// ExecutionResult is returned synchronously from one sandbox invocation (§3).
type ExecutionResult struct {
	Success          bool             `json:"success"`
	ExitCode         int              `json:"exit_code"`
	Stdout           string           `json:"stdout"`
	Stderr           string           `json:"stderr"`
	ContainerID      string           `json:"container_id"`
	ExecutionTimeMs  int64            `json:"execution_time_ms"`
	Language         Language         `json:"language"`
	Phase            ExecutionPhase   `json:"phase"`
	Errors           []ExecutionError `json:"errors,omitempty"`
	StackTrace       string           `json:"stack_trace,omitempty"`
	RetryCount       int              `json:"retry_count"`
}

// CombinedOutput concatenates stdout and stderr in capture order, for
// diagnostic parsing convenience.
func (r *ExecutionResult) CombinedOutput() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// HasNonRetryableError reports whether any error's type or message matches
// a non-retryable class (§4.1 "Retryability").
func (r *ExecutionResult) HasNonRetryableError() bool {
	for _, e := range r.Errors {
		if !e.Type.IsRetryable() {
			return true
		}
		for t := range nonRetryableErrorTypes {
			if strings.Contains(strings.ToLower(e.Message), strings.ToLower(string(t))) {
				return true
			}
		}
	}
	return false
}
