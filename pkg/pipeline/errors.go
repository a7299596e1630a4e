package pipeline

import (
	"fmt"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

// correctionError is one accumulated failure fed back into the next
// generation prompt (§4.6 "self-correction").
type correctionError struct {
	Type       models.ErrorType
	File       string
	Line       int
	Message    string
	StackTrace string
}

const stackTraceMaxLen = 500

func (e correctionError) render() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	s := fmt.Sprintf("[%s] %s: %s", e.Type, loc, e.Message)
	if e.StackTrace != "" {
		trace := e.StackTrace
		if len(trace) > stackTraceMaxLen {
			trace = trace[:stackTraceMaxLen] + "..."
		}
		s += "\n" + trace
	}
	return s
}

func errorsFromExecutionErrors(errs []models.ExecutionError) []correctionError {
	out := make([]correctionError, 0, len(errs))
	for _, e := range errs {
		out = append(out, correctionError{Type: e.Type, File: e.File, Line: e.Line, Message: e.Message, StackTrace: e.StackTrace})
	}
	return out
}

func errorsFromIssues(issues []models.Issue) []correctionError {
	out := make([]correctionError, 0, len(issues))
	for _, i := range issues {
		out = append(out, correctionError{Type: models.ErrorType(i.Category), File: i.File, Line: i.Line, Message: i.Message})
	}
	return out
}

// maxPromptErrors bounds how many accumulated errors are fed back into the
// next generation prompt (§4.6).
const maxPromptErrors = 10

// buildPrompt concatenates the original prompt with a bounded tail of
// accumulated errors, each rendered with a truncated stack trace.
func buildPrompt(original string, errs []correctionError) string {
	if len(errs) == 0 {
		return original
	}
	tail := errs
	if len(tail) > maxPromptErrors {
		tail = tail[len(tail)-maxPromptErrors:]
	}

	var b strings.Builder
	b.WriteString(original)
	b.WriteString("\n\nPrevious attempt errors:\n")
	for _, e := range tail {
		b.WriteString(e.render())
		b.WriteString("\n")
	}
	return b.String()
}
