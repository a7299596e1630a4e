package generate

import (
	"context"

	"github.com/loopforge/engine/pkg/models"
)

// Request is one call to the code-generation collaborator (§6).
type Request struct {
	ProjectID     string
	Language      models.Language
	Prompt        string
	ExistingFiles []models.ProjectFile
	Context       map[string]string
}

// Result is the collaborator's response (§6). Files is authoritative — the
// AgentPipeline never parses code fences out of Explanation (Open Question
// #1: option (b)).
type Result struct {
	Success     bool
	Files       []models.ProjectFile
	Explanation string
	Error       string
	TokensUsed  int
}

// Generator is the external code-synthesis collaborator the AgentPipeline
// drives once per iteration that needs new or corrected code.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}
