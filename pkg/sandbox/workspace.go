package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/loopforge/engine/pkg/models"
)

// newContainerID mints a globally unique container/workspace id (§5
// "Shared-resource policy": the executor must ensure container names are
// globally unique).
func newContainerID() string {
	return uuid.NewString()
}

// materializeWorkspace creates workspaceRoot/<id> and writes every file into
// it, creating intermediate directories. Paths are normalized (and thereby
// rejected if absolute or parent-escaping) before being joined under the
// workspace, so a malicious path cannot escape it even if Normalize was
// skipped upstream.
func materializeWorkspace(workspaceRoot, id string, files []models.ProjectFile) (string, error) {
	workdir := filepath.Join(workspaceRoot, id)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating workdir: %v", ErrWorkspace, err)
	}

	for _, f := range files {
		nf := f
		if err := nf.Normalize(); err != nil {
			return "", fmt.Errorf("%w: file %q: %v", ErrWorkspace, f.Path, err)
		}
		dest := filepath.Join(workdir, filepath.FromSlash(nf.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("%w: creating parent dir for %q: %v", ErrWorkspace, nf.Path, err)
		}
		if err := os.WriteFile(dest, []byte(nf.Content), 0o644); err != nil {
			return "", fmt.Errorf("%w: writing %q: %v", ErrWorkspace, nf.Path, err)
		}
	}

	return workdir, nil
}

// removeWorkspace deletes workdir recursively. Idempotent: a missing
// directory is not an error (§4.1 CleanupContainer, §8 "Cleanup(id) called
// twice yields the same state as once").
func removeWorkspace(workdir string) error {
	if workdir == "" {
		return nil
	}
	if err := os.RemoveAll(workdir); err != nil {
		return fmt.Errorf("%w: removing workdir %q: %v", ErrWorkspace, workdir, err)
	}
	return nil
}
