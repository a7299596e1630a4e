package sandbox

import "errors"

var (
	// ErrUnsupportedLanguage is surfaced as the entrypoint error for a
	// language with no entrypoint script table entry (§6). A language with a
	// table entry but no configured image runs on a minimal base image
	// instead.
	ErrUnsupportedLanguage = errors.New("Unsupported language")

	// ErrContainerLaunch wraps a failure to start the container itself
	// (distinct from the program inside it failing).
	ErrContainerLaunch = errors.New("container launch failed")

	// ErrWorkspace wraps a failure materializing or removing a workspace
	// directory.
	ErrWorkspace = errors.New("workspace error")
)
