// Package sandbox implements the SandboxExecutor (§4.1): it materializes a
// project's files into a workspace, launches an isolated container to run
// one phase of the language's build/test/run lifecycle, streams output,
// enforces a wall-clock deadline, parses diagnostics out of the combined
// output, and guarantees container/workspace cleanup.
package sandbox
