// Package pipeline implements the AgentPipeline: the bounded iteration loop
// that drives generate → static-analyze → build → test-generate →
// test-execute → (optional run) → verify, self-correcting on failure until
// a result passes verification, the iteration ceiling is hit, or the
// request is denied or cancelled.
package pipeline
