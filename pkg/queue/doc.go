// Package queue implements the JobQueue: a bounded in-memory queue of
// pipeline requests drained by a fixed worker pool, with status lookup,
// cancellation, result retention, and best-effort webhook delivery on
// completion (§4.7).
package queue
