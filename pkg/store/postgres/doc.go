// Package postgres provides the optional durable variant of the engine's
// in-memory rate-limit ledger (§9), moving the usage counters (request
// timestamps, cost entries, active executions) from process maps to
// Postgres tables without altering the RateLimiter contract or the pipeline
// state machine. Jobs and results are not stored here; they stay in the
// in-memory queue.
package postgres
