// Package models defines the data model shared across the pipeline core:
// requests, jobs, phase/pipeline results, sandbox execution types, usage
// accounting, and verification results (see spec §3).
package models
