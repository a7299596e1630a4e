// Package testgen implements the TestGenerator: regex-driven extraction of
// function/method signatures per language family, emitting a single
// basic-plus-edge-case test file per generation.
package testgen
