// Package analyzer implements the StaticAnalyzer: a fast syntax pre-check
// followed by a sandboxed lint pass, producing a scored gate decision before
// a build is ever attempted.
package analyzer
