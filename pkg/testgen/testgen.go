package testgen

import (
	"github.com/loopforge/engine/pkg/models"
)

// Generator is the TestGenerator (§4.3): extracts function/method signatures
// from a project's files and emits one synthetic test file covering a basic
// call and an edge-case call per signature.
type Generator struct{}

// New builds a Generator. It is stateless; extraction patterns are
// package-level compiled regexes.
func New() *Generator {
	return &Generator{}
}

// Generate extracts signatures across files and emits one test file. It
// returns (nil, nil) when no signatures were found, since there is nothing
// useful to test.
func (g *Generator) Generate(language models.Language, files []models.ProjectFile) (*models.ProjectFile, error) {
	var sigs []Signature
	for _, f := range files {
		sigs = append(sigs, extractSignatures(language, f)...)
	}
	if len(sigs) == 0 {
		return nil, nil
	}
	return &models.ProjectFile{
		Path:    testFilePath(language),
		Content: emitTestFile(language, sigs),
	}, nil
}
