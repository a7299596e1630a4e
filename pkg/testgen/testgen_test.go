package testgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopforge/engine/pkg/models"
)

func TestExtractSignaturesPython(t *testing.T) {
	file := models.ProjectFile{Path: "main.py", Content: "def add(a: int, b: int = 0) -> int:\n    return a + b\n\ndef _helper():\n    pass\n\nasync def fetch(url: str):\n    pass\n"}

	sigs := extractSignatures(models.LanguagePython, file)

	require.Len(t, sigs, 2)
	assert.Equal(t, "add", sigs[0].Name)
	assert.Equal(t, "int", sigs[0].ReturnType)
	require.Len(t, sigs[0].Parameters, 2)
	assert.Equal(t, "a", sigs[0].Parameters[0].Name)
	assert.Equal(t, "int", sigs[0].Parameters[0].Type)

	assert.Equal(t, "fetch", sigs[1].Name)
	assert.True(t, sigs[1].IsAsync)
}

func TestExtractSignaturesGo(t *testing.T) {
	file := models.ProjectFile{Path: "main.go", Content: "func Add(a int, b int) int {\n\treturn a + b\n}\n\nfunc main() {}\n"}

	sigs := extractSignatures(models.LanguageGo, file)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Add", sigs[0].Name)
	require.Len(t, sigs[0].Parameters, 2)
	assert.Equal(t, "a", sigs[0].Parameters[0].Name)
	assert.Equal(t, "int", sigs[0].Parameters[0].Type)
}

func TestExtractSignaturesSkipsPrivateAndTest(t *testing.T) {
	file := models.ProjectFile{Path: "x.js", Content: "function _internal() {}\nfunction testHelper() {}\nfunction run(x) {}\n"}

	sigs := extractSignatures(models.LanguageJavaScript, file)

	require.Len(t, sigs, 1)
	assert.Equal(t, "run", sigs[0].Name)
}

func TestGenerateEmitsTestFile(t *testing.T) {
	g := New()
	files := []models.ProjectFile{{Path: "main.py", Content: "def add(a: int, b: int) -> int:\n    return a + b\n"}}

	out, err := g.Generate(models.LanguagePython, files)

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "test_generated.py", out.Path)
	assert.Contains(t, out.Content, "def test_add_basic():")
	assert.Contains(t, out.Content, "def test_add_edge():")
}

func TestGenerateNoSignaturesReturnsNil(t *testing.T) {
	g := New()
	files := []models.ProjectFile{{Path: "data.json", Content: `{"a": 1}`}}

	out, err := g.Generate(models.Language("json"), files)

	require.NoError(t, err)
	assert.Nil(t, out)
}
