package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loopforge/engine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeAndRemoveWorkspace(t *testing.T) {
	root := t.TempDir()
	files := []models.ProjectFile{
		{Path: "src/main.py", Content: "print('hi')\n"},
		{Path: "README.md", Content: "hello\n"},
	}

	workdir, err := materializeWorkspace(root, "abc-123", files)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(workdir, "src", "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(data))

	require.NoError(t, removeWorkspace(workdir))
	_, err = os.Stat(workdir)
	assert.True(t, os.IsNotExist(err))

	// Idempotent: removing again is not an error.
	require.NoError(t, removeWorkspace(workdir))
}

func TestMaterializeWorkspaceRejectsEscapingPath(t *testing.T) {
	root := t.TempDir()
	files := []models.ProjectFile{{Path: "../escape.txt", Content: "x"}}
	_, err := materializeWorkspace(root, "id-1", files)
	require.Error(t, err)
}

func TestGenerateEntrypointKnownLanguages(t *testing.T) {
	tests := []struct {
		lang     models.Language
		phase    models.ExecutionPhase
		contains string
	}{
		{models.LanguagePython, models.ExecutionPhaseTest, "pytest"},
		{models.LanguageJavaScript, models.ExecutionPhaseRun, "node index.js"},
		{models.LanguageGo, models.ExecutionPhaseBuild, "go build"},
		{models.LanguageCSharp, models.ExecutionPhaseTest, "dotnet test"},
		{models.LanguageJava, models.ExecutionPhaseBuild, "javac"},
	}
	for _, tt := range tests {
		script := GenerateEntrypoint(tt.lang, tt.phase, "")
		assert.Contains(t, script, "set -e")
		assert.Contains(t, script, tt.contains)
	}
}

func TestGenerateEntrypointUnsupportedLanguage(t *testing.T) {
	script := GenerateEntrypoint(models.Language("cobol"), models.ExecutionPhaseRun, "")
	assert.Contains(t, script, "Unsupported language")
}

func TestGenerateEntrypointUsesRequestedEntry(t *testing.T) {
	script := GenerateEntrypoint(models.LanguagePython, models.ExecutionPhaseRun, "app.py")
	assert.Contains(t, script, "python app.py")
}

func TestParseDiagnosticsJSONArray(t *testing.T) {
	out := `[{"message":"unused variable","path":"main.py","line":3,"column":1}]`
	errs := parseDiagnostics(out, "")
	require.Len(t, errs, 1)
	assert.Equal(t, models.ErrorTypeLint, errs[0].Type)
	assert.Equal(t, "main.py", errs[0].File)
	assert.Equal(t, 3, errs[0].Line)
}

func TestParseDiagnosticsPythonTraceback(t *testing.T) {
	out := "Traceback (most recent call last):\n  File \"main.py\", line 10\nNameError: x undefined"
	errs := parseDiagnostics(out, "")
	require.NotEmpty(t, errs)
	assert.Equal(t, models.ErrorTypeSyntax, errs[0].Type)
	assert.Equal(t, "main.py", errs[0].File)
	assert.Equal(t, 10, errs[0].Line)
}

func TestParseDiagnosticsGo(t *testing.T) {
	out := "main.go:12:5: undefined: foo"
	errs := parseDiagnostics(out, "")
	require.Len(t, errs, 1)
	assert.Equal(t, models.ErrorTypeCompile, errs[0].Type)
	assert.Equal(t, 12, errs[0].Line)
	assert.Equal(t, 5, errs[0].Column)
}

func TestParseDiagnosticsFallsBackToRuntime(t *testing.T) {
	errs := parseDiagnostics("", "segmentation fault\n")
	require.Len(t, errs, 1)
	assert.Equal(t, models.ErrorTypeRuntime, errs[0].Type)
	assert.Equal(t, "segmentation fault", errs[0].Message)
}

func TestExtractStackTrace(t *testing.T) {
	combined := "some output\nTraceback (most recent call last):\n  File \"x.py\", line 1\nValueError: bad"
	trace := extractStackTrace(combined)
	assert.Contains(t, trace, "Traceback")
	assert.NotContains(t, trace, "some output")
}

func TestExecuteWithRetryStopsAfterOneAttemptOnNonRetryable(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, _ *models.ExecutionRequest) (*models.ExecutionResult, error) {
		calls++
		return &models.ExecutionResult{
			Errors: []models.ExecutionError{{Type: models.ErrorTypeSyntax}},
		}, nil
	}

	result, err := executeWithRetry(context.Background(), &models.ExecutionRequest{}, 5, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, result.RetryCount)
}

func TestExecuteWithRetryRetriesRetryableFailures(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, _ *models.ExecutionRequest) (*models.ExecutionResult, error) {
		calls++
		if calls < 3 {
			return &models.ExecutionResult{Success: false}, nil
		}
		return &models.ExecutionResult{Success: true}, nil
	}

	start := time.Now()
	result, err := executeWithRetry(context.Background(), &models.ExecutionRequest{}, 5, fn)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, result.RetryCount)
	// backoff(1) + backoff(2) = 1s + 2s
	assert.GreaterOrEqual(t, elapsed, 3*time.Second)
}

func TestBackoffDuration(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffDuration(1))
	assert.Equal(t, 2*time.Second, backoffDuration(2))
	assert.Equal(t, 4*time.Second, backoffDuration(3))
}
