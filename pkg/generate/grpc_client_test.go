package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/loopforge/engine/pkg/models"
)

func TestToPayloadShapesRequest(t *testing.T) {
	req := &Request{
		ProjectID:     "proj-1",
		Language:      models.LanguagePython,
		Prompt:        "write a fibonacci function",
		ExistingFiles: []models.ProjectFile{{Path: "main.py", Content: "pass\n"}},
		Context:       map[string]string{"framework": "pytest"},
	}

	payload := toPayload(req)

	assert.Equal(t, "proj-1", payload["project_id"])
	assert.Equal(t, "python", payload["language"])
	files, ok := payload["existing_files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 1)
}

func TestFromPayloadRoundTrips(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"success":     true,
		"explanation": "added a fibonacci helper",
		"tokens_used": 128.0,
		"files": []any{
			map[string]any{"path": "main.py", "content": "def fib(n): ...\n"},
		},
	})
	require.NoError(t, err)

	result := fromPayload(s)

	assert.True(t, result.Success)
	assert.Equal(t, "added a fibonacci helper", result.Explanation)
	assert.Equal(t, 128, result.TokensUsed)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "main.py", result.Files[0].Path)
}
