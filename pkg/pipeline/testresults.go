package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

// testSummaryJSON is the shape a sandboxed test runner is expected to print
// as its last non-blank output line (§4.4 check 2).
type testSummaryJSON struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// parseTestResultsJSON scans combined stdout/stderr from the tail for the
// last line that decodes as a testSummaryJSON object. (The sandbox
// package's diagnostic parser, by contrast, decodes a leading JSON array.)
func parseTestResultsJSON(combined string) (*models.TestResults, bool) {
	lines := strings.Split(combined, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
			continue
		}
		var summary testSummaryJSON
		if err := json.Unmarshal([]byte(trimmed), &summary); err != nil {
			continue
		}
		return &models.TestResults{
			Total:   summary.Total,
			Passed:  summary.Passed,
			Failed:  summary.Failed,
			Skipped: summary.Skipped,
		}, true
	}
	return nil, false
}
