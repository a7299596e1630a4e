package sandbox

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

// lintDiagnostic is one element of the JSON-array diagnostic format some
// linters emit (§4.1 "Diagnostic parsing" (a)).
type lintDiagnostic struct {
	Message string `json:"message"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// diagnosticPattern is one compiled line-matcher in the per-language table,
// mirroring the masking package's compiled-pattern-table shape.
type diagnosticPattern struct {
	name    string
	regex   *regexp.Regexp
	msgFrom func([]string) string
}

var diagnosticPatterns = []diagnosticPattern{
	{
		name:  "python_traceback",
		regex: regexp.MustCompile(`File "([^"]+)", line (\d+)`),
	},
	{
		name:  "js_ts_trace",
		regex: regexp.MustCompile(`([^\s:]+\.(?:js|ts)):(\d+):(\d+)`),
	},
	{
		name:    "csharp_diagnostic",
		regex:   regexp.MustCompile(`([^\s:]+\.cs)\((\d+),(\d+)\): (error|warning) ([A-Za-z0-9]+): (.+)`),
		msgFrom: func(m []string) string { return m[6] },
	},
	{
		name:    "go_diagnostic",
		regex:   regexp.MustCompile(`([^\s:]+\.go):(\d+):(\d+): (.+)`),
		msgFrom: func(m []string) string { return m[4] },
	},
}

var stackTraceMarkers = []string{"Traceback", "at ", "   at "}

// parseDiagnostics implements §4.1's "Diagnostic parsing": JSON-array lint
// output first, otherwise a line-by-line scan against the per-language
// patterns, falling back to a single Runtime error carrying the trimmed
// stderr when nothing matched.
func parseDiagnostics(stdout, stderr string) []models.ExecutionError {
	combined := stdout
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += stderr
	}
	trimmed := strings.TrimSpace(combined)

	if strings.HasPrefix(trimmed, "[") {
		if errs, ok := parseLintJSON(trimmed); ok {
			return errs
		}
	}

	var errs []models.ExecutionError
	for _, line := range strings.Split(combined, "\n") {
		if err, ok := matchDiagnosticLine(line); ok {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 && strings.TrimSpace(stderr) != "" {
		errs = append(errs, models.ExecutionError{
			Type:    models.ErrorTypeRuntime,
			Message: strings.TrimSpace(stderr),
		})
	}

	return errs
}

func parseLintJSON(trimmed string) ([]models.ExecutionError, bool) {
	var diags []lintDiagnostic
	if err := json.Unmarshal([]byte(trimmed), &diags); err != nil {
		return nil, false
	}
	errs := make([]models.ExecutionError, 0, len(diags))
	for _, d := range diags {
		errs = append(errs, models.ExecutionError{
			Type:    models.ErrorTypeLint,
			Message: d.Message,
			File:    d.Path,
			Line:    d.Line,
			Column:  d.Column,
		})
	}
	return errs, true
}

func matchDiagnosticLine(line string) (models.ExecutionError, bool) {
	for _, p := range diagnosticPatterns {
		m := p.regex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		e := models.ExecutionError{File: m[1]}
		if n, err := strconv.Atoi(m[2]); err == nil {
			e.Line = n
		}
		switch p.name {
		case "python_traceback":
			e.Type = models.ErrorTypeSyntax
			e.Message = strings.TrimSpace(line)
		case "js_ts_trace":
			if n, err := strconv.Atoi(m[3]); err == nil {
				e.Column = n
			}
			e.Type = models.ErrorTypeRuntime
			e.Message = strings.TrimSpace(line)
		case "csharp_diagnostic":
			if n, err := strconv.Atoi(m[3]); err == nil {
				e.Column = n
			}
			if m[4] == "error" {
				e.Type = models.ErrorTypeCompile
			} else {
				e.Type = models.ErrorTypeLint
			}
			e.Code = m[5]
			e.Message = p.msgFrom(m)
		case "go_diagnostic":
			if n, err := strconv.Atoi(m[3]); err == nil {
				e.Column = n
			}
			e.Type = models.ErrorTypeCompile
			e.Message = p.msgFrom(m)
		}
		return e, true
	}
	return models.ExecutionError{}, false
}

// extractStackTrace returns the contiguous tail of combined output starting
// at the first line matching a stack-trace marker (§4.1).
func extractStackTrace(combined string) string {
	lines := strings.Split(combined, "\n")
	start := -1
	for i, line := range lines {
		for _, marker := range stackTraceMarkers {
			if strings.Contains(line, marker) {
				start = i
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return ""
	}
	return strings.Join(lines[start:], "\n")
}
