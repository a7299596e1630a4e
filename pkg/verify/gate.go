package verify

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
)

// Artifacts bundles everything a Verify call needs from the phases that
// already ran this iteration (§4.4).
type Artifacts struct {
	Analysis      *models.StaticAnalysisResult
	TestResults   *models.TestResults
	Files         []models.ProjectFile
	BuildOutput   string
	RuntimeErrors []models.ExecutionError
}

// Gate is the VerificationGate (§4.4). Its patterns are package-level tables
// compiled once at package initialization, mirroring pkg/masking's
// eager-compile-at-startup shape.
type Gate struct {
	cfg *config.VerificationConfig
}

// New builds a Gate from the verification configuration section.
func New(cfg *config.VerificationConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Verify runs all five checks and aggregates them into a VerificationResult
// (§4.4).
func (g *Gate) Verify(projectID string, a Artifacts) *models.VerificationResult {
	checks := []models.CheckResult{
		g.checkQuality(a.Analysis),
		g.checkTests(a.TestResults),
		g.checkSecurity(a.Files),
		g.checkBuild(a.BuildOutput),
		g.checkRuntime(a.RuntimeErrors),
	}

	var issues []models.Issue
	for _, c := range checks {
		issues = append(issues, c.Issues...)
	}

	result := &models.VerificationResult{
		ProjectID:   projectID,
		ValidatedAt: time.Now(),
		Score:       weightedScore(checks),
		Checks:      checks,
		Issues:      issues,
	}
	result.Passed = passRule(checks, g.cfg.RequireTests) && !result.HasCriticalIssue()
	return result
}

// weightedScore combines the checks that actually ran, weighted by
// models.CategoryWeight, renormalized over the weight that ran.
func weightedScore(checks []models.CheckResult) int {
	var totalWeight, sum float64
	for _, c := range checks {
		if !c.Ran {
			continue
		}
		w := models.CategoryWeight(c.Category)
		totalWeight += w
		sum += w * float64(c.Score)
	}
	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(sum / totalWeight))
}

// passRule implements the check part of §4.4/§8's pass invariant: Quality
// and Build must both pass, and Tests must pass when tests are required.
// The remaining condition, that no check carries a Critical issue, is
// applied by Verify.
func passRule(checks []models.CheckResult, requireTests bool) bool {
	var quality, build, tests models.CheckResult
	for _, c := range checks {
		switch c.Category {
		case models.CategoryQuality:
			quality = c
		case models.CategoryBuild:
			build = c
		case models.CategoryTests:
			tests = c
		}
	}
	if !quality.Passed || !build.Passed {
		return false
	}
	if requireTests && !tests.Passed {
		return false
	}
	return true
}

// checkQuality requires a StaticAnalysisResult; absence (e.g. because
// static analysis never ran) fails the check outright.
func (g *Gate) checkQuality(a *models.StaticAnalysisResult) models.CheckResult {
	check := models.CheckResult{Category: models.CategoryQuality}
	if a == nil {
		check.Passed = false
		return check
	}
	check.Ran = true
	check.Score = a.OverallScore
	check.Passed = a.SyntaxValid && a.OverallScore >= g.cfg.MinQualityScore

	for _, e := range a.SyntaxErrors {
		check.Issues = append(check.Issues, models.Issue{
			Category: models.CategoryQuality, Severity: models.SeverityError,
			Message: e.Message, File: e.File, Line: e.Line,
		})
	}
	for _, e := range a.LintErrors {
		if e.Type == models.ErrorTypeCompile || strings.Contains(strings.ToLower(e.Message), "error") {
			check.Issues = append(check.Issues, models.Issue{
				Category: models.CategoryQuality, Severity: models.SeverityError,
				Message: e.Message, File: e.File, Line: e.Line,
			})
		}
	}
	return check
}

// checkTests gates on MinTestPassRate, a 0–1 fraction in config, compared
// against TestResults.PassRate()'s 0–100 percentage.
func (g *Gate) checkTests(tr *models.TestResults) models.CheckResult {
	check := models.CheckResult{Category: models.CategoryTests}
	if tr == nil {
		check.Passed = !g.cfg.RequireTests
		if check.Passed {
			check.Score = 100
		}
		return check
	}
	check.Ran = true
	check.Score = int(math.Round(tr.PassRate()))

	requiredScore := g.cfg.MinTestPassRate * 100
	check.Passed = tr.Failed == 0 && (tr.Total == 0 || tr.PassRate() >= requiredScore)

	if tr.Failed > 0 {
		check.Issues = append(check.Issues, models.Issue{
			Category: models.CategoryTests, Severity: models.SeverityError,
			Message: fmt.Sprintf("%d of %d tests failed", tr.Failed, tr.Total),
		})
	}
	return check
}

// checkSecurity scans file content line by line against the compiled
// secret/SQL-injection/dangerous-primitive pattern tables.
func (g *Gate) checkSecurity(files []models.ProjectFile) models.CheckResult {
	check := models.CheckResult{Category: models.CategorySecurity, Ran: true, Score: 100, Passed: true}

	for _, f := range files {
		for i, line := range strings.Split(f.Content, "\n") {
			lineNo := i + 1
			for _, p := range secretPatterns {
				if p.regex.MatchString(line) {
					check.Issues = append(check.Issues, models.Issue{
						Category: models.CategorySecurity, Severity: models.SeverityCritical,
						Message: p.message, File: f.Path, Line: lineNo,
					})
				}
			}
			for _, p := range sqlInjectionPatterns {
				if p.regex.MatchString(line) {
					check.Issues = append(check.Issues, models.Issue{
						Category: models.CategorySecurity, Severity: models.SeverityError,
						Message: p.message, File: f.Path, Line: lineNo,
					})
				}
			}
			for _, p := range dangerousPrimitivePatterns {
				if p.regex.MatchString(line) {
					check.Issues = append(check.Issues, models.Issue{
						Category: models.CategorySecurity, Severity: models.SeverityWarning,
						Message: p.message, File: f.Path, Line: lineNo,
					})
				}
			}
		}
	}

	for _, i := range check.Issues {
		if i.Severity == models.SeverityCritical {
			check.Passed = false
		}
	}
	switch {
	case !check.Passed:
		check.Score = 0
	case len(check.Issues) > 0:
		check.Score = 100 - 5*len(check.Issues)
		if check.Score < 0 {
			check.Score = 0
		}
	}
	return check
}

// buildErrorLine matches the §4.4 check 4 "error …:" shape (e.g. "error
// CS1002:", "error TS2304:") — colon-anchored so benign lines like
// "0 errors" or "no errors" don't false-positive.
var buildErrorLine = regexp.MustCompile(`(?i)\berror\b[^:\n]*:`)

var buildErrorPhrases = []string{"build failed", "failure:", "fatal error", "npm err!"}

// checkBuild scans build output for error-level lines and counts warnings,
// failing the check when errors are present and flagging excess warnings.
func (g *Gate) checkBuild(output string) models.CheckResult {
	check := models.CheckResult{Category: models.CategoryBuild, Ran: true, Score: 100, Passed: true}
	if output == "" {
		return check
	}

	errCount, warnCount := 0, 0
	for i, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		matched := buildErrorLine.MatchString(line)
		if !matched {
			for _, p := range buildErrorPhrases {
				if strings.Contains(lower, p) {
					matched = true
					break
				}
			}
		}
		if matched {
			errCount++
			check.Issues = append(check.Issues, models.Issue{
				Category: models.CategoryBuild, Severity: models.SeverityError,
				Message: strings.TrimSpace(line), Line: i + 1,
			})
			continue
		}
		if strings.Contains(lower, "warning") {
			warnCount++
		}
	}

	if errCount > 0 {
		check.Passed = false
		check.Score = 0
	} else if warnCount > g.cfg.MaxBuildWarnings {
		check.Issues = append(check.Issues, models.Issue{
			Category: models.CategoryBuild, Severity: models.SeverityWarning,
			Message: fmt.Sprintf("%d build warnings exceeds max %d", warnCount, g.cfg.MaxBuildWarnings),
		})
		check.Score = 100 - 2*(warnCount-g.cfg.MaxBuildWarnings)
		if check.Score < 0 {
			check.Score = 0
		}
	}
	return check
}

// checkRuntime elevates Runtime/Exception diagnostics from the optional
// run-after-build phase into issues; it never fails the overall gate on its
// own, only lowers the weighted score.
func (g *Gate) checkRuntime(errs []models.ExecutionError) models.CheckResult {
	check := models.CheckResult{Category: models.CategoryRuntime, Ran: true, Score: 100, Passed: true}
	for _, e := range errs {
		if e.Type != models.ErrorTypeRuntime && e.Type != models.ErrorTypeException {
			continue
		}
		check.Issues = append(check.Issues, models.Issue{
			Category: models.CategoryRuntime, Severity: models.SeverityError,
			Message: e.Message, File: e.File, Line: e.Line,
		})
	}
	if len(check.Issues) > 0 {
		check.Score = 100 - 10*len(check.Issues)
		if check.Score < 0 {
			check.Score = 0
		}
	}
	return check
}
