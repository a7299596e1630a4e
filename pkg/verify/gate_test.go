package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
)

func newGate() *Gate {
	return New(config.DefaultVerificationConfig())
}

func TestCheckQualityNilAnalysis(t *testing.T) {
	g := newGate()
	c := g.checkQuality(nil)
	assert.False(t, c.Passed)
	assert.False(t, c.Ran)
}

func TestCheckQualityBelowThreshold(t *testing.T) {
	g := newGate()
	c := g.checkQuality(&models.StaticAnalysisResult{SyntaxValid: true, OverallScore: 10})
	assert.False(t, c.Passed)
}

func TestCheckTestsRequiredButAbsent(t *testing.T) {
	g := newGate()
	c := g.checkTests(nil)
	assert.False(t, c.Passed) // DefaultVerificationConfig requires tests
}

func TestCheckTestsPassRate(t *testing.T) {
	g := newGate()
	c := g.checkTests(&models.TestResults{Total: 10, Passed: 9, Failed: 1})
	assert.False(t, c.Passed) // any failure fails the check regardless of rate
	assert.Equal(t, 90, c.Score)

	c = g.checkTests(&models.TestResults{Total: 10, Passed: 8, Failed: 0, Skipped: 2})
	assert.True(t, c.Passed) // 80% meets MinTestPassRate=0.8
}

func TestCheckSecurityDetectsSecret(t *testing.T) {
	g := newGate()
	files := []models.ProjectFile{{Path: "config.py", Content: `api_key = "sk_live_1234567890abcdef"`}}
	c := g.checkSecurity(files)
	assert.False(t, c.Passed)
	assert.Equal(t, 0, c.Score)
	assert.NotEmpty(t, c.Issues)
	assert.Equal(t, models.SeverityCritical, c.Issues[0].Severity)
}

func TestCheckSecurityDetectsSQLInjection(t *testing.T) {
	g := newGate()
	files := []models.ProjectFile{{Path: "db.py", Content: `query = "SELECT * FROM users WHERE id=" + user_id`}}
	c := g.checkSecurity(files)
	assert.True(t, c.Passed) // Error severity, not Critical — check still passes
	assert.NotEmpty(t, c.Issues)
}

func TestCheckSecurityClean(t *testing.T) {
	g := newGate()
	files := []models.ProjectFile{{Path: "main.py", Content: "def add(a, b):\n    return a + b\n"}}
	c := g.checkSecurity(files)
	assert.True(t, c.Passed)
	assert.Equal(t, 100, c.Score)
}

func TestCheckBuildFailure(t *testing.T) {
	g := newGate()
	c := g.checkBuild("compiling...\nerror: undefined reference to `foo`\n")
	assert.False(t, c.Passed)
	assert.Equal(t, 0, c.Score)
}

func TestCheckBuildClean(t *testing.T) {
	g := newGate()
	c := g.checkBuild("compiling...\nbuild succeeded\n")
	assert.True(t, c.Passed)
	assert.Equal(t, 100, c.Score)
}

func TestCheckBuildIgnoresBenignErrorMentions(t *testing.T) {
	g := newGate()
	c := g.checkBuild("running tests...\n0 errors, 0 warnings\nno errors found\n")
	assert.True(t, c.Passed)
	assert.Equal(t, 100, c.Score)
}

func TestVerifyPassEndToEnd(t *testing.T) {
	g := newGate()
	result := g.Verify("proj-1", Artifacts{
		Analysis:    &models.StaticAnalysisResult{SyntaxValid: true, OverallScore: 95, PassesGate: true},
		TestResults: &models.TestResults{Total: 5, Passed: 5},
		Files:       []models.ProjectFile{{Path: "main.py", Content: "def add(a, b):\n    return a + b\n"}},
		BuildOutput: "build succeeded",
	})
	assert.True(t, result.Passed)
	assert.Greater(t, result.Score, 0)
	assert.False(t, result.HasCriticalIssue())
}

func TestVerifyFailsOnCriticalSecurityIssue(t *testing.T) {
	g := newGate()
	result := g.Verify("proj-1", Artifacts{
		Analysis:    &models.StaticAnalysisResult{SyntaxValid: true, OverallScore: 95, PassesGate: true},
		TestResults: &models.TestResults{Total: 5, Passed: 5},
		Files:       []models.ProjectFile{{Path: "config.py", Content: `password = "hunter2hunter2"`}},
		BuildOutput: "build succeeded",
	})
	assert.False(t, result.Passed)
	assert.True(t, result.HasCriticalIssue())
}
