package sandbox

import (
	"fmt"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

// languageFamily canonicalizes the language aliases in §6's supported-
// language list ("javascript/typescript/node", "csharp/dotnet", "go/golang")
// down to one entrypoint-table entry each.
func languageFamily(lang models.Language) models.Language {
	switch lang {
	case models.LanguageJavaScript, models.LanguageTypeScript, models.LanguageNode:
		return models.LanguageNode
	case models.LanguageCSharp, models.LanguageDotnet:
		return models.LanguageCSharp
	case models.LanguageGo, models.LanguageGolang:
		return models.LanguageGo
	default:
		return lang
	}
}

// entrypointCommands holds the command for each of the four table phases;
// an empty string means "no command for this phase" (the §6 table's "—").
type entrypointCommands struct {
	staticAnalysis string
	build          string
	test           string
	run            string
}

func defaultEntryPoint(lang models.Language, requested string) string {
	if requested != "" {
		return requested
	}
	switch languageFamily(lang) {
	case models.LanguagePython:
		return "main.py"
	case models.LanguageNode:
		return "index.js"
	case models.LanguageJava:
		return "Main"
	default:
		return ""
	}
}

// commandsFor returns the §6 entrypoint table row for lang, generalized
// with rust/ruby/php rows using each toolchain's conventional build/test/run
// commands (the table itself only names the five languages it shows;
// §6's supported-language list also names rust/ruby/php, so those three
// need a row too — decided here rather than left unsupported).
func commandsFor(lang models.Language) (entrypointCommands, bool) {
	switch languageFamily(lang) {
	case models.LanguagePython:
		return entrypointCommands{
			staticAnalysis: `python -m py_compile $(find . -name '*.py') && (pylint --output-format=json . || true)`,
			build:          "",
			test:           "pytest --tb=short -v",
			run:            "python %ENTRY%",
		}, true
	case models.LanguageNode:
		return entrypointCommands{
			staticAnalysis: "npm install && (npx eslint --format json . || true)",
			build:          "npm run build",
			test:           "npm test",
			run:            "node %ENTRY%",
		}, true
	case models.LanguageCSharp:
		return entrypointCommands{
			staticAnalysis: "dotnet build -warnaserror",
			build:          "dotnet restore && dotnet build -c Release",
			test:           "dotnet test -v normal",
			run:            "dotnet run",
		}, true
	case models.LanguageGo:
		return entrypointCommands{
			staticAnalysis: "go vet ./... ; (golangci-lint run || true)",
			build:          "go build -o app ./...",
			test:           "go test -v ./...",
			run:            "go run .",
		}, true
	case models.LanguageJava:
		return entrypointCommands{
			staticAnalysis: "",
			build:          "javac -d out *.java",
			test:           "java -cp out:$(find . -name '*.jar' | tr '\\n' ':') org.junit.runner.JUnitCore AllTests",
			run:            "java -cp out %ENTRY%",
		}, true
	case models.LanguageRust:
		return entrypointCommands{
			staticAnalysis: "cargo check",
			build:          "cargo build --release",
			test:           "cargo test",
			run:            "cargo run",
		}, true
	case models.LanguageRuby:
		return entrypointCommands{
			staticAnalysis: "ruby -wc $(find . -name '*.rb')",
			build:          "",
			test:           "rspec",
			run:            "ruby %ENTRY%",
		}, true
	case models.LanguagePHP:
		return entrypointCommands{
			staticAnalysis: "find . -name '*.php' -exec php -l {} \\;",
			build:          "",
			test:           "phpunit",
			run:            "php %ENTRY%",
		}, true
	default:
		return entrypointCommands{}, false
	}
}

// GenerateEntrypoint renders the POSIX shell script written to
// /workspace/entrypoint.sh (§6). Unknown languages report the contract's
// "Unsupported language" entrypoint error instead of failing to generate a
// script at all, so the sandbox still launches, runs the script, and exits
// non-zero with a diagnosable message.
func GenerateEntrypoint(lang models.Language, phase models.ExecutionPhase, entryPoint string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -e\n")

	cmds, ok := commandsFor(lang)
	if !ok {
		fmt.Fprintf(&b, "echo %q 1>&2\nexit 1\n", ErrUnsupportedLanguage.Error())
		return b.String()
	}

	entry := defaultEntryPoint(lang, entryPoint)

	var cmd string
	switch phase {
	case models.ExecutionPhaseStaticAnalysis:
		cmd = cmds.staticAnalysis
	case models.ExecutionPhaseDependencyResolve:
		cmd = dependencyResolveCommand(lang)
	case models.ExecutionPhaseBuild:
		cmd = cmds.build
	case models.ExecutionPhaseTest:
		cmd = cmds.test
	case models.ExecutionPhaseRun:
		cmd = cmds.run
	}

	cmd = strings.ReplaceAll(cmd, "%ENTRY%", entry)
	if cmd == "" {
		b.WriteString("true\n")
		return b.String()
	}
	b.WriteString(cmd)
	b.WriteString("\n")
	return b.String()
}

// dependencyResolveCommand isolates the dependency-install step the §6
// table folds into StaticAnalysis/Build for the languages that have one.
func dependencyResolveCommand(lang models.Language) string {
	switch languageFamily(lang) {
	case models.LanguageNode:
		return "npm install"
	case models.LanguageCSharp:
		return "dotnet restore"
	case models.LanguageGo:
		return "go mod download"
	case models.LanguageRust:
		return "cargo fetch"
	default:
		return ""
	}
}
