package testgen

import (
	"regexp"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

// Signature is one extracted function/method declaration, shaped after the
// anchored-regex extraction style used to pull ReAct sections out of raw LLM
// text: a compiled pattern per language family, applied line by line.
type Signature struct {
	Name       string
	File       string
	Parameters []Parameter
	ReturnType string
	IsAsync    bool
}

// Parameter is one formal parameter of an extracted signature.
type Parameter struct {
	Name string
	Type string
}

// family canonicalizes language aliases into the signature-extraction family
// that shares an extraction pattern (mirrors pkg/sandbox's entrypoint family
// grouping).
func family(lang models.Language) models.Language {
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

var (
	pythonDefPattern = regexp.MustCompile(`^\s*(async\s+)?def\s+(\w+)\s*\(([^)]*)\)\s*(->\s*([\w\[\], .]+))?\s*:`)
	nodeFuncPattern  = regexp.MustCompile(`^\s*(export\s+)?(async\s+)?function\s+(\w+)\s*\(([^)]*)\)`)
	nodeArrowPattern = regexp.MustCompile(`^\s*(export\s+)?const\s+(\w+)\s*=\s*(async\s+)?\(([^)]*)\)\s*(:\s*([\w\[\]<>, ]+))?\s*=>`)
	csharpPattern    = regexp.MustCompile(`^\s*(public|private|protected|internal)\s+(static\s+)?(async\s+)?([\w<>\[\],.]+)\s+(\w+)\s*\(([^)]*)\)`)
	javaPattern      = regexp.MustCompile(`^\s*(public|private|protected)\s+(static\s+)?([\w<>\[\],.]+)\s+(\w+)\s*\(([^)]*)\)`)
	goFuncPattern    = regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(([^)]*)\)\s*([\w\[\]\*{}., ]*)\s*{?`)
)

// skip excludes language built-ins and conventionally private/test
// helpers from test generation (§4.3 "Skip rules").
func skip(name string) bool {
	if name == "" {
		return true
	}
	if strings.HasPrefix(name, "_") {
		return true
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "test") {
		return true
	}
	switch name {
	case "main", "init", "constructor", "Main", "Init":
		return true
	}
	return false
}

// extractSignatures scans one file's content for signatures of the given
// language family, line by line.
func extractSignatures(lang models.Language, file models.ProjectFile) []Signature {
	var sigs []Signature
	lines := strings.Split(file.Content, "\n")

	switch family(lang) {
	case models.LanguagePython:
		for _, line := range lines {
			m := pythonDefPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[2]
			if skip(name) {
				continue
			}
			sigs = append(sigs, Signature{
				Name:       name,
				File:       file.Path,
				Parameters: parsePythonParams(m[3]),
				ReturnType: strings.TrimSpace(m[5]),
				IsAsync:    m[1] != "",
			})
		}
	case models.LanguageNode:
		for _, line := range lines {
			if m := nodeFuncPattern.FindStringSubmatch(line); m != nil {
				name := m[3]
				if skip(name) {
					continue
				}
				sigs = append(sigs, Signature{
					Name:       name,
					File:       file.Path,
					Parameters: parseUntypedParams(m[4]),
					IsAsync:    m[2] != "",
				})
				continue
			}
			if m := nodeArrowPattern.FindStringSubmatch(line); m != nil {
				name := m[2]
				if skip(name) {
					continue
				}
				sigs = append(sigs, Signature{
					Name:       name,
					File:       file.Path,
					Parameters: parseUntypedParams(m[4]),
					ReturnType: strings.TrimSpace(m[6]),
					IsAsync:    m[3] != "",
				})
			}
		}
	case models.LanguageCSharp:
		for _, line := range lines {
			m := csharpPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[5]
			if skip(name) {
				continue
			}
			sigs = append(sigs, Signature{
				Name:       name,
				File:       file.Path,
				Parameters: parseTypedParams(m[6]),
				ReturnType: m[4],
				IsAsync:    m[3] != "",
			})
		}
	case models.LanguageJava:
		for _, line := range lines {
			m := javaPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[4]
			if skip(name) {
				continue
			}
			sigs = append(sigs, Signature{
				Name:       name,
				File:       file.Path,
				Parameters: parseTypedParams(m[5]),
				ReturnType: m[3],
			})
		}
	case models.LanguageGo:
		for _, line := range lines {
			m := goFuncPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[1]
			if skip(name) {
				continue
			}
			sigs = append(sigs, Signature{
				Name:       name,
				File:       file.Path,
				Parameters: parseGoParams(m[2]),
				ReturnType: strings.TrimSpace(m[3]),
			})
		}
	}

	return sigs
}

func parsePythonParams(raw string) []Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []Parameter
	for _, part := range splitParams(raw) {
		part = strings.TrimSpace(part)
		if part == "" || part == "self" || part == "cls" {
			continue
		}
		name := part
		typ := ""
		if idx := strings.Index(part, "="); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
		}
		if idx := strings.Index(name, ":"); idx >= 0 {
			typ = strings.TrimSpace(name[idx+1:])
			name = strings.TrimSpace(name[:idx])
		}
		name = strings.TrimPrefix(name, "*")
		name = strings.TrimPrefix(name, "*")
		params = append(params, Parameter{Name: name, Type: typ})
	}
	return params
}

func parseUntypedParams(raw string) []Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []Parameter
	for _, part := range splitParams(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := part
		if idx := strings.Index(part, "="); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
		}
		params = append(params, Parameter{Name: name})
	}
	return params
}

// parseTypedParams parses "Type name" ordered parameter lists (C#, Java).
func parseTypedParams(raw string) []Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []Parameter
	for _, part := range splitParams(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) < 2 {
			params = append(params, Parameter{Name: part})
			continue
		}
		params = append(params, Parameter{
			Type: strings.Join(fields[:len(fields)-1], " "),
			Name: fields[len(fields)-1],
		})
	}
	return params
}

// parseGoParams parses "name Type" ordered parameter lists.
func parseGoParams(raw string) []Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []Parameter
	for _, part := range splitParams(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) < 2 {
			params = append(params, Parameter{Name: fields[0]})
			continue
		}
		params = append(params, Parameter{
			Name: fields[0],
			Type: strings.Join(fields[1:], " "),
		})
	}
	return params
}

// splitParams splits a parameter list on top-level commas only, respecting
// nested angle/square/paren brackets (generics, defaults, tuples).
func splitParams(raw string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range raw {
		switch r {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, raw[start:])
	return parts
}
