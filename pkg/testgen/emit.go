package testgen

import (
	"fmt"
	"strings"

	"github.com/loopforge/engine/pkg/models"
)

func testFilePath(lang models.Language) string {
	switch family(lang) {
	case models.LanguagePython:
		return "test_generated.py"
	case models.LanguageNode:
		return "generated.test.js"
	case models.LanguageCSharp:
		return "GeneratedTests.cs"
	case models.LanguageJava:
		return "GeneratedTests.java"
	case models.LanguageGo:
		return "generated_test.go"
	default:
		return "generated_test.txt"
	}
}

func nullLiteral(lang models.Language) string {
	switch family(lang) {
	case models.LanguagePython:
		return "None"
	case models.LanguageNode:
		return "null"
	case models.LanguageGo:
		return "nil"
	default:
		return "null"
	}
}

func boolLiteral(lang models.Language, v bool) string {
	if family(lang) == models.LanguagePython {
		if v {
			return "True"
		}
		return "False"
	}
	if v {
		return "true"
	}
	return "false"
}

func emptyCollectionLiteral(lang models.Language) string {
	switch family(lang) {
	case models.LanguagePython:
		return "[]"
	case models.LanguageNode:
		return "[]"
	case models.LanguageCSharp:
		return "new object[0]"
	case models.LanguageJava:
		return "new Object[0]"
	case models.LanguageGo:
		return "nil"
	default:
		return "[]"
	}
}

// sampleValue picks a plausible literal for a parameter's declared type,
// falling back to a null-ish value when the type is unknown (common for
// dynamically-typed languages with no annotation).
func sampleValue(lang models.Language, p Parameter) string {
	t := strings.ToLower(p.Type)
	switch {
	case t == "":
		return nullLiteral(lang)
	case strings.Contains(t, "str") || strings.Contains(t, "char"):
		return `"test"`
	case strings.Contains(t, "bool"):
		return boolLiteral(lang, true)
	case strings.Contains(t, "float") || strings.Contains(t, "double") || strings.Contains(t, "decimal"):
		return "3.14"
	case strings.Contains(t, "int") || strings.Contains(t, "long") || strings.Contains(t, "short"):
		return "42"
	case strings.Contains(t, "[]") || strings.Contains(t, "list") || strings.Contains(t, "array") || strings.Contains(t, "slice") || strings.Contains(t, "<"):
		return emptyCollectionLiteral(lang)
	default:
		return nullLiteral(lang)
	}
}

func edgeValue(lang models.Language, p Parameter) string {
	t := strings.ToLower(p.Type)
	switch {
	case strings.Contains(t, "str") || strings.Contains(t, "char"):
		return `""`
	case strings.Contains(t, "int") || strings.Contains(t, "long") || strings.Contains(t, "short"):
		return "0"
	case strings.Contains(t, "float") || strings.Contains(t, "double") || strings.Contains(t, "decimal"):
		return "0.0"
	case strings.Contains(t, "bool"):
		return boolLiteral(lang, false)
	case strings.Contains(t, "[]") || strings.Contains(t, "list") || strings.Contains(t, "array") || strings.Contains(t, "slice") || strings.Contains(t, "<"):
		return emptyCollectionLiteral(lang)
	default:
		return nullLiteral(lang)
	}
}

func argList(lang models.Language, params []Parameter, edge bool) string {
	args := make([]string, len(params))
	for i, p := range params {
		if edge {
			args[i] = edgeValue(lang, p)
		} else {
			args[i] = sampleValue(lang, p)
		}
	}
	return strings.Join(args, ", ")
}

// emitTestFile renders the collected signatures into one test file in the
// idiom of the target language's default test tooling.
func emitTestFile(lang models.Language, sigs []Signature) string {
	switch family(lang) {
	case models.LanguagePython:
		return emitPython(sigs)
	case models.LanguageNode:
		return emitNode(sigs)
	case models.LanguageCSharp:
		return emitCSharp(sigs)
	case models.LanguageJava:
		return emitJava(sigs)
	case models.LanguageGo:
		return emitGo(sigs)
	default:
		return emitPython(sigs)
	}
}

func emitPython(sigs []Signature) string {
	var b strings.Builder
	b.WriteString("import pytest\n\n")
	for _, s := range sigs {
		basic := argList(models.LanguagePython, s.Parameters, false)
		edge := argList(models.LanguagePython, s.Parameters, true)
		call := fmt.Sprintf("%s(%s)", s.Name, basic)
		edgeCall := fmt.Sprintf("%s(%s)", s.Name, edge)
		if s.IsAsync {
			fmt.Fprintf(&b, "@pytest.mark.asyncio\nasync def test_%s_basic():\n    result = await %s\n    assert result is not None\n\n", s.Name, call)
			fmt.Fprintf(&b, "@pytest.mark.asyncio\nasync def test_%s_edge():\n    try:\n        await %s\n    except Exception:\n        pass\n\n", s.Name, edgeCall)
			continue
		}
		fmt.Fprintf(&b, "def test_%s_basic():\n    result = %s\n    assert result is not None\n\n", s.Name, call)
		fmt.Fprintf(&b, "def test_%s_edge():\n    try:\n        %s\n    except Exception:\n        pass\n\n", s.Name, edgeCall)
	}
	return b.String()
}

func emitNode(sigs []Signature) string {
	var b strings.Builder
	for _, s := range sigs {
		basic := argList(models.LanguageNode, s.Parameters, false)
		edge := argList(models.LanguageNode, s.Parameters, true)
		call := fmt.Sprintf("%s(%s)", s.Name, basic)
		edgeCall := fmt.Sprintf("%s(%s)", s.Name, edge)
		if s.IsAsync {
			call = "await " + call
			edgeCall = "await " + edgeCall
		}
		fmt.Fprintf(&b, "test('%s basic', async () => {\n  const result = %s;\n  expect(result).toBeDefined();\n});\n\n", s.Name, call)
		fmt.Fprintf(&b, "test('%s edge', async () => {\n  try {\n    %s;\n  } catch (e) {\n    // expected for edge-case input\n  }\n});\n\n", s.Name, edgeCall)
	}
	return b.String()
}

func emitCSharp(sigs []Signature) string {
	var b strings.Builder
	b.WriteString("using System;\nusing Xunit;\n\npublic class GeneratedTests\n{\n")
	for _, s := range sigs {
		basic := argList(models.LanguageCSharp, s.Parameters, false)
		edge := argList(models.LanguageCSharp, s.Parameters, true)
		fmt.Fprintf(&b, "    [Fact]\n    public void %s_Basic()\n    {\n        var result = Program.%s(%s);\n        Assert.NotNull(result);\n    }\n\n", s.Name, s.Name, basic)
		fmt.Fprintf(&b, "    [Fact]\n    public void %s_Edge()\n    {\n        try { Program.%s(%s); } catch (Exception) { }\n    }\n\n", s.Name, s.Name, edge)
	}
	b.WriteString("}\n")
	return b.String()
}

func emitJava(sigs []Signature) string {
	var b strings.Builder
	b.WriteString("import org.junit.jupiter.api.Test;\nimport static org.junit.jupiter.api.Assertions.*;\n\npublic class GeneratedTests {\n")
	for _, s := range sigs {
		basic := argList(models.LanguageJava, s.Parameters, false)
		edge := argList(models.LanguageJava, s.Parameters, true)
		fmt.Fprintf(&b, "    @Test\n    void %sBasic() {\n        var result = Main.%s(%s);\n        assertNotNull(result);\n    }\n\n", s.Name, s.Name, basic)
		fmt.Fprintf(&b, "    @Test\n    void %sEdge() {\n        try { Main.%s(%s); } catch (Exception e) { }\n    }\n\n", s.Name, s.Name, edge)
	}
	b.WriteString("}\n")
	return b.String()
}

func emitGo(sigs []Signature) string {
	var b strings.Builder
	b.WriteString("package main\n\nimport \"testing\"\n\n")
	for _, s := range sigs {
		basic := argList(models.LanguageGo, s.Parameters, false)
		edge := argList(models.LanguageGo, s.Parameters, true)
		title := strings.ToUpper(s.Name[:1]) + s.Name[1:]
		fmt.Fprintf(&b, "func Test%sBasic(t *testing.T) {\n    _ = %s(%s)\n}\n\n", title, s.Name, basic)
		fmt.Fprintf(&b, "func Test%sEdge(t *testing.T) {\n    defer func() { recover() }()\n    _ = %s(%s)\n}\n\n", title, s.Name, edge)
	}
	return b.String()
}
