package analyzer

import (
	"fmt"

	"github.com/loopforge/engine/pkg/models"
)

var bracketPairs = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
}

type openBracket struct {
	ch   rune
	line int
	col  int
}

// checkBrackets performs a single-pass scan of content for unbalanced or
// mismatched (), [], {} pairs, ignoring anything inside a string or comment
// context so that a stray bracket in a docstring never fails the gate.
func checkBrackets(path, content string) []models.ExecutionError {
	var stack []openBracket
	var errs []models.ExecutionError

	line, col := 1, 0
	var inString rune
	inLineComment := false
	inBlockComment := false

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		col++

		if r == '\n' {
			line++
			col = 0
			inLineComment = false
			continue
		}
		if inLineComment {
			continue
		}
		if inBlockComment {
			if r == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				inBlockComment = false
				i++
				col++
			}
			continue
		}
		if inString != 0 {
			if r == '\\' && i+1 < len(runes) {
				i++
				col++
				continue
			}
			if r == inString {
				inString = 0
			}
			continue
		}

		switch r {
		case '"', '\'', '`':
			inString = r
			continue
		case '/':
			if i+1 < len(runes) {
				switch runes[i+1] {
				case '/':
					inLineComment = true
					i++
					col++
					continue
				case '*':
					inBlockComment = true
					i++
					col++
					continue
				}
			}
		case '#':
			inLineComment = true
			continue
		}

		switch r {
		case '(', '[', '{':
			stack = append(stack, openBracket{ch: r, line: line, col: col})
		case ')', ']', '}':
			if len(stack) == 0 {
				errs = append(errs, models.ExecutionError{
					Type:    models.ErrorTypeSyntax,
					File:    path,
					Line:    line,
					Column:  col,
					Message: fmt.Sprintf("unexpected closing %q with no matching opener", r),
				})
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if bracketPairs[top.ch] != r {
				errs = append(errs, models.ExecutionError{
					Type:    models.ErrorTypeSyntax,
					File:    path,
					Line:    top.line,
					Column:  top.col,
					Message: fmt.Sprintf("mismatched bracket: %q opened here, closed with %q", top.ch, r),
				})
			}
		}
	}

	for _, b := range stack {
		errs = append(errs, models.ExecutionError{
			Type:    models.ErrorTypeSyntax,
			File:    path,
			Line:    b.line,
			Column:  b.col,
			Message: fmt.Sprintf("unclosed %q", b.ch),
		})
	}

	return errs
}
