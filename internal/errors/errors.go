// Package errors renders diagnostics from every pipeline stage (lex,
// parse, analyze, compile, run) with source context, modeled on
// go-dws's internal/errors.CompilerError.
package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
	"github.com/cwbudde/go-l/internal/semantic"
	"golang.org/x/text/width"
)

// Diagnostic is a single pipeline error with enough position information
// to render a source-line gutter and caret. Column is 0 when the
// originating stage (the Parser, the Analyzer, or a bytecode.RuntimeError)
// does not track a column.
type Diagnostic struct {
	Stage   string
	Message string
	Line    int
	Column  int
}

// FromLexer adapts a lexer.LexError.
func FromLexer(e lexer.LexError) Diagnostic {
	return Diagnostic{Stage: "lex", Message: e.Message, Line: e.Pos.Line, Column: e.Pos.Column}
}

// FromParser adapts a parser.ParseError.
func FromParser(e parser.ParseError) Diagnostic {
	return Diagnostic{Stage: "parse", Message: e.Message, Line: e.Line}
}

// FromAnalyzer adapts a *semantic.AnalyzerError.
func FromAnalyzer(e *semantic.AnalyzerError) Diagnostic {
	return Diagnostic{Stage: "analyze", Message: e.Message, Line: e.Line}
}

// FromRuntime builds a Diagnostic for a VM failure, which carries no
// source position (spec §7: runtime panics surface as plain errors, not
// as language-level exceptions with source spans).
func FromRuntime(err error) Diagnostic {
	return Diagnostic{Stage: "run", Message: err.Error()}
}

// Format renders diag against source, with a 4-digit line-number gutter
// and a caret under the offending column (when known). color wraps the
// caret and message in ANSI codes for TTY output.
func (d Diagnostic) Format(source string, color bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s error: line %d", d.Stage, d.Line))
	if d.Column > 0 {
		sb.WriteString(fmt.Sprintf(":%d", d.Column))
	}
	sb.WriteString("\n")

	if line := sourceLine(source, d.Line); line != "" {
		gutter := fmt.Sprintf("%4d | ", d.Line)
		sb.WriteString(gutter)
		sb.WriteString(line)
		sb.WriteString("\n")

		if d.Column > 0 {
			sb.WriteString(strings.Repeat(" ", len(gutter)))
			sb.WriteString(strings.Repeat(" ", caretOffset(line, d.Column)))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

// caretOffset returns the terminal display width of the first col-1 runes
// of line, so the caret lands under the right column even when the source
// contains East Asian wide characters that occupy two cells.
func caretOffset(line string, col int) int {
	offset := 0
	runeIdx := 0
	for _, r := range line {
		if runeIdx >= col-1 {
			break
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			offset += 2
		default:
			offset++
		}
		runeIdx++
	}
	return offset
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Format renders every diagnostic in diags against source, separated by
// blank lines, prefixed with a count header when there is more than one.
func Format(diags []Diagnostic, source string, color bool) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format(source, color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s):\n\n", len(diags)))
	for i, d := range diags {
		sb.WriteString(fmt.Sprintf("[%d/%d] ", i+1, len(diags)))
		sb.WriteString(d.Format(source, color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
