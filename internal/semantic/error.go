package semantic

import "fmt"

// AnalyzerError is the single failure type the Analyzer ever returns
// (spec §4.1 "Failure mode" — first error wins, no recovery).
type AnalyzerError struct {
	Line    int
	Message string
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func errf(line int, format string, args ...any) *AnalyzerError {
	return &AnalyzerError{Line: line, Message: fmt.Sprintf(format, args...)}
}
