package vgerr

import "fmt"

// SyntaxError is a GrammarParse error with source position information,
// suitable for CLI-quality diagnostics. Lines and positions are 1-indexed;
// zero means "not set" (e.g. for errors with no single offending position).
type SyntaxError struct {
	Msg        string
	SourceLine string
	Line       int
	Pos        int
}

func (se SyntaxError) Error() string {
	if se.Line == 0 {
		return fmt.Sprintf("grammar parse error: %s", se.Msg)
	}
	return fmt.Sprintf("grammar parse error: line %d, char %d: %s", se.Line, se.Pos, se.Msg)
}

// FullMessage returns the complete error message along with the offending
// source line and a cursor pointing at the problem position, when available.
func (se SyntaxError) FullMessage() string {
	msg := se.Error()
	if se.Line != 0 && se.SourceLine != "" {
		msg = se.SourceLineWithCursor() + "\n" + msg
	}
	return msg
}

// SourceLineWithCursor renders the offending source line with a cursor line
// under it pointing at the error position. Returns "" if no source line was
// recorded.
func (se SyntaxError) SourceLineWithCursor() string {
	if se.SourceLine == "" {
		return ""
	}
	cursor := make([]byte, 0, se.Pos)
	for i := 0; i < se.Pos-1; i++ {
		cursor = append(cursor, ' ')
	}
	cursor = append(cursor, '^')
	return se.SourceLine + "\n" + string(cursor)
}

// NewSyntaxError builds a SyntaxError at the given 1-indexed line/pos.
func NewSyntaxError(msg, sourceLine string, line, pos int) error {
	return SyntaxError{Msg: msg, SourceLine: sourceLine, Line: line, Pos: pos}
}
