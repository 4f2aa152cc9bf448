package parser

import "fmt"

// SyntaxError is a structured parse error: file/line/column/message,
// exactly the shape spec §7 requires for "Source parse error".
type SyntaxError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
