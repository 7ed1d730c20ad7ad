package parser

import (
	"fmt"
	"strings"

	"github.com/omtt/omtt-go/internal/lexer"
)

// MissingKeywordError reports that the script ended where one of Expected
// was required.
type MissingKeywordError struct {
	Expected []string
}

func (e *MissingKeywordError) Error() string {
	return fmt.Sprintf("expected %s (KEYWORD), but got nothing", alternatives(e.Expected))
}

// MissingTextError reports that the script ended where text was required.
type MissingTextError struct{}

func (e *MissingTextError) Error() string {
	return "expected text, but got nothing"
}

// MissingIntegerError reports that the script ended where an exit code was
// required.
type MissingIntegerError struct{}

func (e *MissingIntegerError) Error() string {
	return "expected number, but got nothing"
}

// WrongTokenError reports a token of the wrong kind or value. Expected lists
// every value that would have been accepted.
type WrongTokenError struct {
	Expected     []string
	ExpectedKind lexer.Kind
	Got          lexer.Token
}

func (e *WrongTokenError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("expected %s, but got %s", e.ExpectedKind, e.Got)
	}
	return fmt.Sprintf("expected %s (%s), but got %s", alternatives(e.Expected), e.ExpectedKind, e.Got)
}

// UnexpectedKeywordError reports a keyword where free text was required.
type UnexpectedKeywordError struct {
	Keyword string
}

func (e *UnexpectedKeywordError) Error() string {
	return fmt.Sprintf("unexpected keyword '%s'", e.Keyword)
}

// ExitCodeRangeError reports an exit code literal that does not fit in an
// int. It unwraps to the underlying *strconv.NumError.
type ExitCodeRangeError struct {
	Literal string
	Err     error
}

func (e *ExitCodeRangeError) Error() string {
	return fmt.Sprintf("exit code %s: %v", e.Literal, e.Err)
}

func (e *ExitCodeRangeError) Unwrap() error { return e.Err }

func alternatives(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, " or ")
}
