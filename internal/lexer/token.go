// Package lexer splits omtt test scripts into keyword, text, integer and
// comment tokens.
package lexer

import "fmt"

// Kind classifies a Token.
type Kind int

const (
	Keyword Kind = iota
	Text
	Integer
	Comment
)

// String returns the upper-case kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Keyword:
		return "KEYWORD"
	case Text:
		return "TEXT"
	case Integer:
		return "INTEGER"
	case Comment:
		return "COMMENT"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit. Value aliases the buffer the Lexer was
// created with and must not be modified.
type Token struct {
	Kind  Kind
	Value []byte
}

// Is reports whether the token has the given kind and value.
func (t Token) Is(kind Kind, value string) bool {
	return t.Kind == kind && string(t.Value) == value
}

// String formats the token as 'value' (KIND).
func (t Token) String() string {
	return fmt.Sprintf("'%s' (%s)", t.Value, t.Kind)
}

// keywords is the fixed keyword set of the script language.
var keywords = map[string]bool{
	"RUN":    true,
	"WITH":   true,
	"INPUT":  true,
	"EXPECT": true,
	"OUTPUT": true,
	"EXIT":   true,
	"CODE":   true,
	"IN":     true,
	"EMPTY":  true,
}

// IsKeyword reports whether word belongs to the keyword set.
func IsKeyword(word string) bool {
	return keywords[word]
}
