package lexer

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

var (
	commentOpen   = []byte("/*")
	commentClose  = []byte("*/")
	expectWord    = []byte("EXPECT")
	expectLineSep = []byte("\nEXPECT")
)

// state is the scanning mode the next call to Next runs in.
type state int

const (
	// stateKeywordsThenLines reads words and switches to line capture after
	// INPUT or OUTPUT.
	stateKeywordsThenLines state = iota
	// stateKeywords reads exactly one word without switching to line capture.
	// It is entered after EMPTY so that "EMPTY INPUT" stays on one line.
	stateKeywords
	// stateLinesUpToExpect captures raw text up to a line starting with EXPECT.
	stateLinesUpToExpect
	// stateInteger reads one word of decimal digits after CODE.
	stateInteger
	// stateComment emits words as comments until one contains "*/".
	stateComment
)

// UnexpectedCharacterError reports a character the script grammar does not
// allow at Offset (0-based, in bytes from the start of the buffer).
type UnexpectedCharacterError struct {
	Char   byte
	Offset int
}

func (e *UnexpectedCharacterError) Error() string {
	if e.Char < 0x80 && strconv.IsPrint(rune(e.Char)) {
		return fmt.Sprintf("unexpected character '%c' at byte %d", e.Char, e.Offset)
	}
	return fmt.Sprintf("unexpected character 0x%02x at byte %d", e.Char, e.Offset)
}

// Lexer produces tokens lazily from a script buffer. A Lexer is single use:
// every call to Next advances through the buffer and cannot be rewound.
type Lexer struct {
	buf   []byte
	pos   int
	state state
	// prev is the state to resume once a comment closes.
	prev state
}

// New returns a Lexer reading buf. The buffer must outlive every token.
func New(buf []byte) *Lexer {
	return &Lexer{buf: buf, state: stateKeywordsThenLines}
}

// Next returns the next token. It returns io.EOF once the buffer is exhausted
// and keeps returning io.EOF on later calls.
func (l *Lexer) Next() (Token, error) {
	switch l.state {
	case stateKeywordsThenLines:
		return l.scanWord(true)
	case stateKeywords:
		return l.scanWord(false)
	case stateLinesUpToExpect:
		return l.scanLines(), nil
	case stateInteger:
		return l.scanInteger()
	case stateComment:
		return l.scanComment()
	}
	return Token{}, fmt.Errorf("lexer: invalid state %d", l.state)
}

func (l *Lexer) scanWord(captureLines bool) (Token, error) {
	word, _ := l.readWord()
	if len(word) == 0 {
		return Token{}, io.EOF
	}
	if bytes.HasPrefix(word, commentOpen) {
		return l.openComment(word), nil
	}

	l.state = stateKeywordsThenLines
	if !keywords[string(word)] {
		return Token{Kind: Text, Value: word}, nil
	}

	switch string(word) {
	case "INPUT", "OUTPUT":
		if captureLines {
			if err := l.skipToNextLine(); err != nil {
				return Token{}, err
			}
			l.state = stateLinesUpToExpect
		}
	case "EMPTY":
		l.state = stateKeywords
	case "CODE":
		l.state = stateInteger
	}
	return Token{Kind: Keyword, Value: word}, nil
}

func (l *Lexer) openComment(word []byte) Token {
	if !bytes.Contains(word[len(commentOpen):], commentClose) {
		l.prev = l.state
		l.state = stateComment
	}
	return Token{Kind: Comment, Value: word}
}

func (l *Lexer) scanComment() (Token, error) {
	word, _ := l.readWord()
	if len(word) == 0 {
		return Token{}, io.EOF
	}
	if bytes.Contains(word, commentClose) {
		l.state = l.prev
	}
	return Token{Kind: Comment, Value: word}, nil
}

// scanLines captures everything up to (not including) the newline that
// precedes the next line starting with EXPECT, or up to the end of buffer.
func (l *Lexer) scanLines() Token {
	start := l.pos
	end := len(l.buf)
	if bytes.HasPrefix(l.buf[start:], expectWord) && start > 0 && l.buf[start-1] == '\n' {
		end = start
	} else if i := bytes.Index(l.buf[start:], expectLineSep); i >= 0 {
		end = start + i
	}

	l.pos = end
	l.state = stateKeywordsThenLines
	return Token{Kind: Text, Value: l.buf[start:end:end]}
}

func (l *Lexer) scanInteger() (Token, error) {
	word, start := l.readWord()
	l.state = stateKeywordsThenLines
	if len(word) == 0 {
		return Token{}, io.EOF
	}
	for i, c := range word {
		if c < '0' || c > '9' {
			return Token{}, &UnexpectedCharacterError{Char: c, Offset: start + i}
		}
	}
	return Token{Kind: Integer, Value: word}, nil
}

// readWord skips whitespace and returns the following run of non-whitespace
// bytes together with its offset.
func (l *Lexer) readWord() ([]byte, int) {
	for l.pos < len(l.buf) && isSpace(l.buf[l.pos]) {
		l.pos++
	}
	start := l.pos
	for l.pos < len(l.buf) && !isSpace(l.buf[l.pos]) {
		l.pos++
	}
	return l.buf[start:l.pos:l.pos], start
}

// skipToNextLine consumes spaces and tabs followed by one newline. Reaching
// the end of the buffer instead of a newline is accepted.
func (l *Lexer) skipToNextLine() error {
	for l.pos < len(l.buf) && (l.buf[l.pos] == ' ' || l.buf[l.pos] == '\t') {
		l.pos++
	}
	if l.pos == len(l.buf) {
		return nil
	}
	if c := l.buf[l.pos]; c != '\n' {
		return &UnexpectedCharacterError{Char: c, Offset: l.pos}
	}
	l.pos++
	return nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
