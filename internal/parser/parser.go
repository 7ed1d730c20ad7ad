// Package parser turns the token stream of an omtt test script into a
// TestSpec.
//
// The grammar is
//
//	RUN WITH (EMPTY INPUT | INPUT <text>) { EXPECT <clause> }
//
// where <clause> is one of OUTPUT <text>, EMPTY OUTPUT, IN OUTPUT <text>,
// EXIT CODE <integer>, EXIT WITH SUCCESS or EXIT WITH FAILURE. Comments are
// accepted only before RUN.
package parser

import (
	"errors"
	"io"
	"strconv"

	"github.com/omtt/omtt-go/internal/expectation"
	"github.com/omtt/omtt-go/internal/lexer"
)

// TokenSource yields tokens until it returns io.EOF. *lexer.Lexer
// implements it.
type TokenSource interface {
	Next() (lexer.Token, error)
}

// TestSpec is a parsed test script.
type TestSpec struct {
	// Input is fed to the SUT's stdin. It aliases the script buffer.
	Input []byte
	// Expectations are in script order.
	Expectations []expectation.Expectation
}

type state int

const (
	stateRun state = iota
	stateWith
	stateInput
	stateEmptyInput
	stateTextInput
	stateExpectOrFinish
	stateExpect
	stateOutputText
	stateEmptyOutput
	stateInOutput
	statePartialOutputText
	stateExit
	stateExitCode
	stateExitWith
	stateDone
)

// Parser is a finite state machine over a TokenSource.
type Parser struct {
	src   TokenSource
	state state
	spec  TestSpec
}

// New returns a Parser reading from src.
func New(src TokenSource) *Parser {
	return &Parser{src: src, state: stateRun}
}

// ParseScript lexes and parses buf.
func ParseScript(buf []byte) (*TestSpec, error) {
	return New(lexer.New(buf)).Parse()
}

// Parse consumes tokens until the script is complete or an error occurs.
func (p *Parser) Parse() (*TestSpec, error) {
	for {
		var err error
		switch p.state {
		case stateRun:
			err = p.handleRun()
		case stateWith:
			err = p.keywordTransition(stateInput, "WITH")
		case stateInput:
			err = p.handleInput()
		case stateEmptyInput:
			err = p.keywordTransition(stateExpectOrFinish, "INPUT")
		case stateTextInput:
			err = p.handleTextInput()
		case stateExpectOrFinish:
			err = p.handleExpectOrFinish()
		case stateExpect:
			err = p.handleExpect()
		case stateOutputText:
			err = p.handleOutputText()
		case stateEmptyOutput:
			err = p.handleEmptyOutput()
		case stateInOutput:
			err = p.keywordTransition(statePartialOutputText, "OUTPUT")
		case statePartialOutputText:
			err = p.handlePartialOutputText()
		case stateExit:
			err = p.handleExit()
		case stateExitCode:
			err = p.handleExitCode()
		case stateExitWith:
			err = p.handleExitWith()
		case stateDone:
			return &p.spec, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) handleRun() error {
	for {
		tok, ok, err := p.next()
		if err != nil {
			return err
		}
		if !ok {
			return &MissingKeywordError{Expected: []string{"RUN"}}
		}
		if tok.Kind == lexer.Comment {
			continue
		}
		if !tok.Is(lexer.Keyword, "RUN") {
			return &WrongTokenError{Expected: []string{"RUN"}, ExpectedKind: lexer.Keyword, Got: tok}
		}
		p.state = stateWith
		return nil
	}
}

func (p *Parser) handleInput() error {
	kw, err := p.keyword("EMPTY", "INPUT")
	if err != nil {
		return err
	}
	if kw == "EMPTY" {
		p.state = stateEmptyInput
	} else {
		p.state = stateTextInput
	}
	return nil
}

func (p *Parser) handleTextInput() error {
	text, err := p.text()
	if err != nil {
		return err
	}
	p.spec.Input = text
	p.state = stateExpectOrFinish
	return nil
}

func (p *Parser) handleExpectOrFinish() error {
	tok, ok, err := p.next()
	if err != nil {
		return err
	}
	if !ok {
		p.state = stateDone
		return nil
	}
	if !tok.Is(lexer.Keyword, "EXPECT") {
		return &WrongTokenError{Expected: []string{"EXPECT"}, ExpectedKind: lexer.Keyword, Got: tok}
	}
	p.state = stateExpect
	return nil
}

func (p *Parser) handleExpect() error {
	kw, err := p.keyword("OUTPUT", "EMPTY", "IN", "EXIT")
	if err != nil {
		return err
	}
	switch kw {
	case "OUTPUT":
		p.state = stateOutputText
	case "EMPTY":
		p.state = stateEmptyOutput
	case "IN":
		p.state = stateInOutput
	case "EXIT":
		p.state = stateExit
	}
	return nil
}

func (p *Parser) handleOutputText() error {
	text, err := p.text()
	if err != nil {
		return err
	}
	p.add(expectation.FullOutput{Text: text})
	return nil
}

func (p *Parser) handleEmptyOutput() error {
	if _, err := p.keyword("OUTPUT"); err != nil {
		return err
	}
	p.add(expectation.EmptyOutput{})
	return nil
}

func (p *Parser) handlePartialOutputText() error {
	text, err := p.text()
	if err != nil {
		return err
	}
	p.add(expectation.PartialOutput{Text: text})
	return nil
}

func (p *Parser) handleExit() error {
	kw, err := p.keyword("CODE", "WITH")
	if err != nil {
		return err
	}
	if kw == "CODE" {
		p.state = stateExitCode
	} else {
		p.state = stateExitWith
	}
	return nil
}

func (p *Parser) handleExitCode() error {
	tok, ok, err := p.next()
	if err != nil {
		return err
	}
	if !ok {
		return &MissingIntegerError{}
	}
	if tok.Kind != lexer.Integer {
		return &WrongTokenError{ExpectedKind: lexer.Integer, Got: tok}
	}
	code, err := strconv.Atoi(string(tok.Value))
	if err != nil {
		return &ExitCodeRangeError{Literal: string(tok.Value), Err: err}
	}
	p.add(expectation.ExitCode{Code: code})
	return nil
}

func (p *Parser) handleExitWith() error {
	tok, ok, err := p.next()
	if err != nil {
		return err
	}
	if !ok {
		return &MissingTextError{}
	}
	switch {
	case tok.Is(lexer.Text, "SUCCESS"):
		p.add(expectation.SuccessfulExit{})
	case tok.Is(lexer.Text, "FAILURE"):
		p.add(expectation.FailureExit{})
	default:
		return &WrongTokenError{Expected: []string{"SUCCESS", "FAILURE"}, ExpectedKind: lexer.Text, Got: tok}
	}
	return nil
}

// add appends e and goes back to waiting for the next EXPECT.
func (p *Parser) add(e expectation.Expectation) {
	p.spec.Expectations = append(p.spec.Expectations, e)
	p.state = stateExpectOrFinish
}

// keywordTransition requires the keyword want and then moves to next.
func (p *Parser) keywordTransition(next state, want string) error {
	if _, err := p.keyword(want); err != nil {
		return err
	}
	p.state = next
	return nil
}

// keyword reads a token that must be one of the given keywords.
func (p *Parser) keyword(accepted ...string) (string, error) {
	tok, ok, err := p.next()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &MissingKeywordError{Expected: accepted}
	}
	if tok.Kind == lexer.Keyword {
		for _, kw := range accepted {
			if string(tok.Value) == kw {
				return kw, nil
			}
		}
	}
	return "", &WrongTokenError{Expected: accepted, ExpectedKind: lexer.Keyword, Got: tok}
}

// text reads a free-text token.
func (p *Parser) text() ([]byte, error) {
	tok, ok, err := p.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingTextError{}
	}
	switch tok.Kind {
	case lexer.Text:
		return tok.Value, nil
	case lexer.Keyword:
		return nil, &UnexpectedKeywordError{Keyword: string(tok.Value)}
	}
	return nil, &WrongTokenError{ExpectedKind: lexer.Text, Got: tok}
}

// next returns the next token; ok is false once the source is exhausted.
func (p *Parser) next() (tok lexer.Token, ok bool, err error) {
	tok, err = p.src.Next()
	if errors.Is(err, io.EOF) {
		return lexer.Token{}, false, nil
	}
	if err != nil {
		return lexer.Token{}, false, err
	}
	return tok, true, nil
}
