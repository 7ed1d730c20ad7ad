package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/omtt/omtt-go/internal/process"
)

// runOutcome is the scripted result of one RunSUT call.
type runOutcome struct {
	results process.Results
	err     error
}

// runCall records one RunSUT call.
type runCall struct {
	cmd         process.Command
	input       string
	pollTimeout time.Duration
}

// mockRunIO is a test double for RunIO.
type mockRunIO struct {
	configs    map[string][]byte
	scripts    map[string][]byte
	collected  []string // returned by CollectScripts when set
	collectErr error
	outcomes   []runOutcome
	calls      []runCall
}

func newMockRunIO() *mockRunIO {
	return &mockRunIO{
		configs: make(map[string][]byte),
		scripts: make(map[string][]byte),
	}
}

func (m *mockRunIO) ReadConfig(path string) ([]byte, error) {
	data, ok := m.configs[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *mockRunIO) CollectScripts(paths []string) ([]string, error) {
	if m.collectErr != nil {
		return nil, m.collectErr
	}
	if m.collected != nil {
		return m.collected, nil
	}
	return paths, nil
}

func (m *mockRunIO) ReadScript(path string) ([]byte, error) {
	data, ok := m.scripts[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *mockRunIO) RunSUT(_ context.Context, cmd process.Command, input []byte, pollTimeout time.Duration) (process.Results, error) {
	m.calls = append(m.calls, runCall{cmd: cmd, input: string(input), pollTimeout: pollTimeout})
	if len(m.outcomes) == 0 {
		return process.Results{}, errors.New("mockRunIO: no scripted outcome")
	}
	o := m.outcomes[0]
	m.outcomes = m.outcomes[1:]
	return o.results, o.err
}

// mockParseIO is a test double for ParseIO.
type mockParseIO struct {
	script []byte
	err    error
}

func (m *mockParseIO) ReadScript(_ context.Context, _ string) ([]byte, error) {
	return m.script, m.err
}
