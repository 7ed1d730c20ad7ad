package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omtt/omtt-go/internal/expectation"
	"github.com/omtt/omtt-go/internal/parser"
	"github.com/omtt/omtt-go/internal/textutil"
)

// ParseIO reads the test script for the parse command.
type ParseIO interface {
	ReadScript(ctx context.Context, path string) ([]byte, error)
}

// parseOutput is the JSON output schema for the parse command.
type parseOutput struct {
	Version      string            `json:"version"`
	Input        *string           `json:"input"`
	Expectations []expectationJSON `json:"expectations"`
	Diagnostics  []diagnosticJSON  `json:"diagnostics"`
}

// expectationJSON is one expectation. Text and Code are set only for the
// kinds that carry them.
type expectationJSON struct {
	Kind string  `json:"kind"`
	Text *string `json:"text,omitempty"`
	Code *int    `json:"code,omitempty"`
}

type diagnosticJSON struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// NewParseCmd creates the parse subcommand.
func NewParseCmd(io ParseIO) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "parse <test-file>",
		Short:        "Parse a test script and output JSON",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := io.ReadScript(cmd.Context(), args[0])
			if err != nil {
				return fatalError(fmt.Errorf("reading test file: %w", err))
			}

			out := parseOutput{Version: "1", Expectations: []expectationJSON{}, Diagnostics: []diagnosticJSON{}}
			spec, parseErr := parser.ParseScript(textutil.NormalizeLineEndings(buf))
			if parseErr != nil {
				out.Diagnostics = append(out.Diagnostics, diagnosticJSON{Severity: "error", Message: parseErr.Error()})
			} else {
				input := string(spec.Input)
				out.Input = &input
				for _, e := range spec.Expectations {
					out.Expectations = append(out.Expectations, toExpectationJSON(e))
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fatalError(fmt.Errorf("encoding output: %w", err))
			}
			if parseErr != nil {
				return &ExitError{Code: ExitFatal}
			}
			return nil
		},
	}
	return cmd
}

func toExpectationJSON(e expectation.Expectation) expectationJSON {
	out := expectationJSON{Kind: expectation.Kind(e)}
	switch e := e.(type) {
	case expectation.FullOutput:
		text := string(e.Text)
		out.Text = &text
	case expectation.PartialOutput:
		text := string(e.Text)
		out.Text = &text
	case expectation.ExitCode:
		code := e.Code
		out.Code = &code
	}
	return out
}

// fileParseIO implements ParseIO using OS file I/O.
type fileParseIO struct{}

func newDefaultParseIO() *fileParseIO {
	return &fileParseIO{}
}

func (f *fileParseIO) ReadScript(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}
