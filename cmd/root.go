// Package cmd implements the omtt CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omtt/omtt-go/internal/ctxlog"
	"github.com/omtt/omtt-go/internal/process"
	"github.com/omtt/omtt-go/internal/report"
)

// NewRootCmd creates the root omtt command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newDefaultRunIO(), newDefaultParseIO())
}

func newRootCmd(runIO RunIO, parseIO ParseIO) *cobra.Command {
	root := &cobra.Command{
		Use:   "omtt [flags] --sut SUT_PATH TEST_FILE|DIR...",
		Short: "omtt - output matching test tool",
		Long: `omtt runs a program under test once per test script, feeds it the
script's input and checks its output and exit code against the script's
expectations. Directories are searched recursively for *.omtt files.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, runIO, args)
		},
	}

	f := root.Flags()
	f.String("sut", "", "path to the system under test")
	f.String("interpreter", "", "program that runs the SUT, e.g. python3")
	f.StringArray("sut-arg", nil, "argument passed to the SUT (repeatable)")
	f.String("config", "", "YAML or TOML file with default settings")
	f.Duration("poll-timeout", process.DefaultPollTimeout, "upper bound of one wait for SUT activity")
	f.String("log-level", "warn", "diagnostic log level: debug, info, warn or error")
	f.String("log-format", "text", "diagnostic log format: text or json")
	f.String("color", string(report.ColorAuto), "colour verdicts: auto, always or never")

	root.AddCommand(NewParseCmd(parseIO))
	return root
}

func runRoot(cmd *cobra.Command, runIO RunIO, args []string) error {
	cfg, err := resolveConfig(cmd, runIO)
	if err != nil {
		return usageError("fatal error: %v", err)
	}
	if len(args) == 0 {
		return usageError("fatal error: missing test file path")
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return usageError("fatal error: %v", err)
	}
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	scripts, err := runIO.CollectScripts(args)
	if err != nil {
		return fatalError(fmt.Errorf("collecting test files: %w", err))
	}
	logger.Debug("collected test files", "count", len(scripts))

	mode, _ := report.ParseColorMode(cfg.Color)
	s := &suite{
		io:          runIO,
		reporter:    report.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode.Enabled(cmd.OutOrStdout())),
		command:     cfg.command(),
		pollTimeout: cfg.pollTimeout(),
	}
	st, err := s.run(ctx, scripts)
	if err != nil {
		return fatalError(err)
	}
	if code := st.exitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// resolveConfig merges defaults, the optional config file and the flags set
// on the command line, in increasing precedence.
func resolveConfig(cmd *cobra.Command, runIO RunIO) (Config, error) {
	cfg := DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		data, err := runIO.ReadConfig(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := decodeConfig(path, data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyFlags(cmd.Flags(), &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
