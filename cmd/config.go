package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/omtt/omtt-go/internal/process"
	"github.com/omtt/omtt-go/internal/report"
)

// Config holds the settings of one run. It can be loaded from a YAML or TOML
// file; flags set on the command line take precedence.
type Config struct {
	SUT         string   `yaml:"sut" toml:"sut"`
	Interpreter string   `yaml:"interpreter" toml:"interpreter"`
	SUTArgs     []string `yaml:"sut_args" toml:"sut_args"`
	PollTimeout string   `yaml:"poll_timeout" toml:"poll_timeout"`
	LogLevel    string   `yaml:"log_level" toml:"log_level"`
	LogFormat   string   `yaml:"log_format" toml:"log_format"`
	Color       string   `yaml:"color" toml:"color"`
}

// DefaultConfig returns the settings used when neither a file nor a flag
// provides a value.
func DefaultConfig() Config {
	return Config{
		PollTimeout: process.DefaultPollTimeout.String(),
		LogLevel:    "warn",
		LogFormat:   "text",
		Color:       string(report.ColorAuto),
	}
}

// decodeConfig overlays the file contents in data onto cfg. The format is
// chosen by the extension of path. Unknown keys are rejected.
func decodeConfig(path string, data []byte, cfg *Config) error {
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .toml)", ext)
	}
	return nil
}

// applyFlags copies every flag set on the command line into cfg.
func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "sut":
			cfg.SUT = f.Value.String()
		case "interpreter":
			cfg.Interpreter = f.Value.String()
		case "sut-arg":
			cfg.SUTArgs, err = fs.GetStringArray("sut-arg")
		case "poll-timeout":
			var d time.Duration
			d, err = fs.GetDuration("poll-timeout")
			cfg.PollTimeout = d.String()
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "log-format":
			cfg.LogFormat = f.Value.String()
		case "color":
			cfg.Color = f.Value.String()
		}
	})
	return err
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.SUT == "" {
		return fmt.Errorf("missing sut")
	}
	d, err := time.ParseDuration(c.PollTimeout)
	if err != nil {
		return fmt.Errorf("invalid poll timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid poll timeout %s: must be positive", c.PollTimeout)
	}
	if d < time.Millisecond {
		return fmt.Errorf("invalid poll timeout %s: must be at least 1ms", c.PollTimeout)
	}
	if _, err := report.ParseColorMode(c.Color); err != nil {
		return err
	}
	if _, err := newLogger(c.LogLevel, c.LogFormat, io.Discard); err != nil {
		return err
	}
	return nil
}

// pollTimeout returns the parsed poll timeout of a validated Config.
func (c Config) pollTimeout() time.Duration {
	d, _ := time.ParseDuration(c.PollTimeout)
	return d
}

// command returns the SUT invocation described by c.
func (c Config) command() process.Command {
	return process.Command{Path: c.SUT, Interpreter: c.Interpreter, Args: c.SUTArgs}
}
