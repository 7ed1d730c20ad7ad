package cmd

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestDecodeConfig_YAML(t *testing.T) {
	data := []byte("sut: ./sut.py\ninterpreter: python3\nsut_args: [-v, --strict]\npoll_timeout: 20ms\nlog_level: debug\n")
	cfg := DefaultConfig()

	if err := decodeConfig("omtt.yaml", data, &cfg); err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	want := Config{
		SUT:         "./sut.py",
		Interpreter: "python3",
		SUTArgs:     []string{"-v", "--strict"},
		PollTimeout: "20ms",
		LogLevel:    "debug",
		LogFormat:   "text",
		Color:       "auto",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfig_TOML(t *testing.T) {
	data := []byte("sut = \"/usr/bin/sut\"\nsut_args = [\"a b\"]\ncolor = \"never\"\nlog_format = \"json\"\n")
	cfg := DefaultConfig()

	if err := decodeConfig("omtt.toml", data, &cfg); err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	want := Config{
		SUT:         "/usr/bin/sut",
		SUTArgs:     []string{"a b"},
		PollTimeout: "50ms",
		LogLevel:    "warn",
		LogFormat:   "json",
		Color:       "never",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfig_EmptyYAMLKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := decodeConfig("omtt.yml", nil, &cfg); err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		data    string
		wantErr string
	}{
		{"unknown yaml key", "c.yaml", "suts: x\n", "parsing c.yaml"},
		{"unknown toml key", "c.toml", "suts = \"x\"\n", "parsing c.toml"},
		{"malformed toml", "c.toml", "sut = \n", "parsing c.toml"},
		{"extension", "c.json", "{}", `unsupported config file extension ".json"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := decodeConfig(tt.path, []byte(tt.data), &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	root := NewRootCmd()
	if err := root.ParseFlags([]string{"--interpreter", "sh", "--sut-arg", "x,y", "--poll-timeout", "1s"}); err != nil {
		t.Fatal(err)
	}
	cfg := Config{SUT: "from-file", LogLevel: "debug", PollTimeout: "5ms"}

	if err := applyFlags(root.Flags(), &cfg); err != nil {
		t.Fatalf("applyFlags() error = %v", err)
	}

	want := Config{SUT: "from-file", Interpreter: "sh", SUTArgs: []string{"x,y"}, LogLevel: "debug", PollTimeout: "1s"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFlags_NothingChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("sut", "default", "")
	cfg := Config{SUT: "kept"}

	if err := applyFlags(fs, &cfg); err != nil {
		t.Fatalf("applyFlags() error = %v", err)
	}
	if cfg.SUT != "kept" {
		t.Errorf("got %q, want %q", cfg.SUT, "kept")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.SUT = "/bin/cat"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing sut", func(c *Config) { c.SUT = "" }, "missing sut"},
		{"bad timeout", func(c *Config) { c.PollTimeout = "soon" }, "invalid poll timeout"},
		{"zero timeout", func(c *Config) { c.PollTimeout = "0s" }, "must be positive"},
		{"sub-millisecond timeout", func(c *Config) { c.PollTimeout = "500us" }, "at least 1ms"},
		{"bad color", func(c *Config) { c.Color = "blue" }, "invalid color mode"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	io := newMockRunIO()
	io.configs["omtt.yaml"] = []byte("sut: /bin/false\nlog_level: info\n")
	io.scripts["a.omtt"] = []byte("RUN WITH EMPTY INPUT")
	io.outcomes = []runOutcome{{}}

	code, _, stderr := runCmd(t, io, "--config", "omtt.yaml", "--sut", "/bin/true", "a.omtt")

	if code != 0 {
		t.Fatalf("exit code: got %d, want 0 (stderr %q)", code, stderr)
	}
	if got := io.calls[0].cmd.Path; got != "/bin/true" {
		t.Errorf("SUT: got %q, want %q", got, "/bin/true")
	}
}

func TestResolveConfig_SutFromFile(t *testing.T) {
	io := newMockRunIO()
	io.configs["omtt.toml"] = []byte("sut = \"/bin/false\"\npoll_timeout = \"5ms\"\n")
	io.scripts["a.omtt"] = []byte("RUN WITH EMPTY INPUT")
	io.outcomes = []runOutcome{{}}

	code, _, _ := runCmd(t, io, "--config", "omtt.toml", "a.omtt")

	if code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	if got := io.calls[0].cmd.Path; got != "/bin/false" {
		t.Errorf("SUT: got %q, want %q", got, "/bin/false")
	}
	if got := io.calls[0].pollTimeout.String(); got != "5ms" {
		t.Errorf("poll timeout: got %q, want 5ms", got)
	}
}

func TestResolveConfig_MissingFile(t *testing.T) {
	code, _, stderr := runCmd(t, newMockRunIO(), "--config", "nope.yaml", "a.omtt")

	if code != ExitInvalidUsage {
		t.Errorf("exit code: got %d, want %d", code, ExitInvalidUsage)
	}
	if !strings.HasPrefix(stderr, "fatal error: reading config:") {
		t.Errorf("stderr: got %q", stderr)
	}
}
