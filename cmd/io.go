package cmd

import (
	"context"
	"os"
	"time"

	"github.com/omtt/omtt-go/internal/process"
	"github.com/omtt/omtt-go/internal/system"
)

// RunIO is the filesystem and process access of the root command.
type RunIO interface {
	ReadConfig(path string) ([]byte, error)
	CollectScripts(paths []string) ([]string, error)
	ReadScript(path string) ([]byte, error)
	RunSUT(ctx context.Context, cmd process.Command, input []byte, pollTimeout time.Duration) (process.Results, error)
}

// fileRunIO implements RunIO with the OS.
type fileRunIO struct{}

func newDefaultRunIO() *fileRunIO {
	return &fileRunIO{}
}

func (f *fileRunIO) ReadConfig(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *fileRunIO) CollectScripts(paths []string) ([]string, error) {
	return CollectScriptsImpl(paths)
}

func (f *fileRunIO) ReadScript(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *fileRunIO) RunSUT(ctx context.Context, cmd process.Command, input []byte, pollTimeout time.Duration) (process.Results, error) {
	return RunSUTImpl(ctx, cmd, input, pollTimeout)
}

// RunSUTImpl executes cmd with the real OS facade. It is an Impl function:
// it spawns processes and is excluded from unit test coverage calculations.
func RunSUTImpl(ctx context.Context, cmd process.Command, input []byte, pollTimeout time.Duration) (process.Results, error) {
	r := process.New(system.New())
	r.PollTimeout = pollTimeout
	return r.Run(ctx, cmd, input)
}
