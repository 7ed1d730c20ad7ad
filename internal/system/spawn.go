package system

import (
	"errors"
	"os"
	"strings"
)

const (
	// SpawnChildEnv marks a process started as a spawn trampoline.
	SpawnChildEnv = "OMTT_SPAWN_CHILD"
	// SpawnFailureStatus is the exit status of a trampoline whose exec failed.
	SpawnFailureStatus = 127
	// SpawnErrorFD is the child descriptor of the internal error pipe.
	SpawnErrorFD = 3
)

// IsSpawnChild reports whether the running binary was started as a spawn
// trampoline. Callers must check it before any other startup work.
func IsSpawnChild() bool {
	return os.Getenv(SpawnChildEnv) == "1"
}

// TrampolineArgs builds the argument vector that makes the trampoline exec
// path with argv.
func TrampolineArgs(self, path string, argv []string) []string {
	args := make([]string, 0, len(argv)+2)
	args = append(args, self, path)
	return append(args, argv...)
}

// TrampolineEnv returns env with the trampoline marker appended.
func TrampolineEnv(env []string) []string {
	out := make([]string, 0, len(env)+1)
	out = append(out, ChildEnv(env)...)
	return append(out, SpawnChildEnv+"=1")
}

// ChildEnv returns env without the trampoline marker.
func ChildEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, SpawnChildEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// RunSpawnChild is the trampoline body. args is the program path followed
// by its argument vector. The error pipe on SpawnErrorFD is marked
// close-on-exec, so a successful exec closes it silently. On failure the
// error message is written to it and the process exits with
// SpawnFailureStatus.
func RunSpawnChild(sys Syscalls, args []string, env []string) {
	err := execTarget(sys, args, env)
	_, _ = sys.Write(SpawnErrorFD, []byte(err.Error()))
	sys.Exit(SpawnFailureStatus)
}

func execTarget(sys Syscalls, args []string, env []string) error {
	if len(args) < 2 {
		return errors.New("spawn: missing program")
	}
	if err := sys.CloseOnExec(SpawnErrorFD); err != nil {
		return err
	}
	return sys.Exec(args[0], args[1:], ChildEnv(env))
}
