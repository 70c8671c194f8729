package launch

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Execer runs external commands. The runner depends on this interface so
// tests can stub subprocess behavior.
type Execer interface {
	// Run executes the command wired to this process's stdout/stderr,
	// blocking until it exits. extraEnv entries are appended to the
	// inherited environment.
	Run(ctx context.Context, extraEnv []string, name string, args ...string) error
	// Output executes the command and captures its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SystemExecer executes commands on the host.
type SystemExecer struct{}

func (SystemExecer) Run(ctx context.Context, extraEnv []string, name string, args ...string) error {
	slog.Info("running command", "cmd", name+" "+strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extraEnv...)
	return cmd.Run()
}

func (SystemExecer) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	slog.Info("running command", "cmd", name+" "+strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}
