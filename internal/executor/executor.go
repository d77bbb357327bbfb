package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gubarz/mdslides/internal/config"
)

// ============================================================================
// Shell Runner Interface
// ============================================================================

// ShellRunner defines the interface for shell command execution
type ShellRunner interface {
	RunShell(ctx context.Context, command string) (string, error)
	Transform(ctx context.Context, command string, input []byte) ([]byte, error)
}

// ============================================================================
// Executor
// ============================================================================

// Executor runs shell commands on behalf of extensions
type Executor struct {
	shell string
	env   []string
}

// NewExecutor creates an executor using the configured shell
func NewExecutor() *Executor {
	shell := config.GetShell()
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Executor{
		shell: shell,
		env:   os.Environ(),
	}
}

// WithShell overrides the shell commands are run with
func (e *Executor) WithShell(shell string) *Executor {
	e.shell = shell
	return e
}

// WithEnv adds KEY=value pairs to the command environment
func (e *Executor) WithEnv(vars map[string]string) *Executor {
	for name, value := range vars {
		e.env = append(e.env, name+"="+value)
	}
	return e
}

// Shell returns the configured shell
func (e *Executor) Shell() string {
	return e.shell
}

func (e *Executor) command(ctx context.Context, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Env = e.env
	return cmd
}

// ============================================================================
// Command Execution
// ============================================================================

// RunShell executes a shell command and returns stdout
func (e *Executor) RunShell(ctx context.Context, command string) (string, error) {
	cmd := e.command(ctx, command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("shell error: %w: %s", err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Transform pipes input through a shell command and returns what it wrote
// to stdout and stderr combined
func (e *Executor) Transform(ctx context.Context, command string, input []byte) ([]byte, error) {
	cmd := e.command(ctx, command)
	cmd.Stdin = bytes.NewReader(input)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("transform %q failed: %w", command, err)
	}
	return out, nil
}

// SubstituteVars replaces $name references in s using the given scope
func SubstituteVars(s string, scope map[string]string) string {
	for name, value := range scope {
		s = strings.ReplaceAll(s, "$"+name, value)
	}
	return strings.ReplaceAll(s, "\\$", "$")
}
