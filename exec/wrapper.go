package exec

import (
	"context"
	"io"
)

// CommandWrapper wraps an Executor to provide a command-specific interface.
// It prepends a command name to all Run() and Start() calls, making it
// convenient for tools that are called frequently with different arguments
// (e.g., git). CommandWrapper implements the Executor interface.
type CommandWrapper struct {
	executor Executor
	cmd      string
}

// NewWrapper creates a new CommandWrapper that prepends the given command to
// all Run() and Start() calls. The executor can be any implementation of the
// Executor interface, including fakes for testing.
func NewWrapper(executor Executor, cmd string) *CommandWrapper {
	return &CommandWrapper{
		executor: executor,
		cmd:      cmd,
	}
}

// Program returns the wrapped command name.
func (w *CommandWrapper) Program() string {
	return w.cmd
}

// WithEnv sets environment variables for the command.
func (w *CommandWrapper) WithEnv(env map[string]string) Executor {
	w.executor = w.executor.WithEnv(env)
	return w
}

// WithDir sets the working directory for the command.
func (w *CommandWrapper) WithDir(dir string) Executor {
	w.executor = w.executor.WithDir(dir)
	return w
}

// WithContext sets the context for the command.
func (w *CommandWrapper) WithContext(ctx context.Context) Executor {
	w.executor = w.executor.WithContext(ctx)
	return w
}

// WithDisableColors disables color output.
func (w *CommandWrapper) WithDisableColors() Executor {
	w.executor = w.executor.WithDisableColors()
	return w
}

// WithTimeout sets a timeout for the command.
func (w *CommandWrapper) WithTimeout(timeout string) Executor {
	w.executor = w.executor.WithTimeout(timeout)
	return w
}

// WithInheritEnv enables environment inheritance.
func (w *CommandWrapper) WithInheritEnv() Executor {
	w.executor = w.executor.WithInheritEnv()
	return w
}

// WithStdin sets the reader for standard input.
func (w *CommandWrapper) WithStdin(r io.Reader) Executor {
	w.executor = w.executor.WithStdin(r)
	return w
}

// Run executes the wrapped command with the given arguments.
func (w *CommandWrapper) Run(args ...string) (*Result, error) {
	return w.executor.Run(w.fullArgs(args)...)
}

// Start launches the wrapped command with the given arguments.
func (w *CommandWrapper) Start(args ...string) (Process, error) {
	return w.executor.Start(w.fullArgs(args)...)
}

// Clone creates a copy of the wrapper with the same configuration.
func (w *CommandWrapper) Clone() Executor {
	return &CommandWrapper{
		executor: w.executor.Clone(),
		cmd:      w.cmd,
	}
}

func (w *CommandWrapper) fullArgs(args []string) []string {
	full := make([]string, 0, 1+len(args))
	full = append(full, w.cmd)
	return append(full, args...)
}
