package exec

import (
	"context"
	"io"
)

//go:generate go run github.com/matryer/moq@latest -out mocks/executor.go -pkg mocks . Executor Process

// Executor is the main interface for executing commands.
// It provides a fluent API for configuring and running commands.
type Executor interface {
	// WithEnv sets environment variables for the command.
	// These are local settings that override any global environment variables.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the command.
	// This is a local setting that overrides any global working directory.
	WithDir(dir string) Executor

	// WithContext sets the context for the command.
	// The process is killed if the context is canceled before it exits.
	WithContext(ctx context.Context) Executor

	// WithDisableColors disables color output by setting common environment variables.
	WithDisableColors() Executor

	// WithTimeout sets a timeout for the command execution, e.g. "30s".
	WithTimeout(timeout string) Executor

	// WithInheritEnv inherits environment variables from the parent process.
	WithInheritEnv() Executor

	// WithStdin feeds r to the command's standard input.
	WithStdin(r io.Reader) Executor

	// Run executes the command with the given arguments and waits for it to
	// exit. It returns a Result containing the captured output and exit code.
	Run(args ...string) (*Result, error)

	// Start launches the command without waiting. The caller reads the
	// returned Process's pipes and must call Wait exactly once.
	Start(args ...string) (Process, error)

	// Clone creates a copy of the executor with the same configuration.
	Clone() Executor
}

// Process is a started command whose output is streamed by the caller.
//
// Stdout and Stderr must both be read to EOF before Wait is called, or the
// unread tail is discarded once the process exits.
type Process interface {
	// Args returns the full argument list, program first.
	Args() []string

	// Stdin returns the write side of the process's standard input, or nil if
	// the input was supplied with WithStdin.
	Stdin() io.WriteCloser

	// Stdout returns the read side of the process's standard output.
	Stdout() io.Reader

	// Stderr returns the read side of the process's standard error.
	Stderr() io.Reader

	// Wait waits for the process to exit and releases its resources. A
	// non-zero exit is reported as an *ExecError.
	Wait() error

	// ExitCode returns the exit code once Wait has returned, -1 before that
	// or when the process was killed by a signal.
	ExitCode() int
}

// Result represents the result of a command execution.
type Result struct {
	// Stdout is the captured standard output
	Stdout string

	// Stderr is the captured standard error
	Stderr string

	// ExitCode is the exit code returned by the command
	ExitCode int
}

// Option is a function that configures a Command with global settings.
// These settings are applied at creation time and can be overridden by local settings.
type Option func(*Command)

// WithEnv returns an Option that sets global environment variables.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		for k, v := range env {
			c.config.globalEnv[k] = v
		}
	}
}

// WithDir returns an Option that sets the global working directory.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.config.globalDir = dir
	}
}

// WithContext returns an Option that sets the global context.
func WithContext(ctx context.Context) Option {
	return func(c *Command) {
		c.baseCtx = ctx
	}
}

// WithDisableColors returns an Option that globally disables color output.
func WithDisableColors() Option {
	return func(c *Command) {
		c.config.globalDisableColors = true
	}
}

// WithTimeout returns an Option that sets a global timeout.
func WithTimeout(timeout string) Option {
	return func(c *Command) {
		c.baseTimeout = timeout
	}
}

// WithInheritEnv returns an Option that globally enables environment inheritance.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.config.globalInheritEnv = true
	}
}
