package exec

import (
	"bytes"
	"context"
	"io"
	"os"
	osexec "os/exec"
	"time"
)

// Command is the concrete implementation of the Executor interface.
// It provides command execution with configurable settings.
type Command struct {
	config *config

	baseCtx     context.Context
	baseTimeout string

	ctx     context.Context
	timeout string
	stdin   io.Reader
}

// New creates a new Command with the given options.
// Options set global defaults that can be overridden by local settings.
func New(opts ...Option) *Command {
	cmd := &Command{
		config:  newConfig(),
		baseCtx: context.Background(),
	}

	for _, opt := range opts {
		opt(cmd)
	}

	return cmd
}

// WithEnv sets environment variables for the command.
func (c *Command) WithEnv(env map[string]string) Executor {
	for k, v := range env {
		c.config.localEnv[k] = v
	}
	return c
}

// WithDir sets the working directory for the command.
func (c *Command) WithDir(dir string) Executor {
	c.config.localDir = dir
	return c
}

// WithContext sets the context for the command.
func (c *Command) WithContext(ctx context.Context) Executor {
	c.ctx = ctx
	return c
}

// WithDisableColors disables color output.
func (c *Command) WithDisableColors() Executor {
	val := true
	c.config.localDisableColors = &val
	return c
}

// WithTimeout sets a timeout for the command.
func (c *Command) WithTimeout(timeout string) Executor {
	c.timeout = timeout
	return c
}

// WithInheritEnv enables environment inheritance.
func (c *Command) WithInheritEnv() Executor {
	val := true
	c.config.localInheritEnv = &val
	return c
}

// WithStdin sets the reader for standard input.
func (c *Command) WithStdin(r io.Reader) Executor {
	c.stdin = r
	return c
}

// Run executes the command with the given arguments.
func (c *Command) Run(args ...string) (*Result, error) {
	defer c.reset()

	if len(args) == 0 {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: osexec.ErrNotFound}
	}

	ctx, cancel, err := c.context()
	if err != nil {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: err}
	}
	defer cancel()

	cmd := c.build(ctx, args)
	cmd.Stdin = c.stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd),
	}

	if err != nil {
		return result, &ExecError{
			Command:  args,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// Start launches the command with the given arguments and returns without
// waiting for it to exit.
func (c *Command) Start(args ...string) (Process, error) {
	defer c.reset()

	if len(args) == 0 {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: osexec.ErrNotFound}
	}

	ctx, cancel, err := c.context()
	if err != nil {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: err}
	}

	cmd := c.build(ctx, args)
	p := &process{cmd: cmd, cancel: cancel}

	fail := func(err error) (Process, error) {
		cancel()
		return nil, &ExecError{Command: args, ExitCode: -1, Err: err}
	}

	if c.stdin != nil {
		cmd.Stdin = c.stdin
	} else if p.stdin, err = cmd.StdinPipe(); err != nil {
		return fail(err)
	}
	if p.stdout, err = cmd.StdoutPipe(); err != nil {
		return fail(err)
	}
	if p.stderr, err = cmd.StderrPipe(); err != nil {
		return fail(err)
	}
	if err := cmd.Start(); err != nil {
		return fail(err)
	}

	return p, nil
}

// Clone creates a copy of the executor with the same configuration.
func (c *Command) Clone() Executor {
	return &Command{
		config:      c.config.clone(),
		baseCtx:     c.baseCtx,
		baseTimeout: c.baseTimeout,
		ctx:         c.ctx,
		timeout:     c.timeout,
		stdin:       c.stdin,
	}
}

// context resolves the effective context, applying the local or global
// timeout.
func (c *Command) context() (context.Context, context.CancelFunc, error) {
	ctx := c.baseCtx
	if c.ctx != nil {
		ctx = c.ctx
	}

	timeout := c.baseTimeout
	if c.timeout != "" {
		timeout = c.timeout
	}
	if timeout == "" {
		return ctx, func() {}, nil
	}

	duration, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, duration)
	return ctx, cancel, nil
}

// waitDelay is how long a canceled command may hold its I/O open.
const waitDelay = 500 * time.Millisecond

func (c *Command) build(ctx context.Context, args []string) *osexec.Cmd {
	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	// Bounds how long Wait blocks on pipes held open by orphaned children
	// once ctx is done.
	cmd.WaitDelay = waitDelay

	if dir := c.config.effectiveDir(); dir != "" {
		cmd.Dir = dir
	}

	if c.config.effectiveInheritEnv() {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, c.config.environ()...)

	return cmd
}

func (c *Command) reset() {
	c.config.resetLocal()
	c.ctx = nil
	c.timeout = ""
	c.stdin = nil
}

func exitCode(cmd *osexec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// process adapts a started *osexec.Cmd to the Process interface.
type process struct {
	cmd    *osexec.Cmd
	cancel context.CancelFunc
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
	code   int
	waited bool
}

func (p *process) Args() []string        { return p.cmd.Args }
func (p *process) Stdin() io.WriteCloser { return p.stdin }
func (p *process) Stdout() io.Reader     { return p.stdout }
func (p *process) Stderr() io.Reader     { return p.stderr }

func (p *process) ExitCode() int {
	if !p.waited {
		return -1
	}
	return p.code
}

func (p *process) Wait() error {
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	err := p.cmd.Wait()
	p.cancel()
	p.waited = true
	p.code = exitCode(p.cmd)

	if err != nil {
		return &ExecError{Command: p.cmd.Args, ExitCode: p.code, Err: err}
	}
	return nil
}
