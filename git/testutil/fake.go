package testutil

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jmgilman/gitcli/exec"
)

// Response scripts one git invocation.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Chunk limits how many bytes each read of stdout and stderr returns.
	// Zero delivers everything at once.
	Chunk int

	// Hang keeps stdout and stderr open after their content until the
	// command's context is canceled, like a process waiting on the network.
	Hang bool
}

// Call records one invocation seen by a FakeExecutor.
type Call struct {
	// Args is the full argument list, program first.
	Args []string

	// Subcommand is the first argument after the global flags.
	Subcommand string

	Dir   string
	Env   map[string]string
	Stdin string
}

// Has reports whether arg appears among the call's arguments.
func (c Call) Has(arg string) bool {
	return slices.Contains(c.Args, arg)
}

type fakeState struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []Call
}

// FakeExecutor is an exec.Executor that answers git invocations from a
// script instead of starting processes. Responses are keyed by subcommand;
// each subcommand's queue is consumed in order and the last response
// repeats. Clones share the script and the call log.
//
// Example:
//
//	fake := testutil.NewFakeExecutor().
//	    On("rev-parse", testutil.Response{Stdout: details}).
//	    On("status", testutil.Response{Stdout: porcelain})
//	repo, err := git.Open(ctx, "/repo", git.WithExecutor(fake))
type FakeExecutor struct {
	state *fakeState
	ctx   context.Context
	dir   string
	env   map[string]string
	stdin io.Reader
}

// NewFakeExecutor returns an executor with an empty script. Unscripted
// subcommands exit 127.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		state: &fakeState{responses: map[string][]Response{}},
		env:   map[string]string{},
	}
}

// On appends responses for subcommand.
func (f *FakeExecutor) On(subcommand string, responses ...Response) *FakeExecutor {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	f.state.responses[subcommand] = append(f.state.responses[subcommand], responses...)
	return f
}

// Calls returns every recorded invocation in order.
func (f *FakeExecutor) Calls() []Call {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	return slices.Clone(f.state.calls)
}

// LastCall returns the most recent invocation of subcommand.
func (f *FakeExecutor) LastCall(subcommand string) (Call, bool) {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	for i := len(f.state.calls) - 1; i >= 0; i-- {
		if f.state.calls[i].Subcommand == subcommand {
			return f.state.calls[i], true
		}
	}
	return Call{}, false
}

func (f *FakeExecutor) WithEnv(env map[string]string) exec.Executor {
	maps.Copy(f.env, env)
	return f
}

func (f *FakeExecutor) WithDir(dir string) exec.Executor {
	f.dir = dir
	return f
}

func (f *FakeExecutor) WithContext(ctx context.Context) exec.Executor {
	f.ctx = ctx
	return f
}

func (f *FakeExecutor) WithDisableColors() exec.Executor { return f }

func (f *FakeExecutor) WithTimeout(string) exec.Executor { return f }

func (f *FakeExecutor) WithInheritEnv() exec.Executor { return f }

func (f *FakeExecutor) WithStdin(r io.Reader) exec.Executor {
	f.stdin = r
	return f
}

func (f *FakeExecutor) Clone() exec.Executor {
	return &FakeExecutor{
		state: f.state,
		ctx:   f.ctx,
		dir:   f.dir,
		env:   maps.Clone(f.env),
		stdin: f.stdin,
	}
}

// Run answers args from the script.
func (f *FakeExecutor) Run(args ...string) (*exec.Result, error) {
	ctx := f.context()
	resp := f.record(args)

	if resp.Hang {
		<-ctx.Done()
		return &exec.Result{ExitCode: -1}, &exec.ExecError{Command: args, ExitCode: -1, Err: ctx.Err()}
	}

	res := &exec.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.ExitCode != 0 {
		return res, &exec.ExecError{
			Command:  args,
			ExitCode: resp.ExitCode,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
			Err:      fmt.Errorf("exit status %d", resp.ExitCode),
		}
	}
	return res, nil
}

// Start answers args from the script with a process whose pipes replay the
// response.
func (f *FakeExecutor) Start(args ...string) (exec.Process, error) {
	ctx := f.context()
	resp := f.record(args)

	var hang <-chan struct{}
	if resp.Hang {
		hang = ctx.Done()
	}
	p := &fakeProcess{
		args:   args,
		ctx:    ctx,
		resp:   resp,
		stdout: &scriptedReader{data: []byte(resp.Stdout), chunk: resp.Chunk, hang: hang},
		stderr: &scriptedReader{data: []byte(resp.Stderr), chunk: resp.Chunk, hang: hang},
		code:   -1,
	}
	if f.stdin == nil {
		p.stdin = &discardCloser{}
	}
	return p, nil
}

func (f *FakeExecutor) context() context.Context {
	if f.ctx == nil {
		return context.Background()
	}
	return f.ctx
}

// record logs the call and picks its response.
func (f *FakeExecutor) record(args []string) Response {
	call := Call{
		Args:       slices.Clone(args),
		Subcommand: subcommand(args),
		Dir:        f.dir,
		Env:        maps.Clone(f.env),
	}
	if f.stdin != nil {
		data, _ := io.ReadAll(f.stdin)
		call.Stdin = string(data)
	}

	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	f.state.calls = append(f.state.calls, call)

	queue := f.state.responses[call.Subcommand]
	switch len(queue) {
	case 0:
		return Response{
			Stderr:   fmt.Sprintf("fake: no response scripted for %q\n", call.Subcommand),
			ExitCode: 127,
		}
	case 1:
		return queue[0]
	}
	f.state.responses[call.Subcommand] = queue[1:]
	return queue[0]
}

// subcommand skips the program and the global flags in front of the git
// subcommand.
func subcommand(args []string) string {
	for i := 1; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-c" || arg == "-C":
			i++
		case strings.HasPrefix(arg, "-"):
		default:
			return arg
		}
	}
	return ""
}

type fakeProcess struct {
	args   []string
	ctx    context.Context
	resp   Response
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
	code   int
}

func (p *fakeProcess) Args() []string        { return p.args }
func (p *fakeProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *fakeProcess) Stdout() io.Reader     { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader     { return p.stderr }
func (p *fakeProcess) ExitCode() int         { return p.code }

func (p *fakeProcess) Wait() error {
	if p.resp.Hang {
		<-p.ctx.Done()
		p.code = -1
		return &exec.ExecError{Command: p.args, ExitCode: -1, Err: p.ctx.Err()}
	}
	p.code = p.resp.ExitCode
	if p.code != 0 {
		return &exec.ExecError{Command: p.args, ExitCode: p.code, Err: fmt.Errorf("exit status %d", p.code)}
	}
	return nil
}

// scriptedReader returns data in chunks, then optionally blocks until hang
// is closed before reporting EOF.
type scriptedReader struct {
	data  []byte
	chunk int
	hang  <-chan struct{}
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		if r.hang != nil {
			<-r.hang
			r.hang = nil
		}
		return 0, io.EOF
	}
	n := len(p)
	if r.chunk > 0 && n > r.chunk {
		n = r.chunk
	}
	n = copy(p[:n], r.data)
	r.data = r.data[n:]
	return n, nil
}

type discardCloser struct{}

func (discardCloser) Write(p []byte) (int, error) { return len(p), nil }
func (discardCloser) Close() error                { return nil }
