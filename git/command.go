package git

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jmgilman/gitcli/exec"
	"github.com/jmgilman/gitcli/internal/buffer"
	platformerrors "github.com/jmgilman/go/errors"
	"golang.org/x/sync/errgroup"
)

// errStop is returned by a stream parser that wants no more records. The
// process is canceled and the error is not reported.
var errStop = errors.New("stop reading")

// flagFamily selects the global flags forced in front of a subcommand.
type flagFamily int

const (
	familyDefault flagFamily = iota

	// familyStatus adds --no-optional-locks so read-only status never
	// refreshes the index behind a concurrent writer.
	familyStatus

	// familyConfig forces nothing, so our own -c entries do not show up in
	// config listings.
	familyConfig
)

var defaultGlobals = []string{"-c", "color.ui=false", "-c", "core.quotepath=false"}

// command is one git invocation.
type command struct {
	args   []string
	family flagFamily
	stdin  io.Reader
	rules  errorTable
	allow  []int
	env    map[string]string
	dir    string

	// soft accepts a failed exit based on its stderr.
	soft func(code int, stderr string) bool
}

func gitCommand(rules errorTable, args ...string) *command {
	return &command{args: args, rules: rules}
}

// name returns the subcommand.
func (c *command) name() string {
	if len(c.args) == 0 {
		return ""
	}
	return c.args[0]
}

// argv returns the arguments passed to the git binary.
func (c *command) argv() []string {
	var out []string
	switch c.family {
	case familyStatus:
		out = append(out, "--no-optional-locks")
		out = append(out, defaultGlobals...)
	case familyDefault:
		out = append(out, defaultGlobals...)
	}
	return append(out, c.args...)
}

// accepts reports whether a non-zero exit is part of the command's normal
// result vocabulary.
func (c *command) accepts(code int, stderr string) bool {
	if slices.Contains(c.allow, code) {
		return true
	}
	return c.soft != nil && c.soft(code, stderr)
}

// runner launches git for one repository location.
type runner struct {
	git     exec.Executor
	dir     string
	env     map[string]string
	logger  *slog.Logger
	pool    *buffer.Pool
	bufSize int
}

// withDir returns a runner that starts git in dir. The buffer pool is
// shared.
func (r *runner) withDir(dir string) *runner {
	c := *r
	c.dir = dir
	return &c
}

func (r *runner) executor(ctx context.Context, c *command) exec.Executor {
	e := r.git.Clone().WithContext(ctx)
	if dir := r.dirFor(c); dir != "" {
		e = e.WithDir(dir)
	}
	env := maps.Clone(r.env)
	if env == nil {
		env = map[string]string{}
	}
	maps.Copy(env, c.env)
	if len(env) > 0 {
		e = e.WithEnv(env)
	}
	if c.stdin != nil {
		e = e.WithStdin(c.stdin)
	}
	return e
}

func (r *runner) dirFor(c *command) string {
	if c.dir != "" {
		return c.dir
	}
	return r.dir
}

func (r *runner) logStart(c *command, args []string) time.Time {
	r.logger.Debug("running git command",
		"command", c.name(),
		"args", exec.CommandLine(args),
		"dir", r.dirFor(c),
	)
	return time.Now()
}

func (r *runner) logFinish(c *command, code int, start time.Time) {
	r.logger.Debug("git command finished",
		"command", c.name(),
		"exit_code", code,
		"duration", time.Since(start),
	)
}

// run executes c with buffered output. Exit codes listed in c.allow are
// returned as results.
func (r *runner) run(ctx context.Context, c *command) (*exec.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, r.contextError(c, err)
	}

	args := c.argv()
	start := r.logStart(c, args)
	res, err := r.executor(ctx, c).Run(args...)

	code := -1
	if res != nil {
		code = res.ExitCode
	}
	r.logFinish(c, code, start)

	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, r.contextError(c, ctxErr)
	}
	if code < 0 {
		return nil, r.startError(c, err)
	}
	if c.accepts(code, res.Stderr) {
		return res, nil
	}
	return res, r.failure(c, code, res.Stderr, res.Stdout)
}

// reaper waits for a process exactly once, from whichever goroutine gets
// there first. Waiting on a real process closes its pipes, which releases
// readers blocked on output held open by grandchildren.
type reaper struct {
	proc exec.Process
	once sync.Once
	err  error
}

func (w *reaper) wait() error {
	w.once.Do(func() { w.err = w.proc.Wait() })
	return w.err
}

// settled is what is left to know about a process once its output is read.
type settled struct {
	drainErr error
	waitErr  error
	code     int
}

// settle drains the rest of stdout, joins the stderr reader and reaps the
// process.
func (r *runner) settle(c *command, start time.Time, rd *buffer.Reader, g *errgroup.Group, reap *reaper) settled {
	var s settled
	s.drainErr = rd.Drain()
	if err := g.Wait(); err != nil && s.drainErr == nil {
		s.drainErr = err
	}
	s.waitErr = reap.wait()
	s.code = reap.proc.ExitCode()
	r.logFinish(c, s.code, start)
	return s
}

// abandon settles the process in the background and then returns stderr to
// the pool. The caller must not touch either again.
func (r *runner) abandon(c *command, start time.Time, rd *buffer.Reader, g *errgroup.Group, reap *reaper, stderr *bytes.Buffer) {
	go func() {
		r.settle(c, start, rd, g, reap)
		r.pool.Put(stderr)
	}()
}

// stream executes c and hands stdout to parse on the calling goroutine while
// stderr is collected in the background. An exit failure takes priority over
// a parse error.
//
// Once the context is canceled or parse stops early, the process is reaped
// in the background and control returns without waiting for it.
func (r *runner) stream(ctx context.Context, c *command, format string, parse func(*buffer.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return r.contextError(c, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	args := c.argv()
	start := r.logStart(c, args)
	proc, err := r.executor(ctx, c).Start(args...)
	if err != nil {
		cancel()
		r.logFinish(c, -1, start)
		return r.startError(c, err)
	}

	stderr := r.pool.Get()
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(stderr, proc.Stderr())
		return err
	})
	reap := &reaper{proc: proc}
	stopReaping := context.AfterFunc(ctx, func() { _ = reap.wait() })

	rd := buffer.NewReader(proc.Stdout(), r.bufSize)
	parseErr := parse(rd)
	stopped := errors.Is(parseErr, errStop)
	if ctxErr := ctx.Err(); stopped || ctxErr != nil {
		cancel()
		r.abandon(c, start, rd, &g, reap, stderr)
		if stopped {
			return nil
		}
		return r.contextError(c, ctxErr)
	}

	stopReaping()
	res := r.settle(c, start, rd, &g, reap)
	defer r.pool.Put(stderr)
	defer cancel()

	switch {
	case ctx.Err() != nil:
		return r.contextError(c, ctx.Err())
	case res.waitErr != nil && res.code < 0:
		return r.startError(c, res.waitErr)
	case res.waitErr != nil && !c.accepts(res.code, stderr.String()):
		return r.failure(c, res.code, stderr.String(), "")
	case parseErr != nil:
		return r.parseFailure(c, format, parseErr)
	case res.drainErr != nil:
		return r.startError(c, res.drainErr)
	}
	return nil
}

// transferOutcome is what a transfer reports besides errors. Messages holds
// the stderr lines that were not progress.
type transferOutcome struct {
	Canceled bool
	ExitCode int
	Messages string
}

// transfer executes a long-running command whose stderr carries progress.
// Progress lines are sent to progress, which is closed once the last event
// is sent. A canceled operation reports Canceled and no error, and returns
// as soon as the cancellation is seen; the process is reaped in the
// background.
func (r *runner) transfer(
	ctx context.Context,
	c *command,
	progress chan<- ProgressEvent,
	parse func(*buffer.Reader) error,
) (transferOutcome, error) {
	canceled := transferOutcome{Canceled: true}
	if err := ctx.Err(); err != nil {
		closeProgress(progress)
		return canceled, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	args := c.argv()
	start := r.logStart(c, args)
	proc, err := r.executor(ctx, c).Start(args...)
	if err != nil {
		cancel()
		closeProgress(progress)
		r.logFinish(c, -1, start)
		if ctx.Err() != nil {
			return canceled, nil
		}
		return transferOutcome{}, r.startError(c, err)
	}

	stderr := r.pool.Get()
	relayed := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(relayed)
		defer closeProgress(progress)
		return r.relayProgress(ctx, proc.Stderr(), stderr, progress)
	})
	reap := &reaper{proc: proc}
	stopReaping := context.AfterFunc(ctx, func() { _ = reap.wait() })

	rd := buffer.NewReader(proc.Stdout(), r.bufSize)
	var parseErr error
	if parse != nil {
		parseErr = parse(rd)
	}
	if ctx.Err() == nil {
		// stdout is done; stderr may still be streaming progress.
		select {
		case <-relayed:
		case <-ctx.Done():
		}
	}
	if ctx.Err() != nil {
		cancel()
		r.abandon(c, start, rd, &g, reap, stderr)
		return canceled, nil
	}

	stopReaping()
	res := r.settle(c, start, rd, &g, reap)
	defer r.pool.Put(stderr)
	defer cancel()

	if ctx.Err() != nil {
		return canceled, nil
	}
	out := transferOutcome{ExitCode: res.code, Messages: stderr.String()}
	switch {
	case res.waitErr != nil && res.code < 0:
		return out, r.startError(c, res.waitErr)
	case res.waitErr != nil && !c.accepts(res.code, out.Messages):
		return out, r.failure(c, res.code, out.Messages, "")
	case parseErr != nil:
		return out, r.parseFailure(c, c.name(), parseErr)
	case res.drainErr != nil:
		return out, r.startError(c, res.drainErr)
	}
	return out, nil
}

// relayProgress splits stderr on CR and LF. Progress lines go to the channel;
// everything else is kept in rest for error classification. Sends block
// until the caller receives or the context is canceled, after which no more
// sends are attempted.
func (r *runner) relayProgress(ctx context.Context, src io.Reader, rest *bytes.Buffer, progress chan<- ProgressEvent) error {
	abandoned := progress == nil
	rd := buffer.NewReader(src, r.bufSize)
	for {
		line, _, err := rd.ReadUntilAny("\r\n")
		if errors.Is(err, buffer.ErrTruncated) {
			line, err = rd.Rest(), nil
		}
		if errors.Is(err, buffer.ErrRecordTooLarge) {
			line, err = rd.Rest(), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			if ctx.Err() != nil && !abandoned {
				select {
				case progress <- ProgressEvent{Kind: ProgressCanceled, Percent: -1}:
				default:
				}
			}
			return err
		}
		if len(line) == 0 {
			continue
		}
		ev, ok := parseProgress(string(line))
		if !ok {
			rest.Write(line)
			rest.WriteByte('\n')
			continue
		}
		if abandoned {
			continue
		}
		select {
		case progress <- ev:
		case <-ctx.Done():
			abandoned = true
		}
	}
}

func closeProgress(progress chan<- ProgressEvent) {
	if progress != nil {
		close(progress)
	}
}

// failure classifies a non-zero exit and wraps it with invocation context.
func (r *runner) failure(c *command, code int, stderr, stdout string) error {
	sentinel := classifyFailure(c.rules, stderr, stdout)
	args := c.argv()
	cmdErr := &CommandError{Args: args, ExitCode: code, Stderr: stderr, Err: sentinel}

	err := platformerrors.WrapWithContext(cmdErr, platformerrors.GetCode(sentinel), "git "+c.name()+" failed", map[string]interface{}{
		"command":   c.name(),
		"args":      exec.CommandLine(args),
		"exit_code": code,
	})
	if errors.Is(sentinel, ErrLockContention) {
		err = platformerrors.WithClassification(err, platformerrors.ClassificationRetryable)
	}

	r.logger.Warn("git command failed",
		"command", c.name(),
		"exit_code", code,
		"error", cmdErr.Error(),
	)
	return err
}

func (r *runner) parseFailure(c *command, format string, err error) error {
	ctx := map[string]interface{}{
		"command": c.name(),
		"args":    exec.CommandLine(c.argv()),
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		ctx["offset"] = pe.Offset
	} else {
		err = &ParseError{Format: format, Stage: "reading output", Err: err}
	}

	r.logger.Warn("failed to parse git output",
		"command", c.name(),
		"format", format,
		"error", err.Error(),
	)
	return platformerrors.WrapWithContext(err, CodeParseFailed, "failed to parse git "+c.name()+" output", ctx)
}

func (r *runner) startError(c *command, err error) error {
	return platformerrors.WrapWithContext(err, platformerrors.CodeExecutionFailed, "failed to run git "+c.name(), map[string]interface{}{
		"command": c.name(),
		"args":    exec.CommandLine(c.argv()),
	})
}

func (r *runner) contextError(c *command, err error) error {
	code := platformerrors.CodeExecutionFailed
	if errors.Is(err, context.DeadlineExceeded) {
		code = platformerrors.CodeTimeout
	}
	return platformerrors.WrapWithContext(err, code, "git "+c.name()+" interrupted", map[string]interface{}{
		"command": c.name(),
	})
}
