package exec

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	exec := New()
	if exec == nil {
		t.Fatal("New() returned nil")
	}
}

func TestBasicExecution(t *testing.T) {
	exec := New()
	result, err := exec.Run("echo", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "hello world") {
		t.Errorf("expected stdout to contain 'hello world', got: %s", result.Stdout)
	}

	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got: %d", result.ExitCode)
	}
}

func TestCommandFailure(t *testing.T) {
	exec := New()
	result, err := exec.Run("false")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got: %T", err)
	}

	if execErr.ExitCode == 0 {
		t.Error("expected non-zero exit code")
	}

	if result == nil {
		t.Fatal("expected result even with error")
	}
}

func TestRunNoArgs(t *testing.T) {
	_, err := New().Run()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestWithDir(t *testing.T) {
	exec := New()
	result, err := exec.WithDir("/tmp").Run("pwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "/tmp") {
		t.Errorf("expected stdout to contain '/tmp', got: %s", result.Stdout)
	}
}

func TestWithEnv(t *testing.T) {
	exec := New()
	result, err := exec.WithEnv(map[string]string{
		"TEST_VAR": "test_value",
	}).Run("sh", "-c", "echo $TEST_VAR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "test_value") {
		t.Errorf("expected stdout to contain 'test_value', got: %s", result.Stdout)
	}
}

func TestWithStdin(t *testing.T) {
	exec := New()
	result, err := exec.WithStdin(strings.NewReader("piped input")).Run("cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stdout != "piped input" {
		t.Errorf("expected stdout to echo stdin, got: %q", result.Stdout)
	}
}

func TestWithDisableColors(t *testing.T) {
	exec := New()
	result, err := exec.WithDisableColors().Run("sh", "-c", "echo $NO_COLOR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "1") {
		t.Errorf("expected NO_COLOR=1, got: %s", result.Stdout)
	}
}

func TestWithTimeout(t *testing.T) {
	exec := New()
	_, err := exec.WithTimeout("100ms").Run("sleep", "1")
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}

	if !strings.Contains(err.Error(), "killed") && !strings.Contains(err.Error(), "context deadline exceeded") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestInvalidTimeout(t *testing.T) {
	_, err := New().WithTimeout("soon").Run("true")
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
}

func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	exec := New()
	_, err := exec.WithContext(ctx).Run("sleep", "1")
	if err == nil {
		t.Fatal("expected context cancellation error, got nil")
	}
}

func TestWithContextOrphanedChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The backgrounded sleep inherits stdout and outlives its killed parent.
	start := time.Now()
	_, err := New().WithContext(ctx).Run("sh", "-c", "sleep 5 & wait")
	if err == nil {
		t.Fatal("expected context cancellation error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("expected Run to return once the context was done, took %v", elapsed)
	}
}

func TestSeparateOutput(t *testing.T) {
	exec := New()
	result, err := exec.Run("sh", "-c", "echo stdout && echo stderr >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "stdout") {
		t.Errorf("expected stdout to contain 'stdout', got: %s", result.Stdout)
	}

	if !strings.Contains(result.Stderr, "stderr") {
		t.Errorf("expected stderr to contain 'stderr', got: %s", result.Stderr)
	}
}

func TestGlobalOptions(t *testing.T) {
	exec := New(
		WithEnv(map[string]string{"GLOBAL_VAR": "global"}),
		WithDisableColors(),
	)

	for i := 0; i < 2; i++ {
		result, err := exec.Run("sh", "-c", "echo $GLOBAL_VAR $NO_COLOR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(result.Stdout, "global 1") {
			t.Errorf("run %d: expected global settings to persist, got: %s", i, result.Stdout)
		}
	}
}

func TestLocalOverridesGlobal(t *testing.T) {
	exec := New(
		WithEnv(map[string]string{"TEST_VAR": "global"}),
	)

	result, err := exec.WithEnv(map[string]string{"TEST_VAR": "local"}).Run("sh", "-c", "echo $TEST_VAR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "local") {
		t.Errorf("expected local value to override global, got: %s", result.Stdout)
	}

	result, err = exec.Run("sh", "-c", "echo $TEST_VAR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "global") {
		t.Errorf("expected local value to be reset after run, got: %s", result.Stdout)
	}
}

func TestClone(t *testing.T) {
	original := New(WithEnv(map[string]string{"CLONE_VAR": "base"}))
	clone := original.Clone()
	clone.WithEnv(map[string]string{"CLONE_VAR": "changed"})

	result, err := original.Run("sh", "-c", "echo $CLONE_VAR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "base") {
		t.Errorf("expected clone to be independent, got: %s", result.Stdout)
	}
}

func TestStart(t *testing.T) {
	exec := New()
	proc, err := exec.Start("sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errCh := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(proc.Stderr())
		errCh <- string(b)
	}()

	out, err := io.ReadAll(proc.Stdout())
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	stderr := <-errCh

	if err := proc.Wait(); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}

	if string(out) != "out\n" {
		t.Errorf("expected stdout 'out', got: %q", out)
	}
	if stderr != "err\n" {
		t.Errorf("expected stderr 'err', got: %q", stderr)
	}
	if proc.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got: %d", proc.ExitCode())
	}
}

func TestStartStdinPipe(t *testing.T) {
	proc, err := New().Start("cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := io.WriteString(proc.Stdin(), "round trip"); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	_ = proc.Stdin().Close()

	go func() { _, _ = io.Copy(io.Discard, proc.Stderr()) }()
	out, _ := io.ReadAll(proc.Stdout())

	if err := proc.Wait(); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if string(out) != "round trip" {
		t.Errorf("expected stdin to be echoed, got: %q", out)
	}
}

func TestStartExitCode(t *testing.T) {
	proc, err := New().Start("sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.ExitCode() != -1 {
		t.Errorf("expected -1 before wait, got: %d", proc.ExitCode())
	}

	_, _ = io.Copy(io.Discard, proc.Stdout())
	_, _ = io.Copy(io.Discard, proc.Stderr())

	err = proc.Wait()
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got: %T", err)
	}
	if execErr.ExitCode != 3 || proc.ExitCode() != 3 {
		t.Errorf("expected exit code 3, got: %d / %d", execErr.ExitCode, proc.ExitCode())
	}
}

func TestStartNotFound(t *testing.T) {
	_, err := New().Start("definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", []string{"git", "status", "-z"}, "git status -z"},
		{"space", []string{"git", "commit", "-m", "two words"}, `git commit -m "two words"`},
		{"empty", []string{"git", "config", ""}, `git config ""`},
		{"quote", []string{"say", `a"b`}, `say "a\"b"`},
		{"tab", []string{"x", "a\tb"}, "x \"a\tb\""},
		{"trailing backslash", []string{"x", `C:\dir\`}, `x "C:\dir\\"`},
		{"backslash before quote", []string{"x", `a\"b`}, `x "a\\\"b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommandLine(tt.args); got != tt.want {
				t.Errorf("CommandLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
