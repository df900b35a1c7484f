// Package exec provides a testable interface for executing local commands.
//
// This package wraps the standard library's os/exec, providing the Command struct
// that implements the Executor interface. The package returns concrete types
// (Command, CommandWrapper) while accepting interfaces in function parameters,
// making it easy to fake command execution in tests.
//
// # Basic Usage
//
// Create an executor and run a command to completion:
//
//	exec := exec.New()
//	result, err := exec.Run("echo", "hello world")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Stdout) // "hello world\n"
//
// # Streaming
//
// Start launches a command and hands back its pipes. The caller owns the
// reads and must call Wait once both output pipes are drained:
//
//	proc, err := exec.Start("git", "rev-list", "--header", "HEAD")
//	if err != nil {
//		return err
//	}
//	go io.Copy(&stderr, proc.Stderr())
//	parse(proc.Stdout())
//	err = proc.Wait()
//
// # Configuration
//
// The package supports both global configuration (set at creation time) and
// local configuration (set per-execution). Local settings always override global
// settings and are cleared after each Run or Start:
//
//	exec := exec.New(
//		exec.WithEnv(map[string]string{"LC_ALL": "C"}),
//		exec.WithDisableColors(),
//		exec.WithInheritEnv(),
//	)
//
//	result, err := exec.
//		WithDir("/tmp").
//		WithTimeout("5s").
//		Run("some-command")
//
// Executors are not safe for concurrent configuration. Call Clone to obtain an
// independent copy before applying local settings from multiple goroutines.
//
// # Command Wrappers
//
// For commands that are executed frequently, create a wrapper that automatically
// prepends the command name:
//
//	git := exec.NewWrapper(exec.New(), "git")
//	result, err := git.WithDir("/repo").Run("status")
//	// Equivalent to: exec.WithDir("/repo").Run("git", "status")
//
// # Error Handling
//
// Command failures return an *ExecError that includes the exit code and the
// command. Run also captures the output:
//
//	result, err := exec.Run("false")
//	var execErr *exec.ExecError
//	if errors.As(err, &execErr) {
//		fmt.Printf("Exit code: %d\n", execErr.ExitCode)
//	}
//
// CommandLine renders an argument list the way it appears in error messages
// and logs.
package exec
