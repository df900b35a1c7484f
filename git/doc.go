// Package git provides a typed object model over the git command-line tool.
//
// Every operation builds an argument list, runs the git binary as a child
// process and parses what it prints into Go values: commits, references,
// status entries, diff entries, config entries, remotes and worktrees.
// Failures are classified from git's stderr into typed errors. The package
// never reads the object database itself; git does all the work.
//
// # Architecture
//
// The library is built on several key principles:
//
//  1. Drive the installed git, do not reimplement it
//  2. Parse output as a stream through a fixed-size window, so a repository
//     with a million refs costs no more memory than one with ten
//  3. Ask git for machine formats (-z, --porcelain, --batch) wherever it has one
//  4. Map stderr to errors with ordered, per-command tables
//  5. Report expected non-zero exits (a merge conflict, a missing config key)
//     as results instead of errors
//  6. Organize by operation type (status, branch, tag, commit, diff, remote,
//     merge, rebase, stash, clean, config, worktree)
//
// # Core Types
//
// Repository drives git for one repository. It is safe for concurrent use:
// each method starts its own process, and the only shared state is a pool of
// text buffers owned by the Repository and shared with its worktrees.
//
// Worktree is a linked working tree; Worktree.Repository returns a
// Repository rooted in it.
//
// ObjectID is a 20-byte object name, convertible to and from go-git's
// plumbing.Hash. Commit holds a raw commit block and decodes it lazily with
// go-git's object package. Reference, ReferenceCollection, Status,
// TreeDifference, ConfigEntry, Remote and WorktreeInfo are plain values.
//
// # Factory Functions
//
// Open opens an existing repository from a path.
//
// Init initializes a new repository at the specified path.
//
// Clone clones a repository from a remote URL.
//
// All factory functions accept RepositoryOption arguments for customization
// (executor, logger, environment, authentication, depth, etc.).
//
// # Streaming and Progress
//
// Listings such as Log and WalkCommits are iterators: commits are parsed as
// git prints them, and breaking out of the loop stops the process.
//
//	for c, err := range repo.Log(ctx, "main", git.LogOptions{MaxCount: 50}) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(c.ID.Short(), c.Subject())
//	}
//
// Clone, Fetch, Pull, Push, Checkout and Rebase accept a progress channel.
// Events are sent with back-pressure and the channel is always closed when
// the operation returns. Canceling the context ends the operation quietly:
// the result reports Canceled and the error is nil.
//
//	events := make(chan git.ProgressEvent, 16)
//	go func() {
//	    for ev := range events {
//	        fmt.Printf("%s %d%%\n", ev.Stage, ev.Percent)
//	    }
//	}()
//	res, err := repo.Fetch(ctx, git.FetchOptions{Prune: true, Progress: events})
//
// # Authentication
//
// The library provides helper functions for creating authentication. Auth
// values become environment variables of the git process; nothing is
// written to disk.
//
//	// SSH key authentication
//	auth, err := git.SSHKeyFile("git", "/home/user/.ssh/id_ed25519")
//
//	// Basic authentication (HTTPS)
//	auth := git.BasicAuth("username", "token")
//
//	// No authentication (public repositories)
//	auth := git.EmptyAuth()
//
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/tmp/repo", git.WithAuth(auth))
//
// # Soft Outcomes
//
// Some non-zero exits are answers rather than failures:
//
//   - Merge and Pull report MergeConflicted with the conflicting paths
//   - Rebase reports RebaseConflicted and the commit it stopped at
//   - StashApply and StashPop report Conflicted
//   - IsAncestor returns false; ConfigGet returns ok == false
//   - Head and ResolveRevision("HEAD") return ZeroID on an unborn branch
//   - Push returns the per-ref result together with ErrPushRejected
//
// # Error Handling
//
// Errors are platform errors from github.com/jmgilman/go/errors, carrying an
// ErrorCode and context (command line, exit code, stderr). They wrap sentinel
// errors, so errors.Is works:
//
//	err := repo.CreateBranch(ctx, "feature", "main")
//	if errors.Is(err, git.ErrBranchExists) {
//	    // ...
//	}
//
// A non-zero exit yields a *CommandError and output git printed in an
// unexpected shape yields a *ParseError, both reachable with errors.As.
// Arguments are validated before any process starts; invalid ones fail with
// ErrInvalidArgument or ErrInvalidName and code INVALID_INPUT. Lock-file
// contention (ErrLockContention) is classified retryable; the library itself
// never retries.
//
// # Environment
//
// git runs with LC_ALL=C so its messages match the error tables, with
// terminal prompts disabled, and with color.ui=false and core.quotepath=false
// forced on the command line. Status takes no optional locks. WithEnv adds
// variables to every invocation and WithGitPath selects the binary.
//
// # Testing
//
// The testutil sub-package provides a scripted executor and fixtures:
//
//	import "github.com/jmgilman/gitcli/git/testutil"
//
//	// Script git's output per subcommand
//	fake := testutil.NewFakeExecutor().
//	    On("rev-parse", testutil.Response{Stdout: details}).
//	    On("status", testutil.Response{Stdout: "# branch.head main\x00"})
//	repo, err := git.Open(ctx, "/work/repo", git.WithExecutor(fake))
//
//	// Build a real repository (skips without git)
//	env := testutil.IsolatedEnv(t)
//	dir := testutil.NewRepo(t, env)
//	testutil.CommitFile(t, dir, env, "README.md", "hello\n", "Initial commit")
//
// Worktree operations can also be replaced wholesale with
// WithWorktreeOperations.
package git
