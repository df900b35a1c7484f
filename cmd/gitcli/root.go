package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/jmgilman/gitcli/git"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// config holds the settings shared by every subcommand. Values come from
// flags, GITCLI_* environment variables and $XDG_CONFIG_HOME/gitcli/config.yaml,
// in that order of precedence.
type config struct {
	Repo     string `mapstructure:"repo"`
	Git      string `mapstructure:"git"`
	Verbose  bool   `mapstructure:"verbose"`
	NoColor  bool   `mapstructure:"no-color"`
	CacheDir string `mapstructure:"cache-dir"`
}

// app carries the resolved configuration to the subcommands.
type app struct {
	cfg    config
	logger *slog.Logger

	// gitOpts are applied after the options derived from cfg.
	gitOpts []git.RepositoryOption
}

func newRootCmd(gitOpts ...git.RepositoryOption) *cobra.Command {
	a := &app{gitOpts: gitOpts}
	v := viper.New()

	root := &cobra.Command{
		Use:           "gitcli",
		Short:         "Inspect repositories through the gitcli object model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(v, cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("repo", "C", ".", "Path to the repository")
	flags.String("git", "", "Path to the git binary (default: git on PATH)")
	flags.BoolP("verbose", "v", false, "Log every git invocation to stderr")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("cache-dir", "", "Repository cache directory (default: $XDG_CACHE_HOME/gitcli)")

	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newBranchesCmd(a))
	root.AddCommand(newTagsCmd(a))
	root.AddCommand(newRemotesCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newDiffCmd(a))
	root.AddCommand(newWorktreesCmd(a))
	root.AddCommand(newCleanCmd(a))
	root.AddCommand(newCacheCmd(a))

	return root
}

// load resolves the configuration and builds the logger.
func (a *app) load(v *viper.Viper, cmd *cobra.Command) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(xdg.ConfigHome, "gitcli"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GITCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	if err := v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}

	if a.cfg.NoColor {
		color.NoColor = true
	}

	level := slog.LevelWarn
	if a.cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// repositoryOptions returns the options every repository is opened with.
func (a *app) repositoryOptions() []git.RepositoryOption {
	opts := []git.RepositoryOption{git.WithLogger(a.logger)}
	if a.cfg.Git != "" {
		opts = append(opts, git.WithGitPath(a.cfg.Git))
	}
	return append(opts, a.gitOpts...)
}

func (a *app) open(ctx context.Context) (*git.Repository, error) {
	if err := ensureDir(a.cfg.Repo); err != nil {
		return nil, err
	}
	return git.Open(ctx, a.cfg.Repo, a.repositoryOptions()...)
}

var (
	headColor   = color.New(color.FgGreen, color.Bold)
	idColor     = color.New(color.FgYellow)
	addColor    = color.New(color.FgGreen)
	removeColor = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

// printProgress renders progress events until the channel is closed.
func printProgress(w io.Writer, events <-chan git.ProgressEvent, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		switch ev.Kind {
		case git.ProgressStage:
			if ev.Done {
				fmt.Fprintf(w, "%s: done\n", ev.Stage)
			}
		case git.ProgressMessage:
			fmt.Fprintln(w, dimColor.Sprint(ev.Message))
		}
	}
}

// stderrProgress returns a progress channel drained to stderr when verbose,
// or nil otherwise. wait blocks until the channel has been closed.
func (a *app) stderrProgress(cmd *cobra.Command) (events chan git.ProgressEvent, wait func()) {
	if !a.cfg.Verbose {
		return nil, func() {}
	}
	events = make(chan git.ProgressEvent, 16)
	done := make(chan struct{})
	go printProgress(cmd.ErrOrStderr(), events, done)
	return events, func() { <-done }
}

// ensureDir reports a missing repository path before git does.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
