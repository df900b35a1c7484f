package main

import (
	"fmt"
	"time"

	"github.com/jmgilman/gitcli/git/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local repository cache",
	}

	cmd.AddCommand(newCacheGetCmd(a))
	cmd.AddCommand(newCacheWarmCmd(a))
	cmd.AddCommand(newCachePruneCmd(a))
	cmd.AddCommand(newCacheClearCmd(a))
	cmd.AddCommand(newCacheStatsCmd(a))
	return cmd
}

func (a *app) openCache() (*cache.RepositoryCache, error) {
	dir := a.cfg.CacheDir
	if dir == "" {
		dir = cache.DefaultBasePath()
	}
	return cache.NewRepositoryCache(dir,
		cache.WithLogger(a.logger),
		cache.WithGitOptions(a.repositoryOptions()...),
	)
}

func newCacheGetCmd(a *app) *cobra.Command {
	var (
		ref    string
		update bool
		depth  int
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "get <url> <key>",
		Short: "Print the path of a cached checkout, creating it if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}

			opts := []cache.CacheOption{cache.WithRef(ref), cache.WithDepth(depth)}
			if update {
				opts = append(opts, cache.WithUpdate())
			}
			if ttl > 0 {
				opts = append(opts, cache.WithTTL(ttl))
			}
			events, wait := a.stderrProgress(cmd)
			if events != nil {
				opts = append(opts, cache.WithProgress(events))
			}

			path, err := c.GetCheckout(cmd.Context(), args[0], args[1], opts...)
			wait()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Branch, tag or commit (default: the remote's default branch)")
	cmd.Flags().BoolVar(&update, "update", false, "Fetch and refresh an existing checkout")
	cmd.Flags().IntVar(&depth, "depth", 0, "Shallow clone depth for a new bare clone")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Expire the checkout after this long without access")
	return cmd
}

func newCacheWarmCmd(a *app) *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "warm <url>...",
		Short: "Clone or fetch bare repositories ahead of use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			var opts []cache.CacheOption
			if update {
				opts = append(opts, cache.WithUpdate())
			}
			return c.Warm(cmd.Context(), args, opts...)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "Fetch repositories that are already cached")
	return cmd
}

func newCachePruneCmd(a *app) *cobra.Command {
	var (
		olderThan time.Duration
		maxSize   int64
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove expired or surplus checkouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}

			strategies := []cache.PruneStrategy{cache.PruneExpired()}
			if olderThan > 0 {
				strategies = append(strategies, cache.PruneOlderThan(olderThan))
			}
			if maxSize > 0 {
				strategies = append(strategies, cache.PruneToSize(maxSize))
			}

			n, err := c.Prune(cmd.Context(), strategies...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d checkouts\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Also remove checkouts not accessed for this long")
	cmd.Flags().Int64Var(&maxSize, "max-size", 0, "Remove expiring checkouts until the cache fits in this many bytes")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [url]",
		Short: "Remove one repository, or everything, from the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return c.Clear(cmd.Context(), args[0])
			}
			return c.ClearAll()
		},
	}
}

func newCacheStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			stats, err := c.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path:       %s\n", c.Path())
			fmt.Fprintf(out, "bare repos: %d (%s)\n", stats.BareRepos, formatBytes(stats.BareSize))
			fmt.Fprintf(out, "checkouts:  %d (%s)\n", stats.Checkouts, formatBytes(stats.CheckoutsSize))
			fmt.Fprintf(out, "total:      %s\n", formatBytes(stats.TotalSize))
			if stats.OldestCheckout != nil {
				fmt.Fprintf(out, "oldest:     %s\n", stats.OldestCheckout.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
