package main

import (
	"fmt"

	"github.com/jmgilman/gitcli/git"
	"github.com/spf13/cobra"
)

func newWorktreesCmd(a *app) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "worktrees",
		Short: "List linked worktrees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if prune {
				if err := repo.PruneWorktrees(cmd.Context()); err != nil {
					return err
				}
			}
			wts, err := repo.ListWorktrees(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, wt := range wts {
				fmt.Fprintf(out, "%s %s %s\n", wt.Path, idColor.Sprint(wt.Head.Short()), describeWorktree(wt))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Prune stale worktree records first")
	return cmd
}

func describeWorktree(wt git.WorktreeInfo) string {
	var desc string
	switch {
	case wt.Bare:
		desc = dimColor.Sprint("(bare)")
	case wt.Detached:
		desc = dimColor.Sprint("(detached HEAD)")
	default:
		desc = headColor.Sprintf("[%s]", wt.Branch)
	}
	if wt.IsLocked {
		desc += removeColor.Sprint(" locked")
		if wt.Reason != "" {
			desc += dimColor.Sprintf(" (%s)", wt.Reason)
		}
	}
	if wt.Prunable {
		desc += removeColor.Sprint(" prunable")
	}
	return desc
}
