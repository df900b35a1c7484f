package main

import (
	"fmt"

	"github.com/jmgilman/gitcli/git"
	"github.com/spf13/cobra"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		opts git.DiffOptions
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "diff [revisions...]",
		Short: "List changed paths",
		Long: `List the paths that differ between two snapshots.

With no revision the worktree is compared with the index, or the index with
HEAD when --cached is given. One revision compares it with the worktree and
two compare the revisions.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			var diff *git.TreeDifference
			if raw {
				diff, err = repo.Diff(cmd.Context(), opts, args...)
			} else {
				diff, err = repo.DiffNameStatus(cmd.Context(), opts, args...)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range diff.Changes {
				code := string(c.Type.Code())
				switch c.Type {
				case git.ChangeAdded:
					code = addColor.Sprint(code)
				case git.ChangeDeleted:
					code = removeColor.Sprint(code)
				}
				if raw {
					fmt.Fprintf(out, "%s %s ", idColor.Sprint(c.SourceID.Short()), idColor.Sprint(c.DestID.Short()))
				}
				if c.OriginalPath != "" {
					fmt.Fprintf(out, "%s\t%s -> %s\n", code, c.OriginalPath, c.Path)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", code, c.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Cached, "cached", false, "Compare the index instead of the worktree")
	cmd.Flags().BoolVarP(&opts.FindRenames, "find-renames", "M", false, "Detect renames")
	cmd.Flags().StringSliceVar(&opts.Paths, "path", nil, "Limit the diff to these paths")
	cmd.Flags().BoolVar(&raw, "raw", false, "Include object ids")
	return cmd
}
