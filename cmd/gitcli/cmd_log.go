package main

import (
	"fmt"
	"iter"

	"github.com/jmgilman/gitcli/git"
	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var (
		opts  git.LogOptions
		since string
		long  bool
	)

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			rev := "HEAD"
			if len(args) > 0 {
				rev = args[0]
			}

			var commits iter.Seq2[*git.Commit, error]
			if since != "" {
				commits = repo.WalkCommits(cmd.Context(), since, rev)
			} else {
				commits = repo.Log(cmd.Context(), rev, opts)
			}

			out := cmd.OutOrStdout()
			shown := 0
			for c, err := range commits {
				if err != nil {
					return err
				}
				if since != "" && opts.MaxCount > 0 && shown == opts.MaxCount {
					break
				}
				shown++

				if !long {
					fmt.Fprintf(out, "%s %s\n", idColor.Sprint(c.ID.Short()), c.Subject())
					continue
				}
				d, err := c.Details()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", idColor.Sprint("commit"), idColor.Sprint(c.ID))
				fmt.Fprintf(out, "Author: %s <%s>\n", d.Author.Name, d.Author.Email)
				fmt.Fprintf(out, "Date:   %s\n\n", d.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Fprintf(out, "    %s\n\n", c.Subject())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.MaxCount, "max-count", "n", 0, "Limit the number of commits")
	cmd.Flags().BoolVar(&opts.FirstParent, "first-parent", false, "Follow only the first parent of merges")
	cmd.Flags().StringSliceVar(&opts.Paths, "path", nil, "Only show commits touching these paths")
	cmd.Flags().StringVar(&since, "since-rev", "", "Exclude commits reachable from this revision")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show author and date")
	return cmd
}
