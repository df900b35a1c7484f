package main

import (
	"fmt"

	"github.com/jmgilman/gitcli/git"
	"github.com/spf13/cobra"
)

func newCleanCmd(a *app) *cobra.Command {
	var opts git.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean [paths...]",
		Short: "Remove untracked files (dry run unless --force)",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			opts.Paths = args
			res, err := repo.Clean(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "Removed"
			if res.DryRun {
				verb = "Would remove"
			}
			for _, p := range res.Removed {
				fmt.Fprintf(out, "%s %s\n", verb, p)
			}
			for _, p := range res.Skipped {
				fmt.Fprintln(out, dimColor.Sprintf("Skipped %s", p))
			}
			for _, f := range res.Failed {
				fmt.Fprintf(out, "%s %s: %s\n", removeColor.Sprint("Failed"), f.Path, f.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Actually remove files")
	cmd.Flags().BoolVarP(&opts.Directories, "directories", "d", false, "Also remove untracked directories")
	cmd.Flags().BoolVarP(&opts.Ignored, "ignored", "x", false, "Also remove ignored files")
	return cmd
}
