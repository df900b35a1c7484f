package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchesCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			branches, err := repo.ListBranches(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range branches {
				if b.IsRemote != remote {
					continue
				}
				marker, name := " ", b.Name
				if b.IsHead {
					marker, name = "*", headColor.Sprint(b.Name)
				}
				line := fmt.Sprintf("%s %s %s", marker, idColor.Sprint(b.ID.Short()), name)
				if b.Upstream != "" {
					line += dimColor.Sprintf(" [%s]", b.Upstream.Short())
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&remote, "remotes", "r", false, "List remote-tracking branches instead")
	return cmd
}

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := repo.ListTags(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range tags {
				kind := "lightweight"
				if t.Annotated {
					kind = "annotated"
				}
				fmt.Fprintf(out, "%s %s %s\n", idColor.Sprint(t.ID.Short()), t.Name, dimColor.Sprint(kind))
			}
			return nil
		},
	}
}

func newRemotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remotes",
		Short: "List remotes with their URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			remotes, err := repo.ListRemotes(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range remotes {
				if r.FetchURL != "" {
					fmt.Fprintf(out, "%s\t%s (fetch)\n", headColor.Sprint(r.Name), r.FetchURL)
				}
				if r.PushURL != "" {
					fmt.Fprintf(out, "%s\t%s (push)\n", headColor.Sprint(r.Name), r.PushURL)
				}
			}
			return nil
		},
	}
}
