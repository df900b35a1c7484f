package main

import (
	"fmt"
	"io"

	"github.com/jmgilman/gitcli/git"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var opts git.StatusOptions

	cmd := &cobra.Command{
		Use:   "status [paths...]",
		Short: "Show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			opts.Paths = args
			st, err := repo.Status(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Ignored, "ignored", false, "Also list ignored files")
	cmd.Flags().StringVarP(&opts.UntrackedFiles, "untracked-files", "u", "", "Untracked file mode: no, normal or all")
	return cmd
}

func printStatus(w io.Writer, st *git.Status) {
	b := st.Branch
	switch {
	case b.Detached:
		fmt.Fprintf(w, "HEAD detached at %s\n", idColor.Sprint(b.OID.Short()))
	case b.Initial:
		fmt.Fprintf(w, "on %s (no commits yet)\n", headColor.Sprint(b.Head))
	default:
		fmt.Fprintf(w, "on %s\n", headColor.Sprint(b.Head))
	}
	if b.Upstream != "" {
		line := "tracking " + b.Upstream
		if ab := b.AheadBehind; ab != nil && ab.Known {
			line += fmt.Sprintf(" (ahead %d, behind %d)", ab.Ahead, ab.Behind)
		}
		fmt.Fprintln(w, dimColor.Sprint(line))
	}

	if st.IsClean() {
		fmt.Fprintln(w, "nothing to commit, working tree clean")
	}

	for _, u := range st.Unmerged {
		fmt.Fprintf(w, "  %s %s\n", removeColor.Sprint("U"), u.Path)
	}
	for _, e := range st.Entries {
		fmt.Fprintf(w, "  %s %s\n", statusCodes(e.Staged, e.Unstaged), e.Path)
	}
	for _, e := range st.Renamed {
		fmt.Fprintf(w, "  %s %s -> %s\n", statusCodes(e.Staged, e.Unstaged), e.OriginalPath, e.Path)
	}
	for _, e := range st.Copied {
		fmt.Fprintf(w, "  %s %s -> %s\n", statusCodes(e.Staged, e.Unstaged), e.OriginalPath, e.Path)
	}
	for _, p := range st.Untracked {
		fmt.Fprintf(w, "  %s %s\n", removeColor.Sprint("??"), p)
	}
	for _, p := range st.Ignored {
		fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("!!"), p)
	}
	if st.StashCount > 0 {
		fmt.Fprintf(w, "%d stash entries\n", st.StashCount)
	}
}

// statusCodes renders the two-column XY code, staged side in green.
func statusCodes(staged, unstaged git.ChangeType) string {
	return addColor.Sprint(string(staged.Code())) + removeColor.Sprint(string(unstaged.Code()))
}
