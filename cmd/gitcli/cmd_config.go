package main

import (
	"fmt"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
)

// newConfigCmd lists every entry, or prints one key's effective value.
func newConfigCmd(a *app) *cobra.Command {
	var showOrigin bool

	cmd := &cobra.Command{
		Use:   "config [key]",
		Short: "Show configuration entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				value, ok, err := repo.ConfigGet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return platformerrors.Newf(platformerrors.CodeNotFound, "config key %s is not set", args[0])
				}
				fmt.Fprintln(out, value)
				return nil
			}

			entries, err := repo.Config(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				value := e.Value
				if e.NoValue {
					value = dimColor.Sprint("(true)")
				}
				if showOrigin {
					fmt.Fprintf(out, "%s\t%s\t", dimColor.Sprint(e.Level), dimColor.Sprint(e.Source))
				}
				fmt.Fprintf(out, "%s=%s\n", headColor.Sprint(e.Key), value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showOrigin, "show-origin", false, "Show the level and file of each entry")
	return cmd
}
