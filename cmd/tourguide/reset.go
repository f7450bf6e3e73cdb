package main

import (
	"fmt"

	"github.com/aretw0/tourguide/internal/cli"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [page]",
	Short: "Forget the dismissals and completions of a visitor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := cli.OpenBackend(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer backend.Close()

		var page domain.PageID
		if len(args) == 1 {
			page = domain.PageID(args[0])
		}
		if err := cli.Reset(cmd.Context(), backend, settings.Visitor, page); err != nil {
			return err
		}
		if page == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "All tour records cleared.")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Tour records of %q cleared.\n", page)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
