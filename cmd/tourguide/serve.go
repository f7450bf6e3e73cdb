package main

import (
	"github.com/aretw0/tourguide"
	"github.com/aretw0/tourguide/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the visibility policy over HTTP",
	Long: `Exposes per-visitor tour status, dismissals and completions as a JSON API,
with server-sent events on record changes and configuration reloads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Serve(ctx, cli.ServeOptions{
			Settings: settings,
			Version:  tourguide.Version,
			Out:      cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", v.GetString("addr"), "listen address")
	cobra.CheckErr(v.BindPFlag("addr", serveCmd.Flags().Lookup("addr")))
}
