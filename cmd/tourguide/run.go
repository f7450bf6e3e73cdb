package main

import (
	"github.com/aretw0/tourguide"
	"github.com/aretw0/tourguide/internal/cli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tour of a page in the terminal",
	Long: `Loads the overlay assets and the configuration, resolves --path and runs
its tour when the visibility policy allows it. Press enter to advance, p to go
back and q to close.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		debug, _ := cmd.Flags().GetBool("debug")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")

		var reg *prometheus.Registry
		if metricsFile != "" {
			reg = prometheus.NewRegistry()
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		_, err := cli.RunTour(ctx, cli.RunOptions{
			Settings:   settings,
			Version:    tourguide.Version,
			Force:      force,
			Debug:      debug,
			In:         cmd.InOrStdin(),
			Out:        cmd.OutOrStdout(),
			Registerer: registerer(reg),
		})
		if reg != nil {
			if werr := prometheus.WriteToTextfile(metricsFile, reg); werr != nil {
				return werr
			}
		}
		return cli.HandleExecutionError(err)
	},
}

// registerer avoids a typed nil interface when metrics are off.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("force", "f", false, "click the start element when the policy declines the tour")
	runCmd.Flags().Bool("debug", false, "log every lifecycle event")
	runCmd.Flags().String("metrics-file", "", "write prometheus metrics of the run to this textfile")
}
