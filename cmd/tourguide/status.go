package main

import (
	"time"

	"github.com/aretw0/tourguide/internal/cli"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [page...]",
	Short: "Show the visibility records of a visitor",
	Long:  `Prints, for each page of the configuration (or each page given), whether its tour would start now.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		backend, err := cli.OpenBackend(ctx, settings)
		if err != nil {
			return err
		}
		defer backend.Close()

		pol := cli.NewPolicy(backend, settings.Visitor, nil)
		now := time.Now()

		var statuses []policy.Status
		if len(args) > 0 {
			for _, p := range args {
				statuses = append(statuses, pol.Status(ctx, domain.PageID(p), now))
			}
		} else {
			cfg, err := cli.NewConfigSource(settings).Load(ctx)
			if err != nil {
				return err
			}
			statuses = cli.PageStatuses(ctx, pol, cfg, now)
		}
		return cli.WriteStatuses(cmd.OutOrStdout(), statuses, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("json", false, "print JSON")
}
