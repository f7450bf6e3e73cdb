package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tourguide/internal/cli"
	"github.com/aretw0/tourguide/pkg/tourconfig"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tour configuration for consistency",
	Long:  `Loads the configuration and reports unmapped pages, steps without targets and dangling force-start paths.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.NewConfigSource(settings).Load(cmd.Context())
		if err != nil {
			return err
		}
		if problems := tourconfig.Validate(cfg); len(problems) > 0 {
			return fmt.Errorf("configuration has %d problem(s):\n  %s", len(problems), strings.Join(problems, "\n  "))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
