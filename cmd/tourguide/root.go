package main

import (
	"fmt"
	"os"

	"github.com/aretw0/tourguide/internal/config"
	"github.com/spf13/cobra"
)

var (
	v        = config.New()
	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "tourguide",
	Short: "Tourguide shows guided product tours when they are wanted",
	Long: `Tourguide resolves the tour of a page, decides with a dismissal cool-down
whether to show it, and runs it in the terminal or serves the decision over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		s, err := config.Load(v)
		if err != nil {
			return err
		}
		settings = s
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", config.DefaultEnvFile, "dotenv file with TOURGUIDE_* variables")

	flags.StringP("config", "c", v.GetString("config"), "tour configuration: URL, JSON/YAML file or directory of page documents")
	flags.StringP("path", "p", v.GetString("path"), "navigation path of the current page")
	flags.String("visitor", "", "visitor whose records are used")
	flags.String("backend", v.GetString("backend"), "state backend: memory, file or redis")
	flags.String("state-dir", v.GetString("state-dir"), "directory of the file backend")
	flags.String("redis-addr", v.GetString("redis-addr"), "redis address")
	flags.String("redis-password", "", "redis password")
	flags.Int("redis-db", 0, "redis database")
	flags.String("redis-prefix", v.GetString("redis-prefix"), "prefix of every redis key")
	flags.Duration("asset-timeout", v.GetDuration("asset-timeout"), "timeout of each asset attempt")
	flags.StringSlice("css", v.GetStringSlice("css"), "stylesheet mirrors, in order")
	flags.StringSlice("js", v.GetStringSlice("js"), "script mirrors, in order")
	flags.Bool("skip-assets", false, "do not load the overlay assets")
	flags.String("report-url", "", "endpoint receiving diagnostics beacons")
	flags.String("log-level", v.GetString("log-level"), "log level: debug, info, warn or error")
	flags.String("log-format", v.GetString("log-format"), "log format: text or json")
	flags.String("encryption-key", "", "base64 AES-256 key encrypting stored records")
	flags.StringSlice("encryption-fallback-keys", nil, "previous encryption keys accepted when reading")

	cobra.CheckErr(config.BindFlags(v, flags))
}
