package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/tourguide/internal/cli"
	"github.com/aretw0/tourguide/internal/presentation/graph"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the tour map visualization",
	Long: `Outputs a Mermaid diagram (graph TD) linking paths to pages and pages to their steps.
With --progress the pages are colored by the visitor's records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withProgress, _ := cmd.Flags().GetBool("progress")
		ctx := cmd.Context()

		cfg, err := cli.NewConfigSource(settings).Load(ctx)
		if err != nil {
			return err
		}

		var progress map[domain.PageID]graph.Progress
		if withProgress {
			if progress, err = loadProgress(ctx, cfg); err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(cfg, progress))
		return nil
	},
}

func loadProgress(ctx context.Context, cfg *domain.TourConfig) (map[domain.PageID]graph.Progress, error) {
	backend, err := cli.OpenBackend(ctx, settings)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	pol := cli.NewPolicy(backend, settings.Visitor, nil)
	progress := map[domain.PageID]graph.Progress{}
	for _, st := range cli.PageStatuses(ctx, pol, cfg, time.Now()) {
		pr := graph.Progress{Completed: st.Completed}
		if st.Seen {
			// Records keep no step index; a dismissed tour was shown at least once.
			pr.Reached = 1
		}
		progress[st.Page] = pr
	}
	return progress, nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("progress", false, "color pages by the visitor's records")
}
