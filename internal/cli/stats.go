package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/isopod/internal/sched"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	HistoryFile string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Show persisted per-test scheduling statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.HistoryFile, "history", "", "scheduling history file (YAML), required")
	cmd.MarkFlagRequired("history")

	return cmd
}

func runStats(rootOpts *RootOptions, opts *StatsOptions, cmd *cobra.Command) error {
	meta := sched.NewMetadataStore(nil)
	if err := meta.LoadHistory(opts.HistoryFile); err != nil {
		return err
	}
	entries := meta.All()
	if len(entries) == 0 {
		return fmt.Errorf("no history recorded in %s", opts.HistoryFile)
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, entries)
	}
	renderStatsText(out, entries)
	return nil
}
