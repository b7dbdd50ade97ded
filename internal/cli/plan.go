package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/isopod/internal/sched"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	TestsFile   string
	HistoryFile string
	Shards      int
	Shard       int
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute run order and shard assignment for a test list",
		Long: `Compute the deterministic run order and balanced shard assignment for a
suite manifest, using persisted duration and failure history when available.

With --shard, prints only that shard's assigned tests, one per line -
suitable for feeding a single worker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TestsFile, "tests", "", "suite manifest (YAML), required")
	cmd.Flags().StringVar(&opts.HistoryFile, "history", "", "scheduling history file (YAML)")
	cmd.Flags().IntVar(&opts.Shards, "shards", 1, "number of shards")
	cmd.Flags().IntVar(&opts.Shard, "shard", -1, "print only this shard's tests")
	cmd.MarkFlagRequired("tests")

	return cmd
}

func runPlan(rootOpts *RootOptions, opts *PlanOptions, cmd *cobra.Command) error {
	list, err := LoadTestList(opts.TestsFile)
	if err != nil {
		return err
	}

	meta := sched.NewMetadataStore(nil)
	if opts.HistoryFile != "" {
		if err := meta.LoadHistory(opts.HistoryFile); err != nil {
			return err
		}
	}

	paths := make([]string, 0, len(list.Tests))
	for _, entry := range list.Tests {
		paths = append(paths, entry.Path)
		meta.SetDeps(entry.Path, entry.Deps)
	}

	seq := sched.NewSequencer(meta)
	plan, err := seq.BuildPlan(paths, opts.Shards)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if opts.Shard >= 0 {
		if opts.Shard >= opts.Shards {
			return fmt.Errorf("shard index %d out of range [0,%d)", opts.Shard, opts.Shards)
		}
		if rootOpts.Format == "json" {
			return writeJSON(out, plan.Shards[opts.Shard])
		}
		for _, path := range plan.Shards[opts.Shard] {
			fmt.Fprintln(out, path)
		}
		return nil
	}

	if rootOpts.Format == "json" {
		return writeJSON(out, plan)
	}
	renderPlanText(out, plan, meta)
	return nil
}
