package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/isopod/internal/worker"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	Dir      string
	WorkerID string
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a worker's database to a clean state",
		Long: `Empty every user table and reset auto-increment counters on one worker's
database, leaving the schema in place. The same operation the harness runs
between tests.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "data directory for worker databases, required")
	cmd.Flags().StringVar(&opts.WorkerID, "worker", worker.WorkerIDFromEnv(), "worker identifier")
	cmd.MarkFlagRequired("dir")

	return cmd
}

func runReset(rootOpts *RootOptions, opts *ResetOptions, cmd *cobra.Command) error {
	logger := rootOpts.Logger(cmd.ErrOrStderr())
	reg := worker.NewRegistry(opts.Dir, logger)
	defer reg.DisconnectAll()

	sim := worker.NewTxnSimulator(reg, worker.NewExecutor(logger), logger)
	if err := sim.ResetDatabase(cmd.Context(), opts.WorkerID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "worker %s: database reset\n", opts.WorkerID)
	return nil
}
