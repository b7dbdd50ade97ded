package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/isopod/internal/worker"
)

// ProvisionOptions holds flags for the provision command.
type ProvisionOptions struct {
	Dir        string
	SchemaFile string
	Workers    int
}

// ProvisionResult reports one worker's provisioning outcome.
type ProvisionResult struct {
	WorkerID string `json:"worker_id"`
	Path     string `json:"path"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProvisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create per-worker databases and apply the schema",
		Long: `Provision one isolated SQLite instance per worker and apply the given
schema destructively. Safe to run at every suite boot; existing instances
are re-provisioned from scratch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "data directory for worker databases, required")
	cmd.Flags().StringVar(&opts.SchemaFile, "schema", "", "schema DDL file, required")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "number of workers to provision")
	cmd.MarkFlagRequired("dir")
	cmd.MarkFlagRequired("schema")

	return cmd
}

func runProvision(rootOpts *RootOptions, opts *ProvisionOptions, cmd *cobra.Command) error {
	if opts.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", opts.Workers)
	}

	ddl, err := os.ReadFile(opts.SchemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	logger := rootOpts.Logger(cmd.ErrOrStderr())
	prov := worker.NewProvisioner(opts.Dir, string(ddl), logger)
	ctx := cmd.Context()

	results := make([]ProvisionResult, 0, opts.Workers)
	failures := 0
	for i := 0; i < opts.Workers; i++ {
		id := strconv.Itoa(i)
		res := ProvisionResult{
			WorkerID: id,
			Path:     worker.DatabasePath(opts.Dir, id),
		}
		if err := prov.CreateDatabase(ctx, id); err != nil {
			res.Error = err.Error()
		} else if err := prov.IsHealthy(ctx, id); err != nil {
			res.Error = err.Error()
		} else {
			res.Healthy = true
		}
		if !res.Healthy {
			failures++
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Healthy {
				fmt.Fprintf(out, "worker %s: provisioned at %s\n", res.WorkerID, res.Path)
			} else {
				fmt.Fprintf(out, "worker %s: FAILED: %s\n", res.WorkerID, res.Error)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d workers failed to provision", failures, opts.Workers)
	}
	return nil
}
