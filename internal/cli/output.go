package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/isopod/internal/sched"
)

// writeJSON renders v as indented JSON with a trailing newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// renderPlanText prints a scheduling plan in human-readable form.
func renderPlanText(w io.Writer, plan *sched.Plan, meta *sched.MetadataStore) {
	fmt.Fprintln(w, "Run order:")
	for i, path := range plan.Order {
		m := meta.Get(path)
		fmt.Fprintf(w, "  %2d. %s (%s, ~%.0fms)\n", i+1, path, m.Priority, m.DurationMS)
	}
	for i, shard := range plan.Shards {
		total := 0.0
		for _, path := range shard {
			total += meta.Get(path).DurationMS
		}
		fmt.Fprintf(w, "\nShard %d (%d tests, ~%.0fms):\n", i, len(shard), total)
		for _, path := range shard {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
}

// renderStatsText prints tracked test metadata as a table.
func renderStatsText(w io.Writer, entries []sched.TestMeta) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tPRIORITY\tDURATION\tFAILURE RATE\tATTEMPTS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%.0fms\t%.2f\t%d\n",
			e.Path, e.Priority, e.DurationMS, e.FailureRate, e.Attempts)
	}
	tw.Flush()
}
