package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ca-srg/fluentsearch/internal/metrics"
)

var (
	statsByIndex bool
	statsDate    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local command usage counts",
	Long: `
Show how often each command has been run from this machine. Counts are kept in
FLUENTSEARCH_STATS_PATH (default ~/.fluentsearch/stats.db) unless
FLUENTSEARCH_STATS_ENABLED=false.

Use --by-index to break runs down by target index, or --date to show a single day.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsByIndex && statsDate != "" {
			return fmt.Errorf("--by-index and --date cannot be combined")
		}

		w := cmd.OutOrStdout()
		switch {
		case statsByIndex:
			byIndex, err := current.recorder.ByIndex()
			if err != nil {
				return fmt.Errorf("failed to read usage stats: %w", err)
			}
			if byIndex == nil {
				fmt.Fprintln(w, "usage stats are disabled")
				return nil
			}
			if outputJSON {
				return writeJSON(w, byIndex)
			}
			printIndexUsage(w, byIndex)
			return nil

		case statsDate != "":
			counts, err := current.recorder.CountsOn(statsDate)
			if err != nil {
				return fmt.Errorf("failed to read usage stats: %w", err)
			}
			if counts == nil {
				fmt.Fprintln(w, "usage stats are disabled")
				return nil
			}
			if outputJSON {
				return writeJSON(w, counts)
			}
			printDayUsage(w, statsDate, counts)
			return nil
		}

		totals, err := current.recorder.Totals()
		if err != nil {
			return fmt.Errorf("failed to read usage stats: %w", err)
		}
		if totals == nil {
			fmt.Fprintln(w, "usage stats are disabled")
			return nil
		}

		if outputJSON {
			usage := make([]metrics.Usage, 0, len(metrics.Commands))
			for _, c := range metrics.Commands {
				usage = append(usage, totals[c])
			}
			return writeJSON(w, usage)
		}
		printUsage(w, totals)
		return nil
	},
}

func printUsage(w io.Writer, totals map[metrics.Command]metrics.Usage) {
	fmt.Fprintf(w, "%-10s %10s %10s\n", "COMMAND", "RUNS", "FAILURES")
	for _, c := range metrics.Commands {
		u := totals[c]
		fmt.Fprintf(w, "%-10s %10d %10d\n", c, u.Count, u.Failures)
	}
}

// printIndexUsage lists indices by name. Runs made before an index was
// configured are shown as "-".
func printIndexUsage(w io.Writer, byIndex map[string]int64) {
	names := make([]string, 0, len(byIndex))
	for name := range byIndex {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%-24s %10s\n", "INDEX", "RUNS")
	for _, name := range names {
		label := name
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%-24s %10d\n", label, byIndex[name])
	}
}

func printDayUsage(w io.Writer, date string, counts map[metrics.Command]int64) {
	fmt.Fprintf(w, "%-10s %10s\n", "COMMAND", date)
	for _, c := range metrics.Commands {
		fmt.Fprintf(w, "%-10s %10d\n", c, counts[c])
	}
}

func init() {
	addJSONFlag(statsCmd.Flags(), "Output usage in JSON format")
	statsCmd.Flags().BoolVar(&statsByIndex, "by-index", false, "Break runs down by index")
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Show runs on a single day (YYYY-MM-DD)")
}
