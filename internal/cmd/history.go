package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scans",
	Long: `List the most recent scan runs recorded in the event log, newest first,
with the number of files seen, transduced again, failed and the events
recorded.`,
	Example: `  cevents history
  cevents history --limit 0     # All scans`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of scans to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	scans, err := st.GetScans(historyLimit)
	if err != nil {
		return err
	}
	if scans == nil {
		scans = []store.Scan{}
	}
	return writeOutput(cmd, map[string]any{"scans": scans})
}
