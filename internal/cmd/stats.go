package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the recorded event log",
	Long: `Show how many files and events the event log holds, the number of events
per tag across all recorded files, and the files that failed to transduce
on the last scan that saw them.

Run 'cevents scan' first to populate the log.`,
	Example: `  cevents stats
  cevents stats --format json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// statsOutput is the stats command result.
type statsOutput struct {
	Store     string            `json:"store" yaml:"store"`
	Files     int64             `json:"files" yaml:"files"`
	Failed    int64             `json:"failed" yaml:"failed"`
	Events    int64             `json:"events" yaml:"events"`
	Scans     int64             `json:"scans" yaml:"scans"`
	Histogram map[string]int    `json:"histogram,omitempty" yaml:"histogram,omitempty"`
	Failures  []store.FileEntry `json:"failures,omitempty" yaml:"failures,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := collectStats(st)
	if err != nil {
		return err
	}
	return writeOutput(cmd, out)
}

func collectStats(st *store.Store) (*statsOutput, error) {
	stats, err := st.GetStats()
	if err != nil {
		return nil, err
	}
	hist, err := st.Histogram()
	if err != nil {
		return nil, err
	}
	failed, err := st.GetFailedFiles()
	if err != nil {
		return nil, err
	}

	return &statsOutput{
		Store:     st.Path(),
		Files:     stats.Files,
		Failed:    stats.Failed,
		Events:    stats.Events,
		Scans:     stats.Scans,
		Histogram: hist,
		Failures:  failed,
	}, nil
}

// openStore opens the event log of the current project.
func openStore() (*store.Store, error) {
	cfg, root, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.StorePath(root))
}
