package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/output"
	"github.com/hargabyte/cevents/internal/transducer"
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Verify that event streams are deterministic and balanced",
	Long: `Transduce each file twice and compare the results, verify that every Enter
event is closed by its matching Exit, and stream the events through the
channel to confirm the streamed sequence equals the batch one.

Files that fail to parse, or that contain constructs the transducer
rejects, are reported as errors. The command exits non-zero when any file
fails.`,
	Example: `  cevents check add.c
  cevents check src/*.c --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := &output.CheckOutput{Files: []output.CheckEntry{}}

	err := withTransducer(func(tr *transducer.Transducer) error {
		for _, path := range args {
			out.Add(checkFile(cmd, tr, path))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := writeOutput(cmd, out); err != nil {
		return err
	}
	if out.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", out.Failed, len(out.Files))
	}
	return nil
}

func checkFile(cmd *cobra.Command, tr *transducer.Transducer, path string) output.CheckEntry {
	entry := output.CheckEntry{File: displayName(path)}

	r, err := inputCheck(cmd, tr, path)
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
		return entry
	}

	entry.Events = r.Events
	entry.Functions = r.Functions
	entry.Problems = r.Problems
	if r.OK() {
		entry.Status = "ok"
	} else {
		entry.Status = "problems"
	}
	return entry
}
