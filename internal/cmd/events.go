package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/event"
	"github.com/hargabyte/cevents/internal/output"
	"github.com/hargabyte/cevents/internal/transducer"
)

var (
	eventsTags      string
	eventsHistogram bool
)

var eventsCmd = &cobra.Command{
	Use:   "events <file|->",
	Short: "Print the event stream of a C source file",
	Long: `Parse a C source file and print its events in emission order.

Each event has a tag (EnterFunction, ExitBinaryExpression, ...) and, for some
tags, a text: identifiers and constants for primaries, the operator for unary
expressions and the reconstructed "<ret> <name> <params...>" signature for
ExitFunction. Use "-" to read from stdin.

A syntax error aborts before any event is produced.`,
	Example: `  cevents events add.c
  cevents events add.c --tags ExitFunction
  cevents events add.c --histogram --format json
  echo 'void f() {}' | cevents events -`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsTags, "tags", "", "Only print events with these comma-separated tags")
	eventsCmd.Flags().BoolVar(&eventsHistogram, "histogram", false, "Include a per-tag event count")
}

func runEvents(cmd *cobra.Command, args []string) error {
	tags, err := event.ParseTags(eventsTags)
	if err != nil {
		return err
	}

	var evs []event.Event
	err = withTransducer(func(tr *transducer.Transducer) error {
		if args[0] != "-" {
			evs, err = tr.File(args[0])
			return err
		}
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		evs, err = tr.Source(src)
		return err
	})
	if err != nil {
		return err
	}

	return writeOutput(cmd, output.NewEventsOutput(displayName(args[0]), evs, eventsHistogram, tags...))
}
