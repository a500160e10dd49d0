package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/ast"
	"github.com/hargabyte/cevents/internal/channel"
	"github.com/hargabyte/cevents/internal/transducer"
)

var astCmd = &cobra.Command{
	Use:   "ast <file|->",
	Short: "Rebuild a program from its streamed events",
	Long: `Stream the events of a C source file through the event channel into the
program builder and print the rebuilt program.

Every event crosses the channel as two freshly allocated buffers (tag and
text); the builder decodes them and reassembles functions, statements and
expressions. The rebuilt program shows what the event stream preserves.`,
	Example: `  cevents ast add.c
  cevents ast - < main.c
  cevents ast add.c -v      # Also log channel statistics`,
	Args: cobra.ExactArgs(1),
	RunE: runAST,
}

func init() {
	rootCmd.AddCommand(astCmd)
}

func runAST(cmd *cobra.Command, args []string) error {
	b := ast.NewBuilder()
	ch := channel.New(channel.AllocatorFunc(func(n int) []byte { return make([]byte, n) }), b)

	err := withTransducer(func(tr *transducer.Transducer) error {
		if args[0] == "-" {
			src, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			_, err = tr.Stream(src, ch)
			return err
		}
		root, err := tr.FileTree(args[0])
		if err != nil {
			return err
		}
		return transducer.Emit(root, ch)
	})
	if err != nil {
		return err
	}

	stats := ch.Stats()
	log.Debug().
		Int("allocations", stats.Allocations).
		Int("deliveries", stats.Deliveries).
		Int("bytes", stats.Bytes).
		Msg("channel")

	prog, err := b.Program()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), prog.String())
	return nil
}
