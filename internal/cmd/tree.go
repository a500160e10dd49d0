package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/cst"
	"github.com/hargabyte/cevents/internal/transducer"
)

var treeCmd = &cobra.Command{
	Use:   "tree <file|->",
	Short: "Print the syntax tree the transducer walks",
	Long: `Print the lowered C syntax tree of a source file, one node per line,
indented by depth. This is the tree the event walk visits.`,
	Example: `  cevents tree add.c`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	var root *cst.Node
	err := withTransducer(func(tr *transducer.Transducer) error {
		var err error
		root, err = inputTree(cmd, tr, args[0])
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), root.Dump())
	return nil
}
