package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/config"
	"github.com/hargabyte/cevents/internal/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .cevents directory, config and event log",
	Long: `Create the .cevents directory in the current directory with a default
config.yaml and an empty event log database.

An existing config is left untouched. With --force the event log is
removed and recreated.`,
	Example: `  cevents init          # Initialize in current directory
  cevents init --force  # Recreate the event log`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Recreate the event log even if it already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	return initProject(cmd, cwd, initForce)
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	out := cmd.OutOrStdout()
	cfgDir := filepath.Join(dir, config.ConfigDirName)

	cfgPath := filepath.Join(cfgDir, config.ConfigFileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if _, err := config.SaveDefault(dir); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", relTo(dir, cfgPath))
	}

	cfg, err := config.LoadFromPath(cfgPath)
	if err != nil {
		return err
	}
	dbPath := cfg.StorePath(dir)

	_, err = os.Stat(dbPath)
	exists := err == nil
	switch {
	case exists && !force:
		fmt.Fprintf(out, "Already initialized at %s\n", relTo(dir, cfgDir))
		return nil
	case !exists && !os.IsNotExist(err):
		return fmt.Errorf("checking event log path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("initializing event log: %w", err)
	}
	defer st.Close()

	if exists {
		if err := st.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Cleared event log at %s\n", relTo(dir, dbPath))
		return nil
	}
	fmt.Fprintf(out, "Initialized event log at %s\n", relTo(dir, dbPath))
	return nil
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
