package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/config"
	"github.com/hargabyte/cevents/internal/cst"
	"github.com/hargabyte/cevents/internal/output"
	"github.com/hargabyte/cevents/internal/transducer"
)

// inputTree parses and lowers a source argument. Files are parsed by path so
// syntax errors name them; "-" reads stdin.
func inputTree(cmd *cobra.Command, tr *transducer.Transducer, path string) (*cst.Node, error) {
	if path != "-" {
		return tr.FileTree(path)
	}
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return tr.Tree(src)
}

// inputCheck is Check over a source argument, with the same input rules as
// inputTree.
func inputCheck(cmd *cobra.Command, tr *transducer.Transducer, path string) (*transducer.Report, error) {
	if path != "-" {
		return tr.CheckFile(path)
	}
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return tr.Check(src)
}

// loadConfig loads --config when given, otherwise the nearest .cevents/config.yaml.
func loadConfig() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root := config.ProjectRoot(cwd)

	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, root, nil
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// resolveFormat prefers an explicit --format over the configured default.
func resolveFormat(cmd *cobra.Command, cfg *config.Config) (output.Format, error) {
	name := outputFormat
	if cfg != nil && !cmd.Flags().Changed("format") && cfg.Output.Format != "" {
		name = cfg.Output.Format
	}
	return output.ParseFormat(name)
}

// writeOutput renders v in the resolved format on the command's stdout.
func writeOutput(cmd *cobra.Command, v any) error {
	cfg, _, err := loadConfig()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring config, using --format")
		cfg = nil
	}
	format, err := resolveFormat(cmd, cfg)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, v)
}

// withTransducer runs fn with a transducer that is closed afterwards.
func withTransducer(fn func(tr *transducer.Transducer) error) error {
	tr, err := transducer.New()
	if err != nil {
		return fmt.Errorf("creating transducer: %w", err)
	}
	defer tr.Close()
	return fn(tr)
}

// displayName is how a source argument appears in output.
func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
