package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hargabyte/cevents/internal/config"
	"github.com/hargabyte/cevents/internal/discover"
	"github.com/hargabyte/cevents/internal/parser"
	"github.com/hargabyte/cevents/internal/store"
	"github.com/hargabyte/cevents/internal/transducer"
)

var (
	scanForce       bool
	scanExclude     []string
	scanAutoExclude bool
	scanWorkers     int
	scanDryRun      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Record the event streams of every C file in a project",
	Long: `Discover C sources under the project root, transduce them in parallel and
record each file's events in the event log (.cevents/events.db by default).

Only files whose content changed since the last scan are transduced again.
Files that no longer exist are removed from the log. Files that fail to
parse, or that contain constructs the transducer rejects, are recorded with
their error so 'cevents stats' and 'cevents history' can report them.

Discovery honors .gitignore, the scan.exclude patterns in the config and
--exclude. With --auto-exclude, build trees detected from CMake, Meson and
autotools markers, git submodules and package manager caches are skipped.`,
	Example: `  cevents scan
  cevents scan ./src --exclude "tests/**"
  cevents scan --force --workers 4
  cevents scan --dry-run -v`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "Transduce every file, even when unchanged")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Additional exclude patterns (doublestar syntax)")
	scanCmd.Flags().BoolVar(&scanAutoExclude, "auto-exclude", false, "Skip detected build, submodule and dependency directories")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel transducers (default: scan.workers or CPU count)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "List the files that would be scanned without transducing them")
}

// scanOptions carries everything scanProject needs.
type scanOptions struct {
	Discover discover.Options
	Workers  int
	Force    bool
}

// scanResult is the outcome of transducing one file.
type scanResult struct {
	rec     store.Record
	skipped bool
}

// scanSummary is printed at the end of a scan.
type scanSummary struct {
	Root      string   `json:"root" yaml:"root"`
	Store     string   `json:"store" yaml:"store"`
	Files     int      `json:"files" yaml:"files"`
	Changed   int      `json:"changed" yaml:"changed"`
	Unchanged int      `json:"unchanged" yaml:"unchanged"`
	Failed    int      `json:"failed" yaml:"failed"`
	Pruned    int      `json:"pruned" yaml:"pruned"`
	Events    int      `json:"events" yaml:"events"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Duration  string   `json:"duration" yaml:"duration"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		root, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
	}

	opts := newScanOptions(cfg)
	if scanDryRun {
		found, err := discover.Files(root, opts.Discover)
		if err != nil {
			return err
		}
		for _, p := range found.Paths() {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		for _, s := range found.Skipped {
			log.Debug().Str("file", s.Path).Str("reason", s.Reason).Msg("skipped")
		}
		return nil
	}

	storePath := cfg.StorePath(root)
	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := scanProject(st, root, opts)
	if err != nil {
		return err
	}
	summary.Store = storePath

	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d files failed to transduce\n", summary.Failed)
	}
	return writeOutput(cmd, summary)
}

// newScanOptions combines the scan config with command-line flags.
func newScanOptions(cfg *config.Config) scanOptions {
	opts := scanOptions{
		Discover: discover.Options{
			Extensions:      cfg.Scan.Extensions,
			Exclude:         append(append([]string{}, cfg.Scan.Exclude...), scanExclude...),
			MaxFileSize:     cfg.Scan.MaxFileSize,
			IgnoreGitignore: cfg.Scan.IgnoreGitignore,
			AutoExclude:     scanAutoExclude,
		},
		Workers: cfg.Scan.Workers,
		Force:   scanForce,
	}
	if scanWorkers > 0 {
		opts.Workers = scanWorkers
	}
	return opts
}

// scanProject discovers, transduces and records every source file under root.
func scanProject(st *store.Store, root string, opts scanOptions) (*scanSummary, error) {
	started := time.Now()

	found, err := discover.Files(root, opts.Discover)
	if err != nil {
		return nil, err
	}
	for _, s := range found.Skipped {
		log.Debug().Str("file", s.Path).Str("reason", s.Reason).Msg("skipped")
	}

	results, err := transduceAll(st, root, found.Files, opts)
	if err != nil {
		return nil, err
	}

	summary := &scanSummary{Root: root, Files: len(found.Files)}
	for _, r := range results {
		if r.skipped {
			summary.Unchanged++
			continue
		}
		if err := st.RecordFile(r.rec); err != nil {
			return nil, err
		}
		summary.Changed++
		summary.Events += len(r.rec.Events)
		if r.rec.Status != store.StatusOK {
			summary.Failed++
			summary.Errors = append(summary.Errors, r.rec.Err)
		}
	}

	valid := make(map[string]bool, len(found.Files))
	for _, f := range found.Files {
		valid[f.Path] = true
	}
	summary.Pruned, err = st.PruneStaleEntries(valid)
	if err != nil {
		return nil, err
	}

	finished := time.Now()
	_, err = st.RecordScan(store.Scan{
		Root:       root,
		StartedAt:  started,
		FinishedAt: finished,
		Files:      summary.Files,
		Changed:    summary.Changed,
		Failed:     summary.Failed,
		Events:     summary.Events,
	})
	if err != nil {
		return nil, err
	}

	summary.Duration = finished.Sub(started).Round(time.Millisecond).String()
	log.Debug().
		Int("files", summary.Files).
		Int("changed", summary.Changed).
		Int("failed", summary.Failed).
		Str("duration", summary.Duration).
		Msg("scan complete")
	return summary, nil
}

// transduceAll runs the changed files through a pool of transducers. Results
// keep the order of files. Tree-sitter parsers are not safe for concurrent
// use, so a transducer serves one file at a time.
func transduceAll(st *store.Store, root string, files []discover.FileEntry, opts scanOptions) ([]scanResult, error) {
	results := make([]scanResult, len(files))
	sources := make([][]byte, len(files))
	var pending []int

	// Change detection reads the store before any worker starts.
	for i, f := range files {
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			results[i].rec = store.Record{
				Path:   f.Path,
				Status: store.StatusReadError,
				Err:    (&parser.FileReadError{Path: f.Path, Err: err}).Error(),
			}
			continue
		}
		hash := store.ContentHash(src)
		if !opts.Force {
			changed, err := st.IsFileChanged(f.Path, hash)
			if err != nil {
				return nil, err
			}
			if !changed {
				results[i].skipped = true
				continue
			}
		}
		results[i].rec.Hash = hash
		sources[i] = src
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return results, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(pending))

	pool := make(chan *transducer.Transducer, workers)
	defer func() {
		close(pool)
		for tr := range pool {
			tr.Close()
		}
	}()
	for range workers {
		tr, err := transducer.New()
		if err != nil {
			return nil, err
		}
		pool <- tr
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, i := range pending {
		g.Go(func() error {
			tr := <-pool
			defer func() { pool <- tr }()
			results[i].rec = transduceFile(tr, files[i].Path, results[i].rec.Hash, sources[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Int("transduced", len(pending)).Int("workers", workers).Msg("transduce")
	return results, nil
}

// transduceFile classifies the outcome of transducing one source buffer.
func transduceFile(tr *transducer.Transducer, path, hash string, src []byte) store.Record {
	rec := store.Record{Path: path, Hash: hash, Status: store.StatusOK}

	evs, err := tr.Source(src)
	var perr *parser.ParseError
	switch {
	case err == nil:
		rec.Events = evs
		return rec
	case errors.As(err, &perr):
		perr.File = path
		rec.Status = store.StatusSyntaxError
		rec.Err = perr.Error()
	case errors.Is(err, transducer.ErrStructure):
		rec.Status = store.StatusStructuralError
		rec.Err = fmt.Sprintf("%s: %v", path, err)
	default:
		rec.Status = store.StatusReadError
		rec.Err = fmt.Sprintf("%s: %v", path, err)
	}
	log.Debug().Str("file", path).Str("status", string(rec.Status)).Msg(rec.Err)
	return rec
}
