// Package discover finds C translation units and headers in a source tree.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/hargabyte/cevents/internal/exclude"
	"github.com/hargabyte/cevents/internal/parser"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path string // Relative to root, slash separated
	Size int64
}

// Options controls which files Files returns.
type Options struct {
	// Extensions to accept, with the leading dot. Empty accepts every
	// extension the parser supports.
	Extensions []string
	// Exclude holds doublestar patterns matched against the relative path
	Exclude []string
	// MaxFileSize skips larger files when positive
	MaxFileSize int64
	// IgnoreGitignore disables .gitignore filtering
	IgnoreGitignore bool
	// AutoExclude adds build and vendored directories detected from marker files
	AutoExclude bool
}

// Skipped records a file that matched an extension but was filtered out.
type Skipped struct {
	Path   string
	Reason string
}

// Result is the outcome of a discovery walk.
type Result struct {
	Files   []FileEntry
	Skipped []Skipped
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".cevents":     {},
	"node_modules": {},
	"CMakeFiles":   {},
	".deps":        {},
	".libs":        {},
}

// Files discovers source files under root.
func Files(root string, opts Options) (*Result, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	patterns := slices.Clone(opts.Exclude)
	if opts.AutoExclude {
		patterns = append(patterns, exclude.DetectAutoExcludes(root).Globs()...)
	}

	var gi *ignore.GitIgnore
	if !opts.IgnoreGitignore {
		gi = loadGitignore(root)
	}

	result := &Result{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if matchAny(patterns, rel) || matchAny(patterns, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks and other irregular files
		if !d.Type().IsRegular() {
			return nil
		}

		if !hasExtension(name, opts.Extensions) {
			return nil
		}

		if gi != nil && gi.MatchesPath(rel) {
			result.Skipped = append(result.Skipped, Skipped{Path: rel, Reason: "gitignored"})
			return nil
		}
		if matchAny(patterns, rel) {
			result.Skipped = append(result.Skipped, Skipped{Path: rel, Reason: "excluded"})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			result.Skipped = append(result.Skipped, Skipped{
				Path:   rel,
				Reason: fmt.Sprintf("larger than %d bytes", opts.MaxFileSize),
			})
			return nil
		}

		result.Files = append(result.Files, FileEntry{Path: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	return result, nil
}

// Paths returns the relative paths of the discovered files.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	if len(exts) == 0 {
		return parser.LanguageFromExtension(strings.ToLower(ext)) != ""
	}
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
