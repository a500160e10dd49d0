package discover

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

var cOptions = Options{Extensions: []string{".c", ".h"}}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverCFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.c", "int main() { return 0; }")
	writeFile(t, dir, "lib/util.c", "int util() { return 1; }")
	writeFile(t, dir, "lib/util.h", "int util();")
	// Other extensions should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	writeFile(t, dir, "tool.py", "pass")

	res, err := Files(dir, cOptions)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	want := []string{"lib/util.c", "lib/util.h", "main.c"}
	if got := res.Paths(); !slices.Equal(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
	if res.Files[2].Size != int64(len("int main() { return 0; }")) {
		t.Errorf("size = %d", res.Files[2].Size)
	}
}

func TestDiscoverDefaultsToParserExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.c", "int main() { return 0; }")
	writeFile(t, dir, "include/api.H", "int api();")
	writeFile(t, dir, "main.cpp", "int main() {}")
	writeFile(t, dir, "Makefile", "all:")

	res, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"include/api.H", "main.c"}
	if got := res.Paths(); !slices.Equal(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestDiscoverExtensionCase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "LEGACY.C", "int x;")

	res, err := Files(dir, cOptions)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(res.Files) != 1 {
		t.Errorf("expected upper-case extension to match, got %v", res.Paths())
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.c", "")
	writeFile(t, dir, ".git/hooks/x.c", "")
	writeFile(t, dir, ".cevents/cached.c", "")
	writeFile(t, dir, "build/CMakeFiles/conftest.c", "")

	res, err := Files(dir, cOptions)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if got := res.Paths(); !slices.Equal(got, []string{"main.c"}) {
		t.Errorf("expected only main.c, got %v", got)
	}
}

func TestDiscoverExcludePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "src/main.c", "")
	writeFile(t, dir, "vendor/zlib/inflate.c", "")
	writeFile(t, dir, "src/testdata/broken.c", "")
	writeFile(t, dir, "src/parser.gen.c", "")

	opts := cOptions
	opts.Exclude = []string{"vendor/**", "**/testdata/**", "**/*.gen.c"}

	res, err := Files(dir, opts)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if got := res.Paths(); !slices.Equal(got, []string{"src/main.c"}) {
		t.Errorf("expected only src/main.c, got %v", got)
	}

	// Files excluded by name are reported; pruned directories are not walked.
	var skipped []string
	for _, s := range res.Skipped {
		skipped = append(skipped, s.Path)
	}
	if !slices.Contains(skipped, "src/parser.gen.c") {
		t.Errorf("expected src/parser.gen.c in skipped, got %v", skipped)
	}
}

func TestDiscoverInvalidPattern(t *testing.T) {
	t.Parallel()

	opts := cOptions
	opts.Exclude = []string{"src/[a-"}

	if _, err := Files(t.TempDir(), opts); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "*.gen.c\n")
	writeFile(t, dir, "main.c", "")
	writeFile(t, dir, "lexer.gen.c", "")

	res, err := Files(dir, cOptions)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := res.Paths(); !slices.Equal(got, []string{"main.c"}) {
		t.Errorf("expected only main.c, got %v", got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "gitignored" {
		t.Errorf("expected one gitignored skip, got %v", res.Skipped)
	}

	opts := cOptions
	opts.IgnoreGitignore = true
	res, err = Files(dir, opts)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("expected gitignore to be disabled, got %v", res.Paths())
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "small.c", "int x;")
	writeFile(t, dir, "big.c", strings.Repeat("int x;\n", 100))

	opts := cOptions
	opts.MaxFileSize = 64

	res, err := Files(dir, opts)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := res.Paths(); !slices.Equal(got, []string{"small.c"}) {
		t.Errorf("expected only small.c, got %v", got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Path != "big.c" {
		t.Errorf("expected big.c to be skipped, got %v", res.Skipped)
	}
}

func TestDiscoverAutoExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.c", "")
	writeFile(t, dir, "out/CMakeCache.txt", "")
	writeFile(t, dir, "out/generated.c", "")

	res, err := Files(dir, cOptions)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("expected build output without auto-exclude, got %v", res.Paths())
	}

	opts := cOptions
	opts.AutoExclude = true
	res, err = Files(dir, opts)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if got := res.Paths(); !slices.Equal(got, []string{"main.c"}) {
		t.Errorf("expected only main.c, got %v", got)
	}
}
