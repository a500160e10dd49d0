// Package exclude detects generated and third-party directories in C source trees.
package exclude

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// AutoExcludeResult contains the directories to exclude and why.
type AutoExcludeResult struct {
	// Directories to exclude (relative to project root)
	Directories []string
	// Reasons maps each directory to why it was excluded
	Reasons map[string]string
}

// buildMarkers map a file that only appears inside an out-of-tree build
// directory to the build system that wrote it.
var buildMarkers = map[string]string{
	"CMakeCache.txt":        "CMake build directory (CMakeCache.txt detected)",
	"build.ninja":           "Ninja build directory (build.ninja detected)",
	"meson-info":            "Meson build directory (meson-info detected)",
	"config.status":         "Autotools build directory (config.status detected)",
	"compile_commands.json": "generated compilation database (compile_commands.json detected)",
}

// DetectAutoExcludes scans the project root for directories that hold build
// output or vendored dependencies. Detection only relies on marker files, so a
// directory is never excluded on its name alone.
func DetectAutoExcludes(projectRoot string) *AutoExcludeResult {
	result := &AutoExcludeResult{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't read
		}
		if path == projectRoot {
			return nil
		}

		relPath, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			for _, excluded := range result.Directories {
				if relPath == excluded || strings.HasPrefix(relPath, excluded+string(filepath.Separator)) {
					return filepath.SkipDir
				}
			}
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			// meson-info is a directory, not a file
			if reason, ok := buildMarkers[d.Name()]; ok {
				result.add(filepath.Dir(relPath), reason)
				return filepath.SkipDir
			}
			return nil
		}

		dir := filepath.Dir(relPath)
		name := d.Name()

		if reason, ok := buildMarkers[name]; ok {
			// A marker in the root means an in-tree build; excluding the root
			// would exclude everything.
			if dir != "." {
				result.add(dir, reason)
			}
			return nil
		}

		switch name {
		case ".gitmodules":
			// Submodules are third-party code checked out in place.
			for _, sub := range submodulePaths(path) {
				if dir != "." {
					sub = filepath.Join(dir, sub)
				}
				if dirExists(filepath.Join(projectRoot, sub)) {
					result.add(sub, "git submodule (.gitmodules detected)")
				}
			}

		case "conanfile.txt", "conanfile.py":
			sibling := filepath.Join(dir, "conan")
			if dirExists(filepath.Join(projectRoot, sibling)) {
				result.add(sibling, "Conan dependencies ("+name+" detected)")
			}

		case "vcpkg.json":
			sibling := filepath.Join(dir, "vcpkg_installed")
			if dirExists(filepath.Join(projectRoot, sibling)) {
				result.add(sibling, "vcpkg dependencies (vcpkg.json detected)")
			}
		}

		return nil
	})

	return result
}

func (r *AutoExcludeResult) add(dir, reason string) {
	dir = filepath.Clean(dir)
	if dir == "." || slices.Contains(r.Directories, dir) {
		return
	}
	r.Directories = append(r.Directories, dir)
	r.Reasons[dir] = reason
}

// Globs returns the excluded directories as doublestar patterns.
func (r *AutoExcludeResult) Globs() []string {
	globs := make([]string, 0, len(r.Directories))
	for _, dir := range r.Directories {
		globs = append(globs, filepath.ToSlash(dir)+"/**")
	}
	return globs
}

// submodulePaths reads the path entries of a .gitmodules file.
func submodulePaths(gitmodules string) []string {
	data, err := os.ReadFile(gitmodules)
	if err != nil {
		return nil
	}
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || strings.TrimSpace(key) != "path" {
			continue
		}
		if p := strings.TrimSpace(value); p != "" {
			paths = append(paths, filepath.FromSlash(p))
		}
	}
	return paths
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
