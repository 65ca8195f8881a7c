package format

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Extensions are the file extensions of Vyper files formatted when discovering files in a
// directory.
var Extensions = []string{".vy", ".vyi"}

// excludedDirs are never descended into.
var excludedDirs = []string{
	".direnv", ".eggs", ".git", ".hg", ".idea", ".ipynb_checkpoints", ".mypy_cache", ".nox", ".tox",
	".venv", "__pypackages__", "_build", "buck-out", "build", "dist", "venv",
}

// Discover returns the sorted files to format. Files passed explicitly are always included.
// Directories are walked for files with one of the given extensions, skipping hidden build and
// dependency directories as well as any file or directory whose name matches one of the exclude
// glob patterns.
func Discover(paths, exclude, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = Extensions
	}
	for _, pattern := range exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %v", pattern, err)
		}
	}

	var files []string
	for _, root := range paths {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open %q: %v", root, err)
		}
		if !fi.IsDir() {
			files = append(files, filepath.Clean(root))
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && excluded(d.Name(), exclude) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && slices.Contains(excludedDirs, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && slices.Contains(exts, filepath.Ext(path)) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
