// Package config loads the vyfmt configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Names of the configuration file in the order they are looked up in a directory.
var Names = []string{"vyfmt.toml", ".vyfmt.toml"}

// Config configures vyfmt. Command-line flags take precedence over it.
type Config struct {
	// LineLength is the number of columns lines should fit into.
	LineLength int `toml:"line-length"`
	// Safe compares the formatted code to the source before writing it.
	Safe bool `toml:"safe"`
	// Exclude holds glob patterns of file and directory names to skip when walking directories.
	Exclude []string `toml:"exclude"`
	// Extensions of the files to format when walking directories.
	Extensions []string `toml:"extensions"`
	// Jobs is the number of files formatted in parallel. Zero uses all CPUs.
	Jobs int `toml:"jobs"`
	// Cache skips files that were well formatted when last seen.
	Cache bool `toml:"cache"`

	// Path is the file the configuration was loaded from. It is empty for the defaults.
	Path string `toml:"-"`
}

// Default returns the configuration used without a configuration file.
func Default() Config {
	return Config{
		LineLength: 80,
		Safe:       true,
		Extensions: []string{".vy", ".vyi"},
		Cache:      true,
	}
}

// Find walks up from startDir to locate a configuration file.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range Names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the configuration file found walking up from startDir or returns the defaults if
// there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load loads the configuration file at path. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("line-length") && cfg.LineLength <= 0 {
		return Config{}, fmt.Errorf("%s: line-length must be positive, got %d", path, cfg.LineLength)
	}
	if meta.IsDefined("jobs") && cfg.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: jobs must not be negative, got %d", path, cfg.Jobs)
	}
	if meta.IsDefined("extensions") {
		if len(cfg.Extensions) == 0 {
			return Config{}, fmt.Errorf("%s: extensions must not be empty", path)
		}
		if i := slices.IndexFunc(cfg.Extensions, func(ext string) bool {
			return !strings.HasPrefix(ext, ".") || len(ext) == 1
		}); i >= 0 {
			return Config{}, fmt.Errorf("%s: extension %q must start with a '.'", path, cfg.Extensions[i])
		}
	}
	for _, pattern := range cfg.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return Config{}, fmt.Errorf("%s: invalid exclude pattern %q: %v", path, pattern, err)
		}
	}

	cfg.Path = path
	return cfg, nil
}
