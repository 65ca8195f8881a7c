package format

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"token.vy",
		"interfaces/IERC20.vyi",
		"interfaces/README.md",
		"tests/test_token.py",
		"contracts/vault.vy",
		"contracts/generated/vault_gen.vy",
		".venv/lib/site.vy",
		".eggs/pkg/lib.vy",
		".git/hooks/pre-commit.vy",
		"build/token.vy",
	} {
		createFile(t, dir, name, "x = 1\n")
	}

	tests := map[string]struct {
		paths   []string
		exclude []string
		exts    []string
		want    []string
	}{
		"WalksDirectoriesSkippingDefaultExcludes": {
			paths: []string{dir},
			want: []string{
				"contracts/generated/vault_gen.vy",
				"contracts/vault.vy",
				"interfaces/IERC20.vyi",
				"token.vy",
			},
		},
		"ExcludePatterns": {
			paths:   []string{dir},
			exclude: []string{"generated", "*.vyi"},
			want: []string{
				"contracts/vault.vy",
				"token.vy",
			},
		},
		"Extensions": {
			paths: []string{dir},
			exts:  []string{".vyi"},
			want: []string{
				"interfaces/IERC20.vyi",
			},
		},
		"ExplicitFilesAreAlwaysIncluded": {
			paths:   []string{filepath.Join(dir, "interfaces/README.md"), filepath.Join(dir, "token.vy")},
			exclude: []string{"*.md"},
			want: []string{
				"interfaces/README.md",
				"token.vy",
			},
		},
		"Duplicates": {
			paths: []string{filepath.Join(dir, "contracts"), filepath.Join(dir, "contracts/vault.vy")},
			want: []string{
				"contracts/generated/vault_gen.vy",
				"contracts/vault.vy",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			files, err := Discover(test.paths, test.exclude, test.exts)
			require.NoErrorf(t, err, "Discover(%q)", test.paths)

			got := make([]string, len(files))
			for i, f := range files {
				rel, err := filepath.Rel(dir, f)
				require.NoErrorf(t, err, "Rel(%q)", f)
				got[i] = filepath.ToSlash(rel)
			}

			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Discover(%q) mismatch (-want +got):\n%s", test.paths, diff)
			}
		})
	}

	t.Run("MissingPath", func(t *testing.T) {
		_, err := Discover([]string{filepath.Join(dir, "missing")}, nil, nil)

		assert.NotNilf(t, err, "Discover() of a missing path")
	})

	t.Run("InvalidExcludePattern", func(t *testing.T) {
		_, err := Discover([]string{dir}, []string{"["}, nil)

		assert.NotNilf(t, err, "Discover() with an invalid pattern")
	})
}
