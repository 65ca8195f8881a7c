package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"github.com/teleivo/vyper/internal/config"
)

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		in   string
		want func(cfg *config.Config)
	}{
		"Empty": {
			in:   "",
			want: func(cfg *config.Config) {},
		},
		"AllKeys": {
			in: `line-length = 100
safe = false
exclude = ["generated", "*_test.vy"]
extensions = [".vy"]
jobs = 4
cache = false
`,
			want: func(cfg *config.Config) {
				cfg.LineLength = 100
				cfg.Safe = false
				cfg.Exclude = []string{"generated", "*_test.vy"}
				cfg.Extensions = []string{".vy"}
				cfg.Jobs = 4
				cfg.Cache = false
			},
		},
		"MissingKeysKeepTheirDefault": {
			in: "line-length = 120\n",
			want: func(cfg *config.Config) {
				cfg.LineLength = 120
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "vyfmt.toml", test.in)

			got, err := config.Load(path)
			require.NoErrorf(t, err, "Load(%q)", test.in)

			want := config.Default()
			test.want(&want)
			want.Path = path
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load(%q) mismatch (-want +got):\n%s", test.in, diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"InvalidTOML": {
			in:   "line-length = \n",
			want: "failed to parse TOML",
		},
		"UnknownKey": {
			in:   "line-lenght = 100\n",
			want: "unknown keys line-lenght",
		},
		"WrongType": {
			in:   "line-length = \"wide\"\n",
			want: "failed to parse TOML",
		},
		"LineLengthNotPositive": {
			in:   "line-length = 0\n",
			want: "line-length must be positive, got 0",
		},
		"NegativeJobs": {
			in:   "jobs = -1\n",
			want: "jobs must not be negative, got -1",
		},
		"EmptyExtensions": {
			in:   "extensions = []\n",
			want: "extensions must not be empty",
		},
		"ExtensionWithoutDot": {
			in:   "extensions = [\"vy\"]\n",
			want: "extension \"vy\" must start with a '.'",
		},
		"InvalidExcludePattern": {
			in:   "exclude = [\"[\"]\n",
			want: "invalid exclude pattern \"[\"",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "vyfmt.toml", test.in)

			_, err := config.Load(path)

			require.NotNilf(t, err, "Load(%q) should fail", test.in)
			assert.Truef(t, strings.Contains(err.Error(), test.want), "Load(%q) = %q want it to contain %q", test.in, err, test.want)
			assert.Truef(t, strings.HasPrefix(err.Error(), path), "Load(%q) = %q want it to start with the path", test.in, err)
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Run("WalksUpToTheConfig", func(t *testing.T) {
		root := t.TempDir()
		path := writeConfig(t, root, ".vyfmt.toml", "line-length = 100\n")
		dir := filepath.Join(root, "contracts", "tokens")
		require.NoErrorf(t, os.MkdirAll(dir, 0o755), "MkdirAll(%q)", dir)

		got, err := config.Discover(dir)

		require.NoErrorf(t, err, "Discover(%q)", dir)
		assert.EqualValuesf(t, got.LineLength, 100, "Discover(%q) line-length", dir)
		assert.EqualValuesf(t, got.Path, path, "Discover(%q) path", dir)
	})

	t.Run("PrefersTheVisibleFile", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, ".vyfmt.toml", "line-length = 100\n")
		path := writeConfig(t, root, "vyfmt.toml", "line-length = 120\n")

		got, ok, err := config.Find(root)

		require.NoErrorf(t, err, "Find(%q)", root)
		assert.Truef(t, ok, "Find(%q) should find a config", root)
		assert.EqualValuesf(t, got, path, "Find(%q)", root)
	})

	t.Run("ClosestConfigWins", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, "vyfmt.toml", "line-length = 100\n")
		dir := filepath.Join(root, "contracts")
		writeConfig(t, dir, "vyfmt.toml", "line-length = 120\n")

		got, err := config.Discover(dir)

		require.NoErrorf(t, err, "Discover(%q)", dir)
		assert.EqualValuesf(t, got.LineLength, 120, "Discover(%q) line-length", dir)
	})
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoErrorf(t, os.MkdirAll(dir, 0o755), "MkdirAll(%q)", dir)
	path := filepath.Join(dir, name)
	require.NoErrorf(t, os.WriteFile(path, []byte(content), 0o644), "WriteFile(%q)", path)
	return path
}
