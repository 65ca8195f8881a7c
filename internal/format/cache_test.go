package format

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"github.com/teleivo/vyper/printer"
)

func TestCache(t *testing.T) {
	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		path := createFile(t, t.TempDir(), "token.vy", formatted)
		fi, err := os.Stat(path)
		require.NoErrorf(t, err, "Stat(%q)", path)

		c, err := LoadCache(filepath.Join(t.TempDir(), "cache.msgpack"))

		require.NoErrorf(t, err, "LoadCache()")
		assert.Falsef(t, c.Fresh(path, fi), "Fresh(%q) of an empty cache", path)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		cachePath := filepath.Join(t.TempDir(), "vyfmt", "cache.msgpack")
		path := createFile(t, t.TempDir(), "token.vy", formatted)
		fi, err := os.Stat(path)
		require.NoErrorf(t, err, "Stat(%q)", path)
		c, err := LoadCache(cachePath)
		require.NoErrorf(t, err, "LoadCache()")
		c.Add(path, fi)
		require.NoErrorf(t, c.Save(), "Save()")

		got, err := LoadCache(cachePath)

		require.NoErrorf(t, err, "LoadCache()")
		assert.Truef(t, got.Fresh(path, fi), "Fresh(%q) after loading the saved cache", path)
	})

	t.Run("ModifiedFileIsNotFresh", func(t *testing.T) {
		path := createFile(t, t.TempDir(), "token.vy", formatted)
		fi, err := os.Stat(path)
		require.NoErrorf(t, err, "Stat(%q)", path)
		c, err := LoadCache(filepath.Join(t.TempDir(), "cache.msgpack"))
		require.NoErrorf(t, err, "LoadCache()")
		c.Add(path, fi)

		later := fi.ModTime().Add(time.Second)
		require.NoErrorf(t, os.Chtimes(path, later, later), "Chtimes(%q)", path)
		fi, err = os.Stat(path)
		require.NoErrorf(t, err, "Stat(%q)", path)

		assert.Falsef(t, c.Fresh(path, fi), "Fresh(%q) after modifying it", path)
	})

	t.Run("CorruptFileIsEmpty", func(t *testing.T) {
		cachePath := createFile(t, t.TempDir(), "cache.msgpack", "not msgpack")
		path := createFile(t, t.TempDir(), "token.vy", formatted)
		fi, err := os.Stat(path)
		require.NoErrorf(t, err, "Stat(%q)", path)

		c, err := LoadCache(cachePath)

		require.NoErrorf(t, err, "LoadCache()")
		assert.Falsef(t, c.Fresh(path, fi), "Fresh(%q) of a corrupt cache", path)
	})

	t.Run("NilCache", func(t *testing.T) {
		var c *Cache
		path := createFile(t, t.TempDir(), "token.vy", formatted)
		fi, err := os.Stat(path)
		require.NoErrorf(t, err, "Stat(%q)", path)

		c.Add(path, fi)

		assert.Falsef(t, c.Fresh(path, fi), "Fresh(%q) of a nil cache", path)
		assert.NoErrorf(t, c.Save(), "Save() of a nil cache")
	})
}

func TestCacheKey(t *testing.T) {
	opts := printer.DefaultOptions()
	wider := opts
	wider.MaxWidth = 100

	assert.EqualValuesf(t, cacheKey(opts, "v1"), cacheKey(printer.Options{Safe: true}, "v1"), "cacheKey() should default the width")
	assert.Truef(t, cacheKey(opts, "v1") != cacheKey(wider, "v1"), "cacheKey() should depend on the width")
	assert.Truef(t, cacheKey(opts, "v1") != cacheKey(opts, "v2"), "cacheKey() should depend on the version")
}
