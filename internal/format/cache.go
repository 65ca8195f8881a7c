package format

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/adrg/xdg"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/teleivo/vyper/printer"
)

// Cache remembers files that were well formatted. A file is skipped as long as its size and
// modification time did not change. Entries are bound to the options they were formatted with
// through the cache file name.
type Cache struct {
	path    string
	mu      sync.Mutex
	entries map[string]cacheEntry
	dirty   bool
}

type cacheEntry struct {
	Size    int64 `msgpack:"size"`
	ModTime int64 `msgpack:"mtime"`
}

// OpenCache opens the cache for the given options in the user cache directory.
func OpenCache(opts printer.Options, version string) (*Cache, error) {
	path, err := xdg.CacheFile(filepath.Join("vyfmt", "cache."+cacheKey(opts, version)+".msgpack"))
	if err != nil {
		return nil, fmt.Errorf("failed to locate cache: %v", err)
	}
	return LoadCache(path)
}

// LoadCache loads the cache stored at path. A missing file results in an empty cache.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]cacheEntry)}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to open cache: %v", err)
	}
	defer func() { _ = f.Close() }()

	if err := msgpack.NewDecoder(f).Decode(&c.entries); err != nil {
		// a corrupt cache only costs formatting every file again
		c.entries = make(map[string]cacheEntry)
		c.dirty = true
	}
	return c, nil
}

// cacheKey identifies the options that change the formatted output.
func cacheKey(opts printer.Options, version string) string {
	width := opts.MaxWidth
	if width <= 0 {
		width = printer.DefaultOptions().MaxWidth
	}
	sum := sha256.Sum256([]byte(version + "\x00" + strconv.Itoa(width) + "\x00" + strconv.FormatBool(opts.Safe)))
	return hex.EncodeToString(sum[:8])
}

// Fresh reports whether the file at path is unchanged since it was added to the cache.
func (c *Cache) Fresh(path string, fi fs.FileInfo) bool {
	if c == nil {
		return false
	}
	key, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.Size == fi.Size() && e.ModTime == fi.ModTime().UnixNano()
}

// Add records the file at path as well formatted.
func (c *Cache) Add(path string, fi fs.FileInfo) {
	if c == nil {
		return
	}
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}
	c.dirty = true
}

// Save writes the cache to disk if it changed.
func (c *Cache) Save() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %v", err)
	}
	data, err := msgpack.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %v", err)
	}
	if err := writeFile(c.path, 0o644, data); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
