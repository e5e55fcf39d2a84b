package streamproxy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
)

const cacheExt = ".audio"

// diskCache stores complete upstream responses as files named by the hash
// of their upstream URL. Least recently used files are evicted first.
type diskCache struct {
	dir string

	mu    sync.Mutex
	limit int64
}

func newDiskCache(dir string, limit int64) (*diskCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &diskCache{dir: dir, limit: limit}, nil
}

func cacheKey(upstreamURL string) string {
	sum := sha256.Sum256([]byte(upstreamURL))
	return hex.EncodeToString(sum[:])
}

func (c *diskCache) path(key string) string {
	return filepath.Join(c.dir, key+cacheExt)
}

// open returns the cached file for key and marks it as recently used
func (c *diskCache) open(key string) (*os.File, bool) {
	p := c.path(key)
	f, err := os.Open(p) // #nosec G304 -- name is a hex digest inside the cache dir
	if err != nil {
		return nil, false
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return f, true
}

// store copies r to the client writer and, once complete, atomically
// publishes the copy under key. A short copy leaves nothing behind.
func (c *diskCache) store(key string, dst io.Writer, r io.Reader) (int64, error) {
	pending, err := renameio.NewPendingFile(c.path(key), renameio.WithPermissions(0o600))
	if err != nil {
		// Serve uncached rather than fail the request.
		logging.Warn("Cache unavailable, streaming without caching", zap.Error(err))
		return io.Copy(dst, r)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	n, err := io.Copy(io.MultiWriter(dst, pending), r)
	if err != nil {
		return n, err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		logging.Warn("Failed to publish cache entry", zap.String("key", key), zap.Error(err))
		return n, nil
	}

	c.trim()
	return n, nil
}

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

func (c *diskCache) files() ([]cacheFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), cacheExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		files = append(files, cacheFile{
			path:    filepath.Join(c.dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// usage returns the total bytes and file count in the cache
func (c *diskCache) usage() (int64, int) {
	files, err := c.files()
	if err != nil {
		return 0, 0
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total, len(files)
}

func (c *diskCache) setLimit(limit int64) {
	c.mu.Lock()
	c.limit = limit
	c.mu.Unlock()
	c.trim()
}

// trim evicts the oldest files until the cache fits its limit
func (c *diskCache) trim() {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := c.files()
	if err != nil {
		logging.Warn("Failed to list cache", zap.String("dir", c.dir), zap.Error(err))
		return
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	if total <= c.limit {
		return
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files {
		if total <= c.limit {
			break
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Failed to evict cache entry", zap.String("path", f.path), zap.Error(err))
			continue
		}
		total -= f.size
		logging.Debug("Evicted cache entry", zap.String("path", f.path), zap.Int64("size", f.size))
	}
}
