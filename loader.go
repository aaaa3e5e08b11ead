package assetpack

import (
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader is the single front-end for asset access. It holds exactly one
// active [Backend], selected at construction, and memoizes decoded bytes
// in an in-memory cache keyed by logical path.
//
// Loader is safe for concurrent use. Loads for different paths proceed
// independently; concurrent loads for the same path are coalesced so the
// decode work happens once and every caller receives the same bytes.
type Loader struct {
	backend Backend
	logger  *slog.Logger
	caching bool

	mu    sync.RWMutex
	cache map[string][]byte
	group singleflight.Group
}

// NewLoader creates a Loader over the given backend. Caching is enabled
// by default; disable it with LoaderWithCache(false) when asset content
// must track live edits byte-for-byte (the cache is also droppable at any
// time with Clear).
func NewLoader(b Backend, opts ...LoaderOption) *Loader {
	l := &Loader{backend: b, caching: true}
	for _, opt := range opts {
		opt(l)
	}
	if l.caching {
		l.cache = make(map[string][]byte)
	}
	return l
}

// log returns the logger, falling back to a discard logger if nil.
func (l *Loader) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// Backend returns the active backend.
func (l *Loader) Backend() Backend {
	return l.backend
}

// Load returns the decoded bytes for the given logical path.
//
// It fails with ErrNotFound when the path is absent from the active
// backend and ErrCorruptAsset when decoding fails. There is no implicit
// retry: transient folder I/O errors propagate and callers re-invoke Load
// explicitly.
//
// When caching is enabled the returned slice is shared between callers
// and must be treated as read-only.
func (l *Loader) Load(path string) ([]byte, error) {
	name := NormalizePath(path)
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "load", Path: name, Err: fs.ErrInvalid}
	}

	if !l.caching {
		return l.backend.ReadFile(name)
	}

	l.mu.RLock()
	content, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		l.log().Debug("cache hit", "path", name)
		return content, nil
	}

	// Coalesce concurrent loads per path: one decode runs, the rest wait
	// for its result. Loads for other paths are not blocked.
	result, err, _ := l.group.Do(name, func() (any, error) {
		l.mu.RLock()
		content, ok := l.cache[name]
		l.mu.RUnlock()
		if ok {
			return content, nil
		}

		l.log().Debug("cache miss", "path", name)
		content, readErr := l.backend.ReadFile(name)
		if readErr != nil {
			return nil, readErr
		}

		l.mu.Lock()
		l.cache[name] = content
		l.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// List returns every logical path visible to the active backend.
func (l *Loader) List() ([]string, error) {
	return l.backend.List()
}

// ListDir returns the logical paths under the given directory prefix,
// mirroring the layout-independent "all files in textures/" query game
// code tends to ask.
func (l *Loader) ListDir(dir string) ([]string, error) {
	paths, err := l.backend.List()
	if err != nil {
		return nil, err
	}
	dir = NormalizePath(dir)
	if dir == "." {
		return paths, nil
	}
	prefix := dir + "/"
	var out []string
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Clear drops all cached content in bulk. In a development loop against a
// folder backend, Clear after an asset edit makes subsequent loads pick
// up the new content; the folder backend itself never caches.
func (l *Loader) Clear() {
	if !l.caching {
		return
	}
	l.mu.Lock()
	l.cache = make(map[string][]byte)
	l.mu.Unlock()
	l.log().Debug("cache cleared")
}

// CacheLen returns the number of cached entries.
func (l *Loader) CacheLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// Close clears the cache and releases the backend's resources, if it
// holds any.
func (l *Loader) Close() error {
	l.Clear()
	if c, ok := l.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
