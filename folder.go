package assetpack

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var _ Backend = (*Folder)(nil)

// Folder serves assets directly from a directory tree. It is the
// development backend: List walks the directory at call time and ReadFile
// hits the filesystem on every call, so live edits are visible without
// repacking. Nothing is cached here; layer a [Loader] cache on top when
// needed.
type Folder struct {
	root   *os.Root
	dir    string
	logger *slog.Logger
}

// FolderOption configures a folder backend.
type FolderOption func(*Folder)

// FolderWithLogger sets the logger for folder operations.
// Logging is disabled when nil.
func FolderWithLogger(l *slog.Logger) FolderOption {
	return func(f *Folder) {
		f.logger = l
	}
}

// OpenFolder opens a directory tree as an asset backend.
//
// The directory is held open as an *os.Root, so lookups cannot escape it
// via symlinks or traversal segments. Returns ErrSourceNotFound when dir
// does not exist or is not a directory.
func OpenFolder(dir string, opts ...FolderOption) (*Folder, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open folder: %w", err)
	}
	f := &Folder{root: root, dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (f *Folder) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

// Dir returns the backing directory path.
func (f *Folder) Dir() string {
	return f.dir
}

// Close releases the directory handle.
func (f *Folder) Close() error {
	return f.root.Close()
}

// List implements Backend. It walks the directory tree on every call so
// files added or removed since open are reflected immediately. Paths are
// returned in ascending byte order; symlinks, non-regular files, and
// .DS_Store junk are excluded, matching the packer's enumeration.
func (f *Folder) List() ([]string, error) {
	var paths []string
	err := fs.WalkDir(f.root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Type() != 0 {
			return nil
		}
		if filepath.Base(path) == junkFile {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	return paths, nil
}

// ReadFile implements Backend. The logical path is normalized and resolved
// inside the root; traversal segments are rejected with fs.ErrInvalid and
// missing files return ErrNotFound. Transient I/O errors (a file locked
// mid-save by an editor) propagate as-is; callers retry explicitly.
func (f *Folder) ReadFile(name string) ([]byte, error) {
	name = NormalizePath(name)
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := f.root.Open(filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotFound}
		}
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotFound}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	f.log().Debug("folder read", "path", name, "bytes", len(content))
	return content, nil
}
