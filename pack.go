package assetpack

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// junkFile is excluded from packing and folder listings.
const junkFile = ".DS_Store"

// Pack builds one archive from the contents of dir and writes it to out
// atomically.
//
// All regular files under dir are included recursively; their logical
// paths are the root-relative paths with forward slashes. Symbolic links,
// non-regular files, and .DS_Store are skipped. Empty directories are not
// preserved: the format maps paths to bytes and nothing else.
//
// Packing is deterministic: the same tree with the same options produces
// byte-identical output. The archive is written to a temporary file and
// renamed into place only on success, so a failed pack never leaves
// something that looks like a complete archive.
//
// The context cancels enumeration and compression between files.
func Pack(ctx context.Context, dir, out string, opts ...PackOption) (*PackStats, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer root.Close()

	w := NewWriter(opts...)
	w.log().Info("packing", "dir", dir, "out", out, "compression", w.cfg.compression.String())

	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || d.Type() != 0 {
			return nil
		}
		if filepath.Base(path) == junkFile {
			w.log().Debug("skipping junk file", "path", path)
			return nil
		}
		data, err := readRootFile(root, path)
		if err != nil {
			return err
		}
		return w.Add(path, data)
	})
	if err != nil {
		return nil, err
	}

	return writeArchiveAtomic(ctx, w, out)
}

// readRootFile reads one regular file through the root handle.
func readRootFile(root *os.Root, name string) ([]byte, error) {
	f, err := root.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// writeArchiveAtomic finishes the writer into a temp file and renames it
// over out on success only.
func writeArchiveAtomic(ctx context.Context, w *Writer, out string) (*PackStats, error) {
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".assetpack-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	stats, err := w.Finish(ctx, tmp)
	if err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, out); err != nil {
		return nil, fmt.Errorf("rename to output: %w", err)
	}
	success = true
	return stats, nil
}
