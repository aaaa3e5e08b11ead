package assetpack

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/tidegate/assetpack/internal/wire"
)

// PackStats describes a finished archive.
type PackStats struct {
	// Files is the number of entries written.
	Files int

	// DataBytes is the size of the data region (stored, post-compression).
	DataBytes uint64

	// OriginalBytes is the total uncompressed content size.
	OriginalBytes uint64

	// ArchiveBytes is the total archive size including header and index.
	ArchiveBytes int64

	// Digest is the canonical digest of the complete archive, useful for
	// verifying build reproducibility.
	Digest digest.Digest
}

// Writer accumulates assets in memory and emits one archive.
//
// Writer is the low-level packing surface for build pipelines that source
// content from somewhere other than a directory tree. [Pack] drives it for
// the common walk-a-directory case.
//
// Writer is not safe for concurrent use.
type Writer struct {
	cfg     packConfig
	content map[string][]byte
}

// NewWriter creates an empty archive writer.
func NewWriter(opts ...PackOption) *Writer {
	cfg := packConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Writer{cfg: cfg, content: make(map[string][]byte)}
}

// Add records one asset under its normalized logical path. The data slice
// is retained until Finish; callers must not modify it.
//
// Paths with traversal segments or drive prefixes are rejected with
// fs.ErrInvalid. Two adds normalizing to the same logical path fail with
// ErrDuplicatePath rather than silently overwriting.
func (w *Writer) Add(name string, data []byte) error {
	name = NormalizePath(name)
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "add", Path: name, Err: fs.ErrInvalid}
	}
	if _, ok := w.content[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, name)
	}
	w.content[name] = data
	return nil
}

// Len returns the number of assets added so far.
func (w *Writer) Len() int {
	return len(w.content)
}

// Finish writes the complete archive to out and returns its stats.
//
// Entries are written in ascending path order with a fixed compression
// level, so the same content always produces byte-identical output.
// Per-entry compression runs in parallel; assembly is strictly ordered.
func (w *Writer) Finish(ctx context.Context, out io.Writer) (*PackStats, error) {
	paths := make([]string, 0, len(w.content))
	for path := range w.content {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	stored, entries, err := w.compressAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	// Assign offsets and hash the data region before the header is
	// written, since the header records both.
	dataHash := sha256.New()
	var offset, originalBytes uint64
	for i := range entries {
		entries[i].Offset = offset
		offset += entries[i].StoredSize
		originalBytes += entries[i].OriginalSize
		dataHash.Write(stored[i])
	}

	indexBuf := wire.EncodeIndex(entries)
	header := wire.Header{
		Version:  wire.Version,
		IndexLen: uint64(len(indexBuf)),
		DataLen:  offset,
	}
	dataHash.Sum(header.DataHash[:0])

	dgst := digest.Canonical.Digester()
	counted := &countingWriter{w: io.MultiWriter(out, dgst.Hash())}

	if _, err := counted.Write(wire.EncodeHeader(header)); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := counted.Write(indexBuf); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	for i, blob := range stored {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := counted.Write(blob); err != nil {
			return nil, fmt.Errorf("write %s: %w", entries[i].Path, err)
		}
	}

	w.log().Info("archive written",
		"files", len(entries), "data_bytes", offset, "archive_bytes", counted.n)

	return &PackStats{
		Files:         len(entries),
		DataBytes:     offset,
		OriginalBytes: originalBytes,
		ArchiveBytes:  counted.n,
		Digest:        dgst.Digest(),
	}, nil
}

// compressAll produces stored bytes and index records for every path, in
// path order. Compression is fanned out across workers; results land in
// per-index slots so output order never depends on scheduling.
func (w *Writer) compressAll(ctx context.Context, paths []string) ([][]byte, []wire.Entry, error) {
	stored := make([][]byte, len(paths))
	entries := make([]wire.Entry, len(paths))

	var enc *zstd.Encoder
	if w.cfg.compression == CompressionZstd {
		var err error
		// Level and window stay fixed so output is reproducible.
		enc, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		defer enc.Close()
	}

	workers := w.cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var done int64
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw := w.content[path]

			compression := CompressionNone
			blob := raw
			if enc != nil && !w.shouldSkip(path, int64(len(raw))) {
				compressed := enc.EncodeAll(raw, nil)
				// Keep incompressible content stored plain so reads skip
				// the decoder entirely.
				if len(compressed) < len(raw) {
					compression = CompressionZstd
					blob = compressed
				}
			}

			stored[i] = blob
			entries[i] = wire.Entry{
				Path:         path,
				StoredSize:   uint64(len(blob)),
				OriginalSize: uint64(len(raw)),
				Compression:  compression,
				Hash:         sha256.Sum256(raw),
			}
			w.reportProgress(path, &done, len(paths))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stored, entries, nil
}

// reportProgress invokes the progress callback, if any. Callbacks fire
// from compression workers and must be safe for concurrent use.
func (w *Writer) reportProgress(path string, done *int64, total int) {
	if w.cfg.progress == nil {
		return
	}
	n := atomic.AddInt64(done, 1)
	w.cfg.progress(path, int(n), total)
}

func (w *Writer) shouldSkip(path string, size int64) bool {
	for _, fn := range w.cfg.skipCompression {
		if fn != nil && fn(path, size) {
			return true
		}
	}
	return false
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.cfg.logger
}

// countingWriter tracks bytes written to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
