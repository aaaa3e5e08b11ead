package assetpack

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"

	"github.com/tidegate/assetpack/internal/index"
	"github.com/tidegate/assetpack/internal/wire"
)

// DefaultMaxDecoderMemory limits zstd decoder memory use (256MB).
const DefaultMaxDecoderMemory = 256 << 20

// Interface compliance.
var (
	_ Backend       = (*Archive)(nil)
	_ fs.FS         = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Archive provides random access to a packed asset container.
//
// An Archive is immutable after open: the index is validated and loaded
// fully into memory, and entry content is fetched with positioned reads so
// concurrent readers never share seek state. Archive implements [Backend]
// as well as fs.FS, fs.ReadFileFS, and fs.ReadDirFS.
type Archive struct {
	src     ByteSource
	idx     *index.Index
	header  wire.Header
	dataOff int64
	closer  io.Closer
	dec     *zstd.Decoder
	logger  *slog.Logger
	maxMem  uint64
	closed  atomic.Bool
}

// ArchiveOption configures archive opening.
type ArchiveOption func(*Archive)

// ArchiveWithLogger sets the logger for archive operations.
// Logging is disabled when nil.
func ArchiveWithLogger(l *slog.Logger) ArchiveOption {
	return func(a *Archive) {
		a.logger = l
	}
}

// ArchiveWithMaxDecoderMemory sets the zstd decoder memory limit, which
// also caps the uncompressed size an index record may declare.
// Zero disables the limit.
func ArchiveWithMaxDecoderMemory(limit uint64) ArchiveOption {
	return func(a *Archive) {
		a.maxMem = limit
	}
}

// fileSource adapts an *os.File to ByteSource with a size captured at open.
type fileSource struct {
	*os.File
	size int64
}

func (s fileSource) Size() int64 { return s.size }

// OpenArchive opens a standalone archive file and validates its index.
//
// The file handle is held for the archive's lifetime and released by
// Close. Entry reads use ReadAt, so the archive is safe for concurrent
// readers.
func OpenArchive(path string, opts ...ArchiveOption) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a, err := newArchive(fileSource{f, info.Size()}, f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.log().Debug("archive opened", "path", path, "entries", a.Len())
	return a, nil
}

// OpenEmbedded opens an archive from bytes held in memory, typically
// compiled into the binary with go:embed. The data is retained and must
// not be modified. After a successful open, reads cannot fail with I/O
// errors — only with ErrNotFound or corruption errors.
func OpenEmbedded(data []byte, opts ...ArchiveOption) (*Archive, error) {
	a, err := newArchive(bytes.NewReader(data), nil, opts...)
	if err != nil {
		return nil, err
	}
	a.log().Debug("embedded archive opened", "bytes", len(data), "entries", a.Len())
	return a, nil
}

func newArchive(src ByteSource, closer io.Closer, opts ...ArchiveOption) (*Archive, error) {
	a := &Archive{
		src:    src,
		closer: closer,
		maxMem: DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(a)
	}

	size := src.Size()
	if size < wire.HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", wire.ErrCorrupt, size)
	}

	headerBuf := make([]byte, wire.HeaderSize)
	if _, err := src.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("read archive header: %w", err)
	}
	header, err := wire.DecodeHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	total := uint64(wire.HeaderSize) + header.IndexLen + header.DataLen
	if header.IndexLen > uint64(size) || total != uint64(size) {
		return nil, fmt.Errorf("%w: declared size %d, actual %d", wire.ErrCorrupt, total, size)
	}

	indexBuf := make([]byte, header.IndexLen)
	if _, err := src.ReadAt(indexBuf, wire.HeaderSize); err != nil {
		return nil, fmt.Errorf("read archive index: %w", err)
	}
	entries, err := wire.DecodeIndex(indexBuf, header.DataLen)
	if err != nil {
		return nil, err
	}
	if a.maxMem > 0 {
		// Declared sizes come from untrusted input; cap them here so a
		// forged index cannot drive huge allocations at read time.
		for _, e := range entries {
			if e.OriginalSize > a.maxMem {
				return nil, fmt.Errorf("%w: entry %q declares %d bytes, limit %d",
					wire.ErrCorrupt, e.Path, e.OriginalSize, a.maxMem)
			}
		}
	}

	decOpts := []zstd.DOption{zstd.WithDecoderConcurrency(0)}
	if a.maxMem > 0 {
		decOpts = append(decOpts, zstd.WithDecoderMaxMemory(a.maxMem))
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	a.idx = index.New(entries)
	a.header = header
	a.dataOff = wire.HeaderSize + int64(header.IndexLen)
	a.dec = dec
	return a, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Close releases the underlying file handle, if any. Embedded archives
// hold no releasable resource; Close still invalidates the archive.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	a.dec.Close()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Len returns the number of entries in the archive.
func (a *Archive) Len() int {
	return a.idx.Len()
}

// Version returns the archive's format version.
func (a *Archive) Version() byte {
	return a.header.Version
}

// DataSize returns the total size of the data region in bytes.
func (a *Archive) DataSize() uint64 {
	return a.header.DataLen
}

// Entry returns the index record for the given logical path. The index is
// held in memory, so Entry, Entries, Len, Version, and DataSize remain
// usable after Close; content reads do not.
func (a *Archive) Entry(path string) (Entry, bool) {
	return a.idx.Lookup(NormalizePath(path))
}

// Entries returns an iterator over all index records in path order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		a.idx.Scan(yield)
	}
}

// List implements Backend. The returned paths are in ascending byte order.
func (a *Archive) List() ([]string, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	return a.idx.Paths(), nil
}

// ReadFile implements Backend and fs.ReadFileFS.
//
// The stored bytes are fetched with a single positioned read, decompressed
// if needed, and verified against the entry's content hash. ReadFile
// returns ErrNotFound (wrapped in *fs.PathError) for unknown paths,
// ErrCorruptArchive when the stored bytes do not match their declared
// sizes, and ErrCorruptAsset when decompression or hash verification
// fails.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	name = NormalizePath(name)
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if a.closed.Load() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrClosed}
	}

	e, ok := a.idx.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotFound}
	}

	content, err := a.readEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return content, nil
}

// readEntry fetches, decompresses, and verifies one entry's content.
func (a *Archive) readEntry(e Entry) ([]byte, error) {
	stored := make([]byte, e.StoredSize)
	// bytes.Reader.ReadAt reports EOF for zero-length reads at the end of
	// the region, so empty entries skip the read entirely.
	if len(stored) > 0 {
		if _, err := a.src.ReadAt(stored, a.dataOff+int64(e.Offset)); err != nil {
			// Bounds were validated at open; a short read means the source
			// shrank underneath us.
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: truncated data region", wire.ErrCorrupt)
			}
			return nil, err
		}
	}

	var content []byte
	switch e.Compression {
	case CompressionNone:
		content = stored
	case CompressionZstd:
		var err error
		// Let the decoder grow the buffer; sizing it from the index record
		// would turn a forged OriginalSize into a huge allocation.
		content, err = a.dec.DecodeAll(stored, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptAsset, err)
		}
	default:
		return nil, e.Compression.Valid()
	}

	if uint64(len(content)) != e.OriginalSize {
		return nil, fmt.Errorf("%w: decompressed to %d bytes, declared %d",
			wire.ErrCorrupt, len(content), e.OriginalSize)
	}
	if sha256.Sum256(content) != e.Hash {
		return nil, fmt.Errorf("%w: content hash mismatch", ErrCorruptAsset)
	}
	return content, nil
}

// Verify streams the entire data region and checks it against the hash
// recorded in the header. It reads the whole archive and is intended for
// packer output checks and tooling, not the load path.
func (a *Archive) Verify() error {
	if a.closed.Load() {
		return ErrClosed
	}
	h := sha256.New()
	section := io.NewSectionReader(a.src, a.dataOff, int64(a.header.DataLen))
	if _, err := io.Copy(h, section); err != nil {
		return fmt.Errorf("verify data region: %w", err)
	}
	if !bytes.Equal(h.Sum(nil), a.header.DataHash[:]) {
		return fmt.Errorf("%w: data region hash mismatch", wire.ErrCorrupt)
	}
	return nil
}

// Open implements fs.FS.
//
// Files are returned fully decoded and verified; directories are
// synthesized from entry paths since the format does not store them.
func (a *Archive) Open(name string) (fs.File, error) {
	name = NormalizePath(name)
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if a.closed.Load() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrClosed}
	}
	if _, ok := a.idx.Lookup(name); ok {
		content, err := a.ReadFile(name)
		if err != nil {
			return nil, err
		}
		return &memFile{
			Reader: bytes.NewReader(content),
			info:   memFileInfo{name: pathBase(name), size: int64(len(content))},
		}, nil
	}
	if a.isDir(name) {
		return &dirFile{a: a, name: name}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ReadDir implements fs.ReadDirFS. Directory entries are synthesized from
// file paths and returned sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	name = NormalizePath(name)
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if a.closed.Load() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrClosed}
	}
	entries := a.childEntries(name)
	if len(entries) == 0 && name != "." && !a.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return entries, nil
}

// isDir reports whether name is a prefix of at least one entry path.
func (a *Archive) isDir(name string) bool {
	if name == "." {
		return true
	}
	found := false
	a.idx.ScanPrefix(name+"/", func(Entry) bool {
		found = true
		return false
	})
	return found
}

// childEntries synthesizes the immediate children of a directory.
func (a *Archive) childEntries(name string) []fs.DirEntry {
	prefix := ""
	if name != "." {
		prefix = name + "/"
	}

	var out []fs.DirEntry
	last := ""
	a.idx.ScanPrefix(prefix, func(e Entry) bool {
		rest := e.Path[len(prefix):]
		child, isSubDir := splitChild(rest)
		if child == last {
			return true
		}
		last = child
		if isSubDir {
			out = append(out, fs.FileInfoToDirEntry(memFileInfo{name: child, dir: true}))
		} else {
			out = append(out, fs.FileInfoToDirEntry(memFileInfo{name: child, size: int64(e.OriginalSize)}))
		}
		return true
	})
	return out
}

// splitChild returns the first path segment of rest and whether more
// segments follow.
func splitChild(rest string) (string, bool) {
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], true
		}
	}
	return rest, false
}

func pathBase(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
