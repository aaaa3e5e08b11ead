// Package wire implements the SPAK binary container layout: a fixed
// header, a varint-encoded index, and a contiguous entry data region.
//
// The index is decodable without touching entry data, and index records
// carry offset+length pairs into the data region so single entries can be
// fetched with positioned reads. Offsets are relative to the start of the
// data region.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
)

// Magic identifies a SPAK archive. It is followed by a single version byte.
const Magic = "SPAK"

// Version is the current archive format version.
const Version byte = 1

// HeaderSize is the fixed size of the archive header in bytes:
// magic (4) + version (1) + index length (8) + data length (8) + data hash (32).
const HeaderSize = 4 + 1 + 8 + 8 + 32

// HashSize is the size of the per-entry and data-region SHA-256 hashes.
const HashSize = 32

// Sentinel errors shared with the public package.
var (
	// ErrCorrupt is returned when the header, index, or data region fails
	// structural validation.
	ErrCorrupt = errors.New("assetpack: corrupt archive")

	// ErrUnsupportedVersion is returned when the archive was written by an
	// incompatible format version.
	ErrUnsupportedVersion = errors.New("assetpack: unsupported archive version")
)

// Compression identifies the algorithm used to store an entry.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Valid returns nil iff c names a known algorithm.
func (c Compression) Valid() error {
	switch c {
	case CompressionNone, CompressionZstd:
		return nil
	}
	return fmt.Errorf("%w: unknown compression %d", ErrCorrupt, c)
}

// Header is the fixed-size archive header.
type Header struct {
	// Version is the format version the archive was written with.
	Version byte

	// IndexLen is the encoded index length in bytes. The data region starts
	// at HeaderSize+IndexLen.
	IndexLen uint64

	// DataLen is the total length of the data region in bytes.
	DataLen uint64

	// DataHash is the SHA-256 of the entire data region.
	DataHash [HashSize]byte
}

// Entry is one index record.
type Entry struct {
	// Path is the normalized, forward-slash logical path of the asset.
	Path string

	// Offset is the byte offset of the stored content, relative to the
	// start of the data region.
	Offset uint64

	// StoredSize is the on-disk size of the content. For compressed entries
	// this is the compressed size.
	StoredSize uint64

	// OriginalSize is the uncompressed content size. Equal to StoredSize
	// for uncompressed entries.
	OriginalSize uint64

	// Compression is the algorithm used to store the content.
	Compression Compression

	// Hash is the SHA-256 of the uncompressed content.
	Hash [HashSize]byte
}

// EncodeHeader serializes h into a fixed HeaderSize buffer.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic)
	buf[4] = h.Version
	binary.LittleEndian.PutUint64(buf[5:], h.IndexLen)
	binary.LittleEndian.PutUint64(buf[13:], h.DataLen)
	copy(buf[21:], h.DataHash[:])
	return buf
}

// DecodeHeader parses and validates a fixed-size header.
//
// A bad magic value yields ErrCorrupt; a version newer than Version yields
// ErrUnsupportedVersion so callers fail fast instead of misreading newer
// layouts.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrCorrupt, len(buf))
	}
	if string(buf[:4]) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, buf[:4])
	}
	h := Header{Version: buf[4]}
	if h.Version == 0 || h.Version > Version {
		return Header{}, fmt.Errorf("%w: version %d (supported: %d)", ErrUnsupportedVersion, h.Version, Version)
	}
	h.IndexLen = binary.LittleEndian.Uint64(buf[5:])
	h.DataLen = binary.LittleEndian.Uint64(buf[13:])
	copy(h.DataHash[:], buf[21:])
	return h, nil
}

// EncodeIndex serializes index records. Entries must already be sorted by
// path in ascending byte order; the packer guarantees this and DecodeIndex
// enforces it.
func EncodeIndex(entries []Entry) []byte {
	var buf bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte

	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		buf.Write(scratch[:n])
	}

	putUvarint(uint64(len(entries)))
	for _, e := range entries {
		putUvarint(uint64(len(e.Path)))
		buf.WriteString(e.Path)
		putUvarint(e.Offset)
		putUvarint(e.StoredSize)
		putUvarint(e.OriginalSize)
		buf.WriteByte(byte(e.Compression))
		buf.Write(e.Hash[:])
	}
	return buf.Bytes()
}

// DecodeIndex parses index records and validates them against the data
// region length: paths must be valid and strictly ascending, offsets and
// sizes must stay within the data region, and uncompressed entries must
// declare matching stored and original sizes.
func DecodeIndex(buf []byte, dataLen uint64) ([]Entry, error) {
	r := bytes.NewReader(buf)

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: index entry count: %v", ErrCorrupt, err)
	}
	if count > uint64(len(buf)) {
		// Each record takes well over one byte; an impossible count means
		// garbage, not a huge archive.
		return nil, fmt.Errorf("%w: implausible entry count %d", ErrCorrupt, count)
	}

	entries := make([]Entry, 0, count)
	prev := ""
	for i := uint64(0); i < count; i++ {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, err
		}
		if !fs.ValidPath(e.Path) || e.Path == "." {
			return nil, fmt.Errorf("%w: invalid entry path %q", ErrCorrupt, e.Path)
		}
		if i > 0 && e.Path <= prev {
			return nil, fmt.Errorf("%w: index not sorted at %q", ErrCorrupt, e.Path)
		}
		prev = e.Path

		if e.StoredSize > math.MaxUint64-e.Offset {
			return nil, fmt.Errorf("%w: entry %q offset overflow", ErrCorrupt, e.Path)
		}
		if e.Offset+e.StoredSize > dataLen {
			return nil, fmt.Errorf("%w: entry %q exceeds data region (%d+%d > %d)",
				ErrCorrupt, e.Path, e.Offset, e.StoredSize, dataLen)
		}
		if e.Compression == CompressionNone && e.StoredSize != e.OriginalSize {
			return nil, fmt.Errorf("%w: entry %q stored/original size mismatch", ErrCorrupt, e.Path)
		}
		entries = append(entries, e)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing index bytes", ErrCorrupt, r.Len())
	}
	return entries, nil
}

func decodeEntry(r *bytes.Reader) (Entry, error) {
	var e Entry

	pathLen, err := binary.ReadUvarint(r)
	if err != nil {
		return e, fmt.Errorf("%w: entry path length: %v", ErrCorrupt, err)
	}
	if pathLen > uint64(r.Len()) {
		return e, fmt.Errorf("%w: entry path length %d exceeds index", ErrCorrupt, pathLen)
	}
	path := make([]byte, pathLen)
	if _, err := io.ReadFull(r, path); err != nil {
		return e, fmt.Errorf("%w: entry path: %v", ErrCorrupt, err)
	}
	e.Path = string(path)

	if e.Offset, err = binary.ReadUvarint(r); err != nil {
		return e, fmt.Errorf("%w: entry %q offset: %v", ErrCorrupt, e.Path, err)
	}
	if e.StoredSize, err = binary.ReadUvarint(r); err != nil {
		return e, fmt.Errorf("%w: entry %q stored size: %v", ErrCorrupt, e.Path, err)
	}
	if e.OriginalSize, err = binary.ReadUvarint(r); err != nil {
		return e, fmt.Errorf("%w: entry %q original size: %v", ErrCorrupt, e.Path, err)
	}

	c, err := r.ReadByte()
	if err != nil {
		return e, fmt.Errorf("%w: entry %q compression: %v", ErrCorrupt, e.Path, err)
	}
	e.Compression = Compression(c)
	if err := e.Compression.Valid(); err != nil {
		return e, fmt.Errorf("entry %q: %w", e.Path, err)
	}

	if _, err := io.ReadFull(r, e.Hash[:]); err != nil {
		return e, fmt.Errorf("%w: entry %q hash: truncated", ErrCorrupt, e.Path)
	}
	return e, nil
}
