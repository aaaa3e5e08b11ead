package assetpack

import "github.com/tidegate/assetpack/internal/wire"

// Entry is one archive index record.
type Entry = wire.Entry

// Compression identifies the algorithm used to store an entry.
type Compression = wire.Compression

// Compression constants.
const (
	CompressionNone = wire.CompressionNone
	CompressionZstd = wire.CompressionZstd
)

// FormatVersion is the archive format version written by this package.
const FormatVersion = wire.Version
