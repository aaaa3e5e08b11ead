package assetpack

import (
	"errors"

	"github.com/tidegate/assetpack/internal/wire"
)

// Errors re-exported from internal/wire.
var (
	// ErrCorruptArchive is returned when an archive fails structural
	// validation: bad magic, index records pointing outside the data
	// region, or declared sizes that do not decompress as stated.
	ErrCorruptArchive = wire.ErrCorrupt

	// ErrUnsupportedVersion is returned when an archive was written by a
	// newer format version than this package supports.
	ErrUnsupportedVersion = wire.ErrUnsupportedVersion
)

// Errors specific to the assetpack package.
var (
	// ErrNotFound is returned when the requested logical path is absent
	// from the active backend.
	ErrNotFound = errors.New("assetpack: asset not found")

	// ErrCorruptAsset is returned when an entry's content fails to decode
	// or does not match its recorded hash.
	ErrCorruptAsset = errors.New("assetpack: asset corrupt")

	// ErrSourceNotFound is returned by the packer when the source
	// directory does not exist.
	ErrSourceNotFound = errors.New("assetpack: source directory not found")

	// ErrDuplicatePath is returned by the packer when two inputs normalize
	// to the same logical path.
	ErrDuplicatePath = errors.New("assetpack: duplicate logical path")

	// ErrClosed is returned when using a backend after Close.
	ErrClosed = errors.New("assetpack: backend closed")
)
