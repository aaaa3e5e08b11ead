package assetpack

import (
	"fmt"
	"hash/fnv"
)

// ID is a stable 64-bit identifier for an asset, computed as the FNV-1a
// hash of the normalized logical path. IDs are cheap to compare and hash,
// making them suitable as map keys in hot game-loop code where the path
// string itself is not needed.
type ID uint64

// IDOf normalizes path and returns its ID.
func IDOf(path string) ID {
	h := fnv.New64a()
	h.Write([]byte(NormalizePath(path)))
	return ID(h.Sum64())
}

// String returns the ID in hexadecimal.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Ref pairs a logical path with its ID.
type Ref struct {
	Path string
	ID   ID
}

// NewRef normalizes path and returns a Ref for it.
func NewRef(path string) Ref {
	p := NormalizePath(path)
	return Ref{Path: p, ID: IDOf(p)}
}
