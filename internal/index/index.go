// Package index holds decoded archive index records in memory and answers
// path lookups and ordered scans.
package index

import (
	"strings"

	"github.com/tidwall/btree"

	"github.com/tidegate/assetpack/internal/wire"
)

// Index provides O(log n) lookups of archive entries by logical path.
// Entries iterate in ascending path order, matching their order in the
// data region.
type Index struct {
	m *btree.Map[string, wire.Entry]
}

// New builds an index from decoded records. The records are assumed valid;
// wire.DecodeIndex enforces sorting and uniqueness.
func New(entries []wire.Entry) *Index {
	m := btree.NewMap[string, wire.Entry](0)
	for _, e := range entries {
		m.Set(e.Path, e)
	}
	return &Index{m: m}
}

// Lookup returns the entry for the given path.
func (ix *Index) Lookup(path string) (wire.Entry, bool) {
	return ix.m.Get(path)
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return ix.m.Len()
}

// Paths returns all logical paths in ascending order.
func (ix *Index) Paths() []string {
	paths := make([]string, 0, ix.m.Len())
	ix.m.Scan(func(path string, _ wire.Entry) bool {
		paths = append(paths, path)
		return true
	})
	return paths
}

// Scan calls fn for every entry in ascending path order until fn returns
// false.
func (ix *Index) Scan(fn func(wire.Entry) bool) {
	ix.m.Scan(func(_ string, e wire.Entry) bool {
		return fn(e)
	})
}

// ScanPrefix calls fn for every entry whose path starts with prefix, in
// ascending path order, until fn returns false.
func (ix *Index) ScanPrefix(prefix string, fn func(wire.Entry) bool) {
	ix.m.Ascend(prefix, func(path string, e wire.Entry) bool {
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		return fn(e)
	})
}
