// Package testutil provides helpers for building asset trees in tests.
package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree materializes files (logical path -> content) under root,
// creating parent directories as needed.
func WriteTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, content, 0o644))
	}
}

// RandomBytes returns n deterministic pseudo-random bytes for the given
// seed, so test content is reproducible but incompressible.
func RandomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

// RepeatText returns n bytes of highly compressible text.
func RepeatText(n int) []byte {
	const chunk = "all work and no play makes a dull asset pipeline. "
	b := make([]byte, n)
	for i := range b {
		b[i] = chunk[i%len(chunk)]
	}
	return b
}
