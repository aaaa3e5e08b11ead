package assetpack

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/assetpack/internal/testutil"
)

func TestOpenPrefersFolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"a.txt": []byte("from folder")})

	l, err := Open([]string{dir, "nonexistent.spak"}, nil)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Load("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("from folder"), got)
}

func TestOpenFallsBackToArchive(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	testutil.WriteTree(t, srcDir, map[string][]byte{"a.txt": []byte("from archive")})
	archivePath := filepath.Join(t.TempDir(), "assets.spak")
	_, err := Pack(context.Background(), srcDir, archivePath)
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "nope")
	l, err := Open([]string{missing, archivePath}, nil)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Load("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("from archive"), got)
}

func TestOpenFallsBackToEmbedded(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	testutil.WriteTree(t, srcDir, map[string][]byte{"a.txt": []byte("from embedded")})
	archivePath := filepath.Join(t.TempDir(), "assets.spak")
	_, err := Pack(context.Background(), srcDir, archivePath)
	require.NoError(t, err)
	embedded, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "nope")
	l, err := Open([]string{missing}, embedded)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Load("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("from embedded"), got)
}

func TestOpenNoSource(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Open([]string{missing}, nil)
	require.ErrorIs(t, err, ErrSourceNotFound)

	_, err = Open(nil, nil)
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestOpenBadArchiveCandidate(t *testing.T) {
	t.Parallel()

	bogus := filepath.Join(t.TempDir(), "bogus.spak")
	require.NoError(t, os.WriteFile(bogus, []byte("not an archive"), 0o644))

	_, err := Open([]string{bogus}, nil)
	require.ErrorIs(t, err, ErrCorruptArchive)
}
