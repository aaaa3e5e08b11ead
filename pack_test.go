package assetpack

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/assetpack/internal/testutil"
)

// packTree writes files to a temp dir and packs them, returning the
// archive path and stats.
func packTree(t *testing.T, files map[string][]byte, opts ...PackOption) (string, *PackStats) {
	t.Helper()
	src := t.TempDir()
	testutil.WriteTree(t, src, files)
	out := filepath.Join(t.TempDir(), "assets.spak")
	stats, err := Pack(context.Background(), src, out, opts...)
	require.NoError(t, err)
	return out, stats
}

func TestPackRoundTrip(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.txt":      []byte("hello"),
		"dir/b.bin":  testutil.RandomBytes(1000, 42),
		"dir/sub/c":  testutil.RepeatText(4096),
		"empty.dat":  {},
		"z/last.txt": []byte("tail"),
	}

	for _, compression := range []Compression{CompressionNone, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()

			out, stats := packTree(t, files, PackWithCompression(compression))
			assert.Equal(t, len(files), stats.Files)

			a, err := OpenArchive(out)
			require.NoError(t, err)
			defer a.Close()

			require.NoError(t, a.Verify())
			for path, want := range files {
				got, err := a.ReadFile(path)
				require.NoError(t, err, path)
				assert.True(t, bytes.Equal(want, got), "content mismatch for %s", path)
			}
		})
	}
}

func TestPackDeterministic(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"b.txt":     testutil.RepeatText(10_000),
		"a/one.bin": testutil.RandomBytes(500, 1),
		"a/two.bin": testutil.RandomBytes(500, 2),
	}

	out1, stats1 := packTree(t, files, PackWithCompression(CompressionZstd))
	out2, stats2 := packTree(t, files, PackWithCompression(CompressionZstd))

	b1, err := os.ReadFile(out1)
	require.NoError(t, err)
	b2, err := os.ReadFile(out2)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(b1, b2), "repacking the same tree must be byte-identical")
	assert.Equal(t, stats1.Digest, stats2.Digest)
}

func TestPackSourceNotFound(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "assets.spak")
	_, err := Pack(context.Background(), filepath.Join(t.TempDir(), "nope"), out)
	require.ErrorIs(t, err, ErrSourceNotFound)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "failed pack must leave no output file")
}

func TestPackSkipsJunkFiles(t *testing.T) {
	t.Parallel()

	out, stats := packTree(t, map[string][]byte{
		"a.txt":         []byte("keep"),
		".DS_Store":     []byte("junk"),
		"dir/.DS_Store": []byte("junk"),
		"dir/b.txt":     []byte("keep"),
	})
	assert.Equal(t, 2, stats.Files)

	a, err := OpenArchive(out)
	require.NoError(t, err)
	defer a.Close()

	paths, err := a.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "dir/b.txt"}, paths)
}

func TestPackCompressesCompressibleContent(t *testing.T) {
	t.Parallel()

	out, _ := packTree(t, map[string][]byte{
		"big.txt": testutil.RepeatText(100_000),
	}, PackWithCompression(CompressionZstd))

	a, err := OpenArchive(out)
	require.NoError(t, err)
	defer a.Close()

	e, ok := a.Entry("big.txt")
	require.True(t, ok)
	assert.Equal(t, CompressionZstd, e.Compression)
	assert.Less(t, e.StoredSize, e.OriginalSize)
}

func TestPackStoresIncompressibleContentPlain(t *testing.T) {
	t.Parallel()

	out, _ := packTree(t, map[string][]byte{
		"noise.bin": testutil.RandomBytes(10_000, 7),
	}, PackWithCompression(CompressionZstd))

	a, err := OpenArchive(out)
	require.NoError(t, err)
	defer a.Close()

	e, ok := a.Entry("noise.bin")
	require.True(t, ok)
	assert.Equal(t, CompressionNone, e.Compression)
	assert.Equal(t, e.OriginalSize, e.StoredSize)
}

func TestPackSkipCompressionByExtension(t *testing.T) {
	t.Parallel()

	out, _ := packTree(t, map[string][]byte{
		"img.png": testutil.RepeatText(10_000), // compressible, but .png is skipped
	},
		PackWithCompression(CompressionZstd),
		PackWithSkipCompression(DefaultSkipCompression(0)),
	)

	a, err := OpenArchive(out)
	require.NoError(t, err)
	defer a.Close()

	e, ok := a.Entry("img.png")
	require.True(t, ok)
	assert.Equal(t, CompressionNone, e.Compression)
}

func TestPackSkipCompressionMinSize(t *testing.T) {
	t.Parallel()

	out, _ := packTree(t, map[string][]byte{
		"tiny.txt": testutil.RepeatText(64),
	},
		PackWithCompression(CompressionZstd),
		PackWithSkipCompression(DefaultSkipCompression(128)),
	)

	a, err := OpenArchive(out)
	require.NoError(t, err)
	defer a.Close()

	e, ok := a.Entry("tiny.txt")
	require.True(t, ok)
	assert.Equal(t, CompressionNone, e.Compression)
}

func TestPackEmptyTree(t *testing.T) {
	t.Parallel()

	out, stats := packTree(t, nil)
	assert.Equal(t, 0, stats.Files)

	a, err := OpenArchive(out)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 0, a.Len())
}

func TestPackCancelled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string][]byte{"a.txt": []byte("hi")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "assets.spak")
	_, err := Pack(ctx, src, out)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPackProgress(t *testing.T) {
	t.Parallel()

	var seen []string
	packTree(t, map[string][]byte{
		"a.txt": []byte("one"),
		"b.txt": []byte("two"),
	}, PackWithWorkers(1), PackWithProgress(func(name string, done, total int) {
		assert.Equal(t, 2, total)
		seen = append(seen, name)
	}))
	assert.Len(t, seen, 2)
}

func TestWriterDuplicatePath(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	require.NoError(t, w.Add("a/b.txt", []byte("one")))
	err := w.Add("/a//b.txt", []byte("two"))
	require.ErrorIs(t, err, ErrDuplicatePath)

	var buf bytes.Buffer
	stats, err := w.Finish(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
}

func TestWriterInvalidPath(t *testing.T) {
	t.Parallel()

	w := NewWriter()
	for _, path := range []string{"../escape", "a/../b", ""} {
		err := w.Add(path, []byte("x"))
		require.Error(t, err, "path %q", path)
	}
	assert.Equal(t, 0, w.Len())
}
