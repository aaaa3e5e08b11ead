package assetpack

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/assetpack/internal/testutil"
)

func TestFolderReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{
		"a.txt":     []byte("hello"),
		"dir/b.txt": []byte("bee"),
	})

	f, err := OpenFolder(dir)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = f.ReadFile("dir/b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("bee"), got)

	// Backslashes and redundant slashes normalize before lookup.
	got, err = f.ReadFile(`dir\b.txt`)
	require.NoError(t, err)
	assert.Equal(t, []byte("bee"), got)
}

func TestFolderNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"a.txt": []byte("x")})

	f, err := OpenFolder(dir)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadFile("missing.txt")
	require.ErrorIs(t, err, ErrNotFound)

	// Directories are not readable assets.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	_, err = f.ReadFile("sub")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFolderInvalidPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"a.txt": []byte("x")})

	f, err := OpenFolder(dir)
	require.NoError(t, err)
	defer f.Close()

	for _, name := range []string{"../escape", "a/../../b", ""} {
		_, err := f.ReadFile(name)
		require.ErrorIs(t, err, fs.ErrInvalid, "path %q", name)
	}
}

func TestFolderList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{
		"z.txt":         []byte("z"),
		"a.txt":         []byte("a"),
		"dir/b.txt":     []byte("b"),
		"dir/.DS_Store": []byte("junk"),
	})

	f, err := OpenFolder(dir)
	require.NoError(t, err)
	defer f.Close()

	paths, err := f.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "dir/b.txt", "z.txt"}, paths)
}

func TestFolderSeesLiveEdits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"a.txt": []byte("one")})

	f, err := OpenFolder(dir)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	// No caching at the backend level: rewrites are visible immediately.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0o644))
	got, err = f.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	testutil.WriteTree(t, dir, map[string][]byte{"new.txt": []byte("n")})
	paths, err := f.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "new.txt"}, paths)
}

func TestFolderEscapeBlocked(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	dir := filepath.Join(parent, "assets")
	testutil.WriteTree(t, parent, map[string][]byte{
		"secret.txt":      []byte("secret"),
		"assets/a.txt":    []byte("x"),
		"assets/link.txt": []byte("placeholder"),
	})
	// A symlink pointing outside the root must not be followable.
	require.NoError(t, os.Remove(filepath.Join(dir, "link.txt")))
	if err := os.Symlink(filepath.Join(parent, "secret.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	f, err := OpenFolder(dir)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadFile("link.txt")
	require.Error(t, err)
}

func TestOpenFolderMissing(t *testing.T) {
	t.Parallel()

	_, err := OpenFolder(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrSourceNotFound)

	// A plain file is not a folder source either.
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = OpenFolder(file)
	require.ErrorIs(t, err, ErrSourceNotFound)
}
