package assetpack

import "io"

// Backend is a concrete source of asset bytes. Exactly one backend is
// active per [Loader]; all variants return byte-identical content for the
// same logical path when built from the same source tree.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// List returns every logical path visible to the backend in ascending
	// byte order.
	List() ([]string, error)

	// ReadFile returns the decoded content for the given logical path.
	// It returns an error wrapping ErrNotFound when the path is absent.
	ReadFile(name string) ([]byte, error)
}

// ByteSource provides random access to raw archive bytes. *bytes.Reader
// and *os.File (wrapped with its size) both satisfy it.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}
