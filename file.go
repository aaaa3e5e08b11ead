package assetpack

import (
	"bytes"
	"io"
	"io/fs"
	"time"
)

// memFile is an fs.File over fully decoded entry content.
type memFile struct {
	*bytes.Reader
	info memFileInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Close() error               { return nil }

// dirFile implements fs.ReadDirFile for synthesized directories. The
// archive stores only files; directories exist as path prefixes.
type dirFile struct {
	a       *Archive
	name    string
	entries []fs.DirEntry
	offset  int
}

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dirFile) Stat() (fs.FileInfo, error) {
	return memFileInfo{name: pathBase(d.name), dir: true}, nil
}

func (d *dirFile) Close() error { return nil }

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		d.entries = d.a.childEntries(d.name)
	}
	remaining := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.offset += n
	return remaining[:n], nil
}

// memFileInfo implements fs.FileInfo for archive files and synthesized
// directories. The format stores no filesystem metadata, so mode and
// modification time are fixed.
type memFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return fi.dir }
func (fi memFileInfo) Sys() any           { return nil }

func (fi memFileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
