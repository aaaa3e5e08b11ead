package assetpack

import (
	"fmt"
	"os"
)

// Open builds a Loader from the first usable candidate source, falling
// back to embedded archive bytes when no candidate exists on disk.
//
// Each candidate path is probed in order: a directory becomes a folder
// backend, a file is opened as an archive. This lets one binary prefer a
// checkout's asset tree during development, then a sibling archive file,
// and finally the bytes compiled into it:
//
//	loader, err := assetpack.Open([]string{"assets", "assets.spak"}, embedded)
//
// With no usable candidate and no embedded bytes, Open fails with
// ErrSourceNotFound.
func Open(candidates []string, embedded []byte, opts ...LoaderOption) (*Loader, error) {
	// Construct a throwaway loader to resolve the configured logger for
	// probe logging before a backend exists.
	probe := NewLoader(nil, opts...)
	log := probe.log()

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			log.Info("asset source not found", "path", candidate)
			continue
		}
		if info.IsDir() {
			folder, err := OpenFolder(candidate, FolderWithLogger(probe.logger))
			if err != nil {
				return nil, err
			}
			log.Info("using folder assets", "dir", candidate)
			return NewLoader(folder, opts...), nil
		}
		archive, err := OpenArchive(candidate, ArchiveWithLogger(probe.logger))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", candidate, err)
		}
		log.Info("using archive assets", "path", candidate, "entries", archive.Len())
		return NewLoader(archive, opts...), nil
	}

	if len(embedded) == 0 {
		return nil, fmt.Errorf("%w: no candidate sources and no embedded archive", ErrSourceNotFound)
	}
	archive, err := OpenEmbedded(embedded, ArchiveWithLogger(probe.logger))
	if err != nil {
		return nil, err
	}
	log.Info("using embedded assets", "bytes", len(embedded), "entries", archive.Len())
	return NewLoader(archive, opts...), nil
}
