// Package assetpack packages a tree of game assets into a single seekable
// archive and loads individual assets at runtime from one of three
// interchangeable backends: a plain directory tree (development), a
// standalone archive file (distribution), or archive bytes embedded in the
// binary (sandboxed targets with no filesystem).
//
// Archives use the SPAK container: a fixed header, a path-sorted index
// enabling O(log n) lookups, and a contiguous data region with per-entry
// compression so single assets can be fetched with positioned reads.
//
// # Packing
//
// Build an archive from a directory:
//
//	stats, err := assetpack.Pack(ctx, "./assets", "assets.spak",
//	    assetpack.PackWithCompression(assetpack.CompressionZstd),
//	)
//
// Packing is deterministic: the same tree with the same options produces
// byte-identical output.
//
// # Loading
//
// Open a loader over whichever source is available, falling back to the
// embedded archive:
//
//	//go:embed assets.spak
//	var embedded []byte
//
//	loader, err := assetpack.Open([]string{"./assets", "assets.spak"}, embedded)
//	if err != nil {
//	    return err
//	}
//	defer loader.Close()
//	data, err := loader.Load("textures/hero.png")
//
// All backends return byte-identical content for the same logical path,
// so game code is written once against [Loader] regardless of deployment
// target.
package assetpack
