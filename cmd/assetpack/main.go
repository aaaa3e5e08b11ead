// Command assetpack packs a directory of game assets into a SPAK archive
// and inspects existing archives.
//
// Usage:
//
//	assetpack pack -dir ./assets -out assets.spak [-compression zstd]
//	assetpack list -archive assets.spak
//	assetpack info -archive assets.spak
//	assetpack cat -archive assets.spak -path textures/hero.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tidegate/assetpack"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "pack":
		err = runPack(ctx, os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "cat":
		err = runCat(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "assetpack: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: assetpack <pack|list|info|cat> [flags]")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runPack(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	dir := fs.String("dir", "assets", "source asset directory")
	out := fs.String("out", "assets.spak", "output archive path")
	compression := fs.String("compression", "zstd", "compression: zstd or none")
	minSize := fs.Int64("min-size", 128, "minimum file size to compress, in bytes")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)

	var c assetpack.Compression
	switch *compression {
	case "zstd":
		c = assetpack.CompressionZstd
	case "none":
		c = assetpack.CompressionNone
	default:
		return fmt.Errorf("unknown compression %q", *compression)
	}

	stats, err := assetpack.Pack(ctx, *dir, *out,
		assetpack.PackWithCompression(c),
		assetpack.PackWithSkipCompression(assetpack.DefaultSkipCompression(*minSize)),
		assetpack.PackWithLogger(newLogger(*verbose)),
	)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d files, %d bytes data (%d original), %d bytes total\n",
		*out, stats.Files, stats.DataBytes, stats.OriginalBytes, stats.ArchiveBytes)
	fmt.Printf("digest: %s\n", stats.Digest)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	archivePath := fs.String("archive", "assets.spak", "archive path")
	fs.Parse(args)

	a, err := assetpack.OpenArchive(*archivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	paths, err := a.List()
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	archivePath := fs.String("archive", "assets.spak", "archive path")
	fs.Parse(args)

	a, err := assetpack.OpenArchive(*archivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Verify(); err != nil {
		return err
	}

	var stored, original uint64
	var compressed int
	for e := range a.Entries() {
		stored += e.StoredSize
		original += e.OriginalSize
		if e.Compression != assetpack.CompressionNone {
			compressed++
		}
	}
	fmt.Printf("version:    %d\n", a.Version())
	fmt.Printf("entries:    %d (%d compressed)\n", a.Len(), compressed)
	fmt.Printf("data size:  %d bytes (%d original)\n", stored, original)
	fmt.Printf("verified:   ok\n")
	return nil
}

func runCat(args []string) error {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	archivePath := fs.String("archive", "assets.spak", "archive path")
	path := fs.String("path", "", "logical path to print")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("missing -path")
	}

	a, err := assetpack.OpenArchive(*archivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	content, err := a.ReadFile(*path)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(content)
	return err
}
