package assetpack

import (
	"log/slog"
	"path"
	"strings"
)

// SkipCompressionFunc returns true when a file should be stored
// uncompressed. It is called once per file and should be inexpensive.
type SkipCompressionFunc func(name string, size int64) bool

// ProgressFunc receives per-file progress during packing. It may be called
// concurrently from compression workers.
type ProgressFunc func(name string, done, total int)

// packConfig holds configuration shared by Pack and Writer.
type packConfig struct {
	compression     Compression
	skipCompression []SkipCompressionFunc
	workers         int
	logger          *slog.Logger
	progress        ProgressFunc
}

// PackOption configures archive creation.
type PackOption func(*packConfig)

// PackWithCompression sets the compression algorithm. The default,
// CompressionNone, stores all content verbatim.
func PackWithCompression(c Compression) PackOption {
	return func(cfg *packConfig) {
		cfg.compression = c
	}
}

// PackWithSkipCompression adds predicates that decide to store a file
// uncompressed. If any predicate returns true, compression is skipped for
// that file. These run on the hot path, so keep them cheap.
func PackWithSkipCompression(fns ...SkipCompressionFunc) PackOption {
	return func(cfg *packConfig) {
		cfg.skipCompression = append(cfg.skipCompression, fns...)
	}
}

// PackWithWorkers bounds the number of concurrent compression workers.
// Zero or negative uses GOMAXPROCS.
func PackWithWorkers(n int) PackOption {
	return func(cfg *packConfig) {
		cfg.workers = n
	}
}

// PackWithLogger sets the logger for packing operations.
// Logging is disabled when nil.
func PackWithLogger(l *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = l
	}
}

// PackWithProgress sets a progress callback invoked once per file.
func PackWithProgress(fn ProgressFunc) PackOption {
	return func(cfg *packConfig) {
		cfg.progress = fn
	}
}

// DefaultSkipCompression returns a SkipCompressionFunc that skips small
// files and formats that are already compressed (images, audio, video),
// for which another compression pass only burns CPU.
func DefaultSkipCompression(minSize int64) SkipCompressionFunc {
	return func(name string, size int64) bool {
		if minSize > 0 && size < minSize {
			return true
		}
		ext := strings.ToLower(path.Ext(name))
		_, ok := skipCompressionExts[ext]
		return ok
	}
}

var skipCompressionExts = map[string]struct{}{
	".aac":   {},
	".avif":  {},
	".br":    {},
	".bz2":   {},
	".flac":  {},
	".gif":   {},
	".gz":    {},
	".jpeg":  {},
	".jpg":   {},
	".ktx2":  {},
	".mp3":   {},
	".mp4":   {},
	".ogg":   {},
	".opus":  {},
	".png":   {},
	".qoi":   {},
	".webm":  {},
	".webp":  {},
	".woff":  {},
	".woff2": {},
	".xz":    {},
	".zip":   {},
	".zst":   {},
}
