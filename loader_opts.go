package assetpack

import "log/slog"

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// LoaderWithCache enables or disables the decode cache (default: enabled).
func LoaderWithCache(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.caching = enabled
	}
}

// LoaderWithLogger sets the logger for loader operations.
// Logging is disabled when nil.
func LoaderWithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}
