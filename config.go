package assetpack

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Backend kinds selectable via configuration.
const (
	BackendFolder   = "folder"
	BackendArchive  = "archive"
	BackendEmbedded = "embedded"
)

// Config selects the asset backend at startup. It is typically parsed
// from the environment with ConfigFromEnv, letting the same binary run
// against a live asset tree in development and a packed archive in
// distribution without code changes.
type Config struct {
	// Backend is the backend kind: folder, archive, or embedded.
	Backend string `env:"ASSETPACK_BACKEND" envDefault:"folder"`

	// Dir is the asset directory for the folder backend.
	Dir string `env:"ASSETPACK_DIR" envDefault:"assets"`

	// Archive is the archive file path for the archive backend.
	Archive string `env:"ASSETPACK_ARCHIVE" envDefault:"assets.spak"`
}

// ConfigFromEnv loads configuration from ASSETPACK_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewLoader constructs a Loader for the configured backend. The embedded
// bytes are only consulted for the embedded backend kind and may be nil
// otherwise.
func (c Config) NewLoader(embedded []byte, opts ...LoaderOption) (*Loader, error) {
	var (
		backend Backend
		err     error
	)
	switch c.Backend {
	case BackendFolder:
		backend, err = OpenFolder(c.Dir)
	case BackendArchive:
		backend, err = OpenArchive(c.Archive)
	case BackendEmbedded:
		backend, err = OpenEmbedded(embedded)
	default:
		return nil, fmt.Errorf("unknown backend kind %q", c.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewLoader(backend, opts...), nil
}
