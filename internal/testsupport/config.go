package testsupport

import (
	"path/filepath"
	"testing"

	"solocollect/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Collection.RequestDelaySeconds = 0
	cfg.Collection.TranscriptDelayMin = 0
	cfg.Collection.TranscriptDelayMax = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSeasonedChannel overrides the authoritative channel identity.
func WithSeasonedChannel(handle, id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Channel.Handle = handle
		cfg.Channel.ID = id
	}
}

// WithLanguages overrides the preferred transcript languages.
func WithLanguages(languages ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Collection.PreferredLanguages = languages
	}
}
