package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skyfeed/adsb-ingest/internal/spec"
)

const SupportedSchema = "v1"

// LoadIngestSpec parses the top-level ingest YAML, validates
// schema_version, and returns the parsed spec plus absolute paths to the
// source and sink config files (if set). A missing spec file is fine:
// the ingester then runs entirely from env vars.
func LoadIngestSpec(path string) (spec.File, string, string, error) {
	var cfg spec.File
	if path == "" {
		return cfg, "", "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, "", "", nil
		}
		return cfg, "", "", err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", "", err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", "", fmt.Errorf("ingest schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	dir := filepath.Dir(path)
	return cfg, absTo(dir, cfg.Source.Config), absTo(dir, cfg.Sink.Config), nil
}

func absTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
