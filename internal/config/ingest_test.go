package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skyfeed/adsb-ingest/source"
)

func TestLoadIngestSpec_ResolvesRelativePathsAndSchema(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`schema_version: v1
source:
  kind: regional
  config: source.yml
sink:
  driver: kafka
  config: kafka_sink.yml
`)
	if err := os.WriteFile(filepath.Join(dir, "ingest.yml"), raw, 0o644); err != nil {
		t.Fatalf("write ingest: %v", err)
	}

	sp, srcPath, sinkPath, err := LoadIngestSpec(filepath.Join(dir, "ingest.yml"))
	if err != nil {
		t.Fatalf("LoadIngestSpec: %v", err)
	}
	if sp.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, sp.SchemaVersion)
	}
	if sp.Source.Kind != "regional" || sp.Sink.Driver != "kafka" {
		t.Fatalf("spec fields lost: %+v", sp)
	}
	if !filepath.IsAbs(srcPath) || !filepath.IsAbs(sinkPath) {
		t.Fatalf("want absolute config paths, got %q, %q", srcPath, sinkPath)
	}
}

func TestLoadIngestSpec_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`schema_version: v999
source: { kind: local, config: s.yml }
`)
	if err := os.WriteFile(filepath.Join(dir, "ingest.yml"), raw, 0o644); err != nil {
		t.Fatalf("write ingest: %v", err)
	}
	if _, _, _, err := LoadIngestSpec(filepath.Join(dir, "ingest.yml")); err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}

func TestLoadIngestSpec_MissingFileIsEnvOnlyMode(t *testing.T) {
	sp, srcPath, sinkPath, err := LoadIngestSpec(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing spec must not fail: %v", err)
	}
	if sp.Source.Kind != "" || srcPath != "" || sinkPath != "" {
		t.Fatalf("want zero spec, got %+v %q %q", sp, srcPath, sinkPath)
	}
}

func TestLoadLoopConfig_DefaultsPerKind(t *testing.T) {
	cfg, err := LoadLoopConfig("", source.KindLocal)
	if err != nil {
		t.Fatalf("LoadLoopConfig: %v", err)
	}
	if cfg.Topic != "flights-local" {
		t.Fatalf("topic default: %q", cfg.Topic)
	}
	if cfg.PollIntervalSeconds != 2 {
		t.Fatalf("local interval default: %d", cfg.PollIntervalSeconds)
	}
	if cfg.StartupSettleSeconds != 15 || cfg.PostConnectSettleSeconds != 10 {
		t.Fatalf("settle defaults: %+v", cfg)
	}
	if cfg.MaxConsecutiveErrors != 10 {
		t.Fatalf("max errors default: %d", cfg.MaxConsecutiveErrors)
	}

	cfg, err = LoadLoopConfig("", source.KindGlobalStream)
	if err != nil {
		t.Fatalf("LoadLoopConfig: %v", err)
	}
	if cfg.PollIntervalSeconds != 30 {
		t.Fatalf("global-stream interval default: %d", cfg.PollIntervalSeconds)
	}
}

func TestLoadLoopConfig_YAMLSectionAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`schema_version: v1
source: { kind: regional }
loop:
  topic: custom-topic
  poll_interval_seconds: 7
  max_consecutive_errors: 4
`)
	path := filepath.Join(dir, "ingest.yml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ADSB_LOOP__POLL_INTERVAL_SECONDS", "9")

	cfg, err := LoadLoopConfig(path, source.KindRegional)
	if err != nil {
		t.Fatalf("LoadLoopConfig: %v", err)
	}
	if cfg.Topic != "custom-topic" {
		t.Fatalf("yaml topic lost: %q", cfg.Topic)
	}
	if cfg.PollIntervalSeconds != 9 {
		t.Fatalf("env must override yaml interval: %d", cfg.PollIntervalSeconds)
	}
	if cfg.MaxConsecutiveErrors != 4 {
		t.Fatalf("yaml max errors lost: %d", cfg.MaxConsecutiveErrors)
	}
}

func TestLoadLoopConfig_RejectsEmptyTopic(t *testing.T) {
	if _, err := LoadLoopConfig("", ""); err == nil {
		t.Fatal("no kind and no topic must fail validation")
	}
}
