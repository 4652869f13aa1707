package config

import (
	kcfg "github.com/skyfeed/adsb-ingest/sink/kafka"
	"github.com/skyfeed/adsb-ingest/source"
)

// LoadKafkaConfig and LoadSourceConfig delegate to the driver loaders
// while centralizing loader entrypoints under internal/config.

func LoadKafkaConfig(path string) (kcfg.Config, error) {
	return kcfg.LoadConfig(path)
}

func LoadSourceConfig(path, kind string) (source.Config, error) {
	return source.LoadConfig(path, kind)
}
