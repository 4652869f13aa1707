package kafka

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/skyfeed/adsb-ingest/source"
)

type Config struct {
	Brokers      []string      `koanf:"brokers"`
	Acks         int16         `koanf:"required_acks"` // 0,1,-1
	RetryMax     int           `koanf:"retry_max"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	Linger       time.Duration `koanf:"linger"`
	BatchBytes   int           `koanf:"batch_bytes"`
	FlushTimeout time.Duration `koanf:"flush_timeout"`

	// Bounded construction-time retry replacing an indefinite wait.
	ConnectRetries  uint64        `koanf:"connect_retries"`
	ConnectInterval time.Duration `koanf:"connect_interval"`
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadConfig merges YAML (if present) with env-vars
// (prefix `ADSB_SINK__`, delimiter `__`).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("sink schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.ProviderWithValue("ADSB_SINK__", "__", envValue), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, "ADSB_SINK__"))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "brokers" {
		return key, source.ParseURLList(value)
	}
	return key, value
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func applyDefaults(c *Config) {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"k3s-vm1:30092", "k3s-vm2:30093"}
	}
	if c.Acks == 0 {
		c.Acks = 1
	}
	if c.RetryMax == 0 {
		c.RetryMax = 10
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.Linger == 0 {
		c.Linger = 100 * time.Millisecond
	}
	if c.BatchBytes == 0 {
		c.BatchBytes = 16384
	}
	if c.FlushTimeout == 0 {
		c.FlushTimeout = 10 * time.Second
	}
	if c.ConnectRetries == 0 {
		c.ConnectRetries = 10
	}
	if c.ConnectInterval == 0 {
		c.ConnectInterval = 30 * time.Second
	}
}
