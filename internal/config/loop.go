package config

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

// Loop holds the control-loop settings: the steady-state cadence, the
// settle phases that keep supervised restarts from hammering upstreams,
// and the fatal error budget. Intervals are plain seconds, as in the
// environment the original deployment used.
type Loop struct {
	Topic                    string `koanf:"topic"`
	PollIntervalSeconds      int    `koanf:"poll_interval_seconds"`
	StartupSettleSeconds     int    `koanf:"startup_settle_seconds"`
	PostConnectSettleSeconds int    `koanf:"post_connect_settle_seconds"`
	MaxConsecutiveErrors     int    `koanf:"max_consecutive_errors"`
	MetricsPort              int    `koanf:"metrics_port"`
}

func (l Loop) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalSeconds) * time.Second
}
func (l Loop) StartupSettle() time.Duration {
	return time.Duration(l.StartupSettleSeconds) * time.Second
}
func (l Loop) PostConnectSettle() time.Duration {
	return time.Duration(l.PostConnectSettleSeconds) * time.Second
}

// LoadLoopConfig merges the `loop:` section of the ingest YAML (if any)
// with env-vars (prefix `ADSB_LOOP__`, delimiter `__`) and applies
// per-kind defaults.
func LoadLoopConfig(specPath, kind string) (Loop, error) {
	k := koanf.New(".")
	if specPath != "" {
		if err := k.Load(file.Provider(specPath), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Loop{}, err
		}
	}
	_ = k.Load(env.Provider("ADSB_LOOP__", "__", func(s string) string {
		return "loop." + strings.ToLower(strings.TrimPrefix(s, "ADSB_LOOP__"))
	}), nil)

	var cfg Loop
	if err := k.Unmarshal("loop", &cfg); err != nil {
		return cfg, err
	}
	applyLoopDefaults(&cfg, kind)
	return cfg, cfg.validate()
}

var defaultIntervalSeconds = map[string]int{
	source.KindLocal:        2,
	source.KindRegional:     15,
	source.KindGlobalStream: 30,
	source.KindOpenSky:      30,
}

func applyLoopDefaults(c *Loop, kind string) {
	if c.Topic == "" && kind != "" {
		c.Topic = "flights-" + kind
	}
	if c.PollIntervalSeconds == 0 {
		if s, ok := defaultIntervalSeconds[kind]; ok {
			c.PollIntervalSeconds = s
		}
	}
	if c.StartupSettleSeconds == 0 {
		c.StartupSettleSeconds = 15
	}
	if c.PostConnectSettleSeconds == 0 {
		c.PostConnectSettleSeconds = 10
	}
	if c.MaxConsecutiveErrors == 0 {
		c.MaxConsecutiveErrors = 10
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 9100
	}
}

func (l Loop) validate() error {
	if l.Topic == "" {
		return fmt.Errorf("loop: topic must not be empty")
	}
	if l.PollIntervalSeconds <= 0 {
		return fmt.Errorf("loop: poll_interval_seconds must be positive")
	}
	if l.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("loop: max_consecutive_errors must be positive")
	}
	return nil
}
