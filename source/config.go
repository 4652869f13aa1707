package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// OAuthConfig holds client-credentials grant settings for token-gated feeds.
type OAuthConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	TokenURL     string `koanf:"token_url"`
}

func (o OAuthConfig) empty() bool {
	return o.ClientID == "" && o.ClientSecret == ""
}

type Config struct {
	Kind    string        `koanf:"kind"`
	Name    string        `koanf:"name"` // logical feed name stamped into records
	URLs    []string      `koanf:"urls"`
	Timeout time.Duration `koanf:"timeout"`
	OAuth   OAuthConfig   `koanf:"oauth"`
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadConfig merges YAML (if present) with env-vars
// (prefix `ADSB_SOURCE__`, delimiter `__`). The URL list accepts a JSON
// array or a comma-separated string in either layer.
func LoadConfig(path, kind string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("source schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.ProviderWithValue("ADSB_SOURCE__", "__", envValue), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.Kind == "" {
		cfg.Kind = kind
	}
	applyDefaults(&cfg)
	return cfg, cfg.Validate()
}

func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, "ADSB_SOURCE__"))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "urls" {
		return key, ParseURLList(value)
	}
	return key, value
}

// ParseURLList accepts a JSON array or a comma-separated string.
func ParseURLList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return trimAll(arr)
	}
	return trimAll(strings.Split(s, ","))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func applyDefaults(c *Config) {
	if c.Name == "" {
		c.Name = c.Kind
	}
	if len(c.URLs) == 0 {
		c.URLs = defaultURLs[c.Kind]
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeouts[c.Kind]
	}
	if c.Kind == KindOpenSky && c.OAuth.TokenURL == "" {
		c.OAuth.TokenURL = defaultOpenSkyTokenURL
	}
}

var defaultURLs = map[string][]string{
	KindLocal:        {"http://adsb_receiver:8088/data/aircraft.json"},
	KindRegional:     {"https://api.airplanes.live/v2/point/39.00000/-77.00000/463"},
	KindGlobalStream: {"https://re-api.adsb.lol/?all"},
	KindOpenSky:      {"https://opensky-network.org/api/states/all"},
}

// Shortest timeout for the high-frequency local feed, longest for the
// token-gated global one.
var defaultTimeouts = map[string]time.Duration{
	KindLocal:        2 * time.Second,
	KindRegional:     5 * time.Second,
	KindGlobalStream: 10 * time.Second,
	KindOpenSky:      15 * time.Second,
}

const defaultOpenSkyTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"

func (c Config) Validate() error {
	switch c.Kind {
	case KindLocal, KindRegional, KindGlobalStream, KindOpenSky:
	default:
		return fmt.Errorf("source: kind must be one of %q, %q, %q, %q; got %q",
			KindLocal, KindRegional, KindGlobalStream, KindOpenSky, c.Kind)
	}
	if len(c.URLs) == 0 {
		return fmt.Errorf("source %s: urls must contain at least one URL", c.Kind)
	}
	if c.Kind == KindOpenSky {
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
			return fmt.Errorf("source %s: oauth client_id and client_secret are required", c.Kind)
		}
	} else if !c.OAuth.empty() {
		return fmt.Errorf("source %s: oauth credentials are only valid for %s", c.Kind, KindOpenSky)
	}
	return nil
}
