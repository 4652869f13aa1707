package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParseURLList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`["http://a","http://b"]`, []string{"http://a", "http://b"}},
		{`http://a, http://b`, []string{"http://a", "http://b"}},
		{`http://a`, []string{"http://a"}},
		{` `, nil},
		{`["http://a", "  "]`, []string{"http://a"}},
	}
	for _, tc := range cases {
		if got := ParseURLList(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseURLList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoadConfig_DefaultsPerKind(t *testing.T) {
	cfg, err := LoadConfig("", KindLocal)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != KindLocal {
		t.Fatalf("name default: %q", cfg.Name)
	}
	if len(cfg.URLs) != 1 {
		t.Fatalf("url default: %v", cfg.URLs)
	}
	if cfg.Timeout != 2*time.Second {
		t.Fatalf("local timeout default: %s", cfg.Timeout)
	}

	cfg, err = LoadConfig("", KindGlobalStream)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("global-stream timeout default: %s", cfg.Timeout)
	}
}

func TestLoadConfig_YAMLAndEnvMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.yml")
	raw := []byte(`schema_version: v1
kind: regional
name: east-coast
urls:
  - http://feed-a/v2/point
  - http://feed-b/v2/point
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ADSB_SOURCE__URLS", `http://override/v2/point`)

	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Kind != KindRegional || cfg.Name != "east-coast" {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
	if len(cfg.URLs) != 1 || cfg.URLs[0] != "http://override/v2/point" {
		t.Fatalf("env must override yaml urls: %v", cfg.URLs)
	}
}

func TestLoadConfig_BadSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.yml")
	if err := os.WriteFile(path, []byte("schema_version: v9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path, KindLocal); err == nil {
		t.Fatal("expected error for schema_version v9")
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{Kind: KindLocal, URLs: []string{"http://x"}}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := base
	bad.Kind = "galactic"
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown kind must be rejected")
	}

	bad = base
	bad.URLs = nil
	if err := bad.Validate(); err == nil {
		t.Fatal("empty url list must be rejected")
	}

	bad = base
	bad.OAuth = OAuthConfig{ClientID: "id", ClientSecret: "s"}
	if err := bad.Validate(); err == nil {
		t.Fatal("oauth credentials on a non-gated feed must be rejected")
	}

	osky := Config{Kind: KindOpenSky, URLs: []string{"http://x"}}
	if err := osky.Validate(); err == nil {
		t.Fatal("opensky without credentials must be rejected")
	}
	osky.OAuth = OAuthConfig{ClientID: "id", ClientSecret: "s", TokenURL: "http://t"}
	if err := osky.Validate(); err != nil {
		t.Fatalf("opensky with credentials rejected: %v", err)
	}
}
