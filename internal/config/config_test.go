package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/definition"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Content:  ContentConfig{Fixtures: "fixtures.yaml"},
		Security: SecurityConfig{NonceSecret: "s3cret"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestParse_FullExample(t *testing.T) {
	t.Setenv("ARCHIVEFEED_NONCE_SECRET", "from-env")

	data := []byte(`
http:
  port: 9090
  read_timeout: 5s
session:
  driver: sqlite
  ttl: 48h
  path: /var/lib/archivefeed/sessions.db
content:
  fixtures: fixtures/content.yaml
security:
  nonce_secret: ${ARCHIVEFEED_NONCE_SECRET}
rate_limit:
  rps: 5
render:
  page_slug: seite
  locale: de
feeds:
  - name: news
    per_page: 6
    pagination: {type: load_more}
    sub_feeds:
      - columns: 2
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("http: %+v", cfg.HTTP)
	}
	if cfg.HTTP.WriteTimeout != 10*time.Second {
		t.Errorf("write timeout default not applied: %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.Session.Driver != DriverSQLite || cfg.Session.TTL != 48*time.Hour {
		t.Errorf("session: %+v", cfg.Session)
	}
	if cfg.Session.PruneInterval != 10*time.Minute {
		t.Errorf("prune interval default: %v", cfg.Session.PruneInterval)
	}
	if cfg.Security.NonceSecret != "from-env" {
		t.Errorf("env expansion: %q", cfg.Security.NonceSecret)
	}
	if cfg.RateLimit.Burst != 6 {
		t.Errorf("burst default = %d, want 6", cfg.RateLimit.Burst)
	}
	if cfg.Render.PageSlug != "seite" || cfg.Render.Locale != "de" {
		t.Errorf("render: %+v", cfg.Render)
	}

	if len(cfg.Feeds) != 1 {
		t.Fatalf("feeds = %d", len(cfg.Feeds))
	}
	f := cfg.Feeds[0]
	if f.Pagination.Type != session.LoadMore || f.Pagination.ButtonText != definition.DefaultButtonText {
		t.Errorf("pagination defaults: %+v", f.Pagination)
	}
	if f.SubFeeds[0].Columns != 2 || f.SubFeeds[0].TemplateSingle != session.DefaultTemplateSingle {
		t.Errorf("sub feed defaults: %+v", f.SubFeeds[0])
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("AF_SET", "value")
	got := string(expandEnvVars([]byte("a: ${AF_SET}\nb: ${AF_UNSET:-fallback}\nc: ${AF_UNSET}")))
	want := "a: value\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := "http: {port: 8081}\ncontent: {fixtures: f.yaml}\nsecurity: {nonce_secret: x}\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"session driver", func(c *Config) { c.Session.Driver = "etcd" }, "session.driver"},
		{"redis session without addrs", func(c *Config) { c.Session.Driver = DriverRedis }, "database.addrs"},
		{"redis content without addrs", func(c *Config) { c.Content.Driver = DriverRedis }, "database.addrs"},
		{"memory content without fixtures", func(c *Config) { c.Content.Fixtures = "" }, "content.fixtures"},
		{"content driver", func(c *Config) { c.Content.Driver = "sql" }, "content.driver"},
		{"nonce secret", func(c *Config) { c.Security.NonceSecret = " " }, "security.nonce_secret"},
		{"rps", func(c *Config) { c.RateLimit.RPS = -1 }, "rate_limit.rps"},
		{"page slug", func(c *Config) { c.Render.PageSlug = "a/b" }, "render.page_slug"},
		{
			"duplicate feed",
			func(c *Config) {
				c.Feeds = []definition.Feed{{Name: "news"}, {Name: "news"}}
				c.ApplyDefaults()
			},
			"duplicate name",
		},
		{
			"per page above max",
			func(c *Config) {
				c.Feeds = []definition.Feed{{Name: "news", PerPage: 500}}
				c.ApplyDefaults()
			},
			"per_page",
		},
		{
			"invalid feed",
			func(c *Config) {
				c.Feeds = []definition.Feed{{Name: "news", Pagination: &definition.Pagination{Type: "infinite"}}}
			},
			"feeds[0]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("default env = %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("env = %q", got)
	}
}

func TestTaxonomyAndMetaNames(t *testing.T) {
	cfg := validConfig()
	cfg.Content.Taxonomies = []string{"region", "category"}
	cfg.Content.MetaKeys = []string{"color"}
	cfg.Feeds = []definition.Feed{
		{
			Name: "news",
			Base: definition.Base{Taxonomy: "series", TermID: "4", Meta: map[string]string{"size": "l", "audience": "all"}},
			Filters: []definition.Control{
				{Kind: definition.ControlTaxonomy, Name: "region"},
				{Kind: definition.ControlCustom, Name: "year"},
				{Kind: definition.ControlMeta, Name: "color"},
				{Kind: definition.ControlMeta, Name: "shape"},
				{Kind: definition.ControlSearch},
			},
		},
	}

	wantTax := []string{"category", "post_tag", "region", "series", "year"}
	if diff := cmp.Diff(wantTax, cfg.TaxonomyNames()); diff != "" {
		t.Errorf("taxonomies (-want +got):\n%s", diff)
	}
	wantMeta := []string{"color", "audience", "size", "shape"}
	if diff := cmp.Diff(wantMeta, cfg.MetaKeyNames()); diff != "" {
		t.Errorf("meta keys (-want +got):\n%s", diff)
	}
}
