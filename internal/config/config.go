package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/definition"
)

// Session and content drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config holds the archivefeed configuration.
type Config struct {
	HTTP      HTTPConfig        `yaml:"http"`
	Session   SessionConfig     `yaml:"session"`
	Database  DatabaseConfig    `yaml:"database"`
	Content   ContentConfig     `yaml:"content"`
	Security  SecurityConfig    `yaml:"security"`
	CORS      CORSConfig        `yaml:"cors"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Render    RenderConfig      `yaml:"render"`
	Icons     IconsConfig       `yaml:"icons"`
	Feeds     []definition.Feed `yaml:"feeds"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SessionConfig selects and tunes the feed session backend.
type SessionConfig struct {
	Driver        string        `yaml:"driver"` // memory, redis, sqlite, file (default: memory)
	TTL           time.Duration `yaml:"ttl"`
	PruneInterval time.Duration `yaml:"prune_interval"`
	KeyPrefix     string        `yaml:"key_prefix"`
	Dir           string        `yaml:"dir"`  // file driver
	Path          string        `yaml:"path"` // sqlite driver
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string      `yaml:"addrs"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	DB               int           `yaml:"db"`
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"`
}

// ContentConfig selects the content engine.
type ContentConfig struct {
	Driver     string   `yaml:"driver"` // memory, redis (default: memory)
	Fixtures   string   `yaml:"fixtures"`
	Index      string   `yaml:"index"`
	Taxonomies []string `yaml:"taxonomies"`
	MetaKeys   []string `yaml:"meta_keys"`
}

// SecurityConfig holds anti-forgery settings.
type SecurityConfig struct {
	NonceSecret string        `yaml:"nonce_secret"`
	NonceTTL    time.Duration `yaml:"nonce_ttl"`
}

// CORSConfig holds allowed cross-origin callers of the async endpoint.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig limits the async endpoint. Zero RPS disables the limit.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// RenderConfig holds markup settings shared by every feed.
type RenderConfig struct {
	PageSlug   string   `yaml:"page_slug"`
	Locale     string   `yaml:"locale"`
	SortFields []string `yaml:"sort_fields"`
	MaxPerPage int      `yaml:"max_per_page"`
}

// IconsConfig holds the icon listing settings.
type IconsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 10 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Session.Driver == "" {
		c.Session.Driver = DriverMemory
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.PruneInterval <= 0 {
		c.Session.PruneInterval = 10 * time.Minute
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = "archivefeed:session:"
	}
	if c.Session.Dir == "" {
		c.Session.Dir = filepath.Join(os.TempDir(), "archivefeed-sessions")
	}
	if c.Session.Path == "" {
		c.Session.Path = "archivefeed.db"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10 * time.Second
	}
	if c.Content.Driver == "" {
		c.Content.Driver = DriverMemory
	}
	if c.Security.NonceTTL <= 0 {
		c.Security.NonceTTL = 12 * time.Hour
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS) + 1
	}
	if c.Render.PageSlug == "" {
		c.Render.PageSlug = "page"
	}
	if c.Render.Locale == "" {
		c.Render.Locale = "en"
	}
	if c.Render.MaxPerPage <= 0 {
		c.Render.MaxPerPage = 100
	}
	if c.Icons.Dir == "" {
		c.Icons.Dir = filepath.Join("assets", "icons")
	}
	for i := range c.Feeds {
		c.Feeds[i].ApplyDefaults()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Session.Driver {
	case DriverMemory, DriverSQLite, DriverFile:
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required for session.driver redis")
		}
	default:
		return fmt.Errorf("session.driver must be one of memory, redis, sqlite, file, got %q", c.Session.Driver)
	}

	switch c.Content.Driver {
	case DriverMemory:
		if c.Content.Fixtures == "" {
			return errors.New("content.fixtures is required for content.driver memory")
		}
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required for content.driver redis")
		}
	default:
		return fmt.Errorf("content.driver must be memory or redis, got %q", c.Content.Driver)
	}

	if strings.TrimSpace(c.Security.NonceSecret) == "" {
		return errors.New("security.nonce_secret is required")
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative, got %v", c.RateLimit.RPS)
	}
	if strings.Contains(c.Render.PageSlug, "/") {
		return fmt.Errorf("render.page_slug must be a single path segment, got %q", c.Render.PageSlug)
	}

	seen := make(map[string]struct{}, len(c.Feeds))
	for i := range c.Feeds {
		f := &c.Feeds[i]
		if err := f.Validate(); err != nil {
			return fmt.Errorf("feeds[%d]: %w", i, err)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("feeds[%d]: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.PerPage > c.Render.MaxPerPage {
			return fmt.Errorf("feeds[%d].per_page must be at most render.max_per_page (%d), got %d",
				i, c.Render.MaxPerPage, f.PerPage)
		}
	}
	return nil
}

// TaxonomyNames returns the taxonomies feeds may filter on: the configured
// ones, the built-in category and post_tag, and every taxonomy or custom
// control and base taxonomy of the feeds. Order is first appearance.
func (c *Config) TaxonomyNames() []string {
	names := []string{"category", "post_tag"}
	names = append(names, c.Content.Taxonomies...)
	for _, f := range c.Feeds {
		if f.Base.Taxonomy != "" {
			names = append(names, f.Base.Taxonomy)
		}
		for _, ctl := range f.Filters {
			if ctl.Kind == definition.ControlTaxonomy || ctl.Kind == definition.ControlCustom {
				names = append(names, ctl.Name)
			}
		}
	}
	return unique(names)
}

// MetaKeyNames returns the meta keys feeds may filter on.
func (c *Config) MetaKeyNames() []string {
	names := slices.Clone(c.Content.MetaKeys)
	for _, f := range c.Feeds {
		keys := make([]string, 0, len(f.Base.Meta))
		for k := range f.Base.Meta {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		names = append(names, keys...)
		for _, ctl := range f.Filters {
			if ctl.Kind == definition.ControlMeta {
				names = append(names, ctl.Name)
			}
		}
	}
	return unique(names)
}

func unique(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
