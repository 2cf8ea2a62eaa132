package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/syncer"
)

// Config represents the application configuration loaded from the optional
// settings file. Vault paths come from the environment, see LoadPaths.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Site      SiteConfig        `yaml:"site"`
	Images    ImageConfig       `yaml:"images"`
	Reactions ReactionsConfig   `yaml:"reactions"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Images.Validate(); err != nil {
		return err
	}
	return c.Reactions.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// SiteConfig locates the generated site content.
type SiteConfig struct {
	// BlogOutputDir anchors the whole output layout: log and pebble
	// directories are its siblings, assets live two levels up.
	BlogOutputDir string `yaml:"blog_output_dir"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BlogOutputDir, validation.Required),
	)
}

// ImageConfig controls WebP conversion of embedded images.
type ImageConfig struct {
	Quality  int `yaml:"quality"`
	MaxWidth int `yaml:"max_width"`
}

// Validate validates the image configuration.
func (c *ImageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Quality, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.MaxWidth, validation.Min(0)),
	)
}

// ReactionsConfig holds the reactions API server configuration.
type ReactionsConfig struct {
	HTTP           HTTPConfig      `yaml:"http"`
	SQLite         SQLiteConfig    `yaml:"sqlite"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// Validate validates the reactions configuration.
func (c *ReactionsConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.RateLimit.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RateLimitConfig bounds write requests per client within a time window.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxRequests, validation.Required, validation.Min(1)),
		validation.Field(&c.Window, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Site: SiteConfig{
			BlogOutputDir: "src/content/blog",
		},
		Images: ImageConfig{
			Quality: 80,
		},
		Reactions: ReactionsConfig{
			HTTP:   HTTPConfig{Port: 8787},
			SQLite: SQLiteConfig{Path: "./raido.db"},
			RateLimit: RateLimitConfig{
				MaxRequests: 100,
				Window:      5 * time.Minute,
			},
		},
	}
}

// LoadPaths resolves the vault paths from environment variables: PATH_ROOT
// relative to HOME, PATH_BLOG and PATH_LOG as comma-separated lists relative
// to the root, PATH_IGNORE optional. Every resolved path must stay within
// its base directory. getenv is injected so tests control the environment.
func LoadPaths(getenv func(string) string) (syncer.Paths, error) {
	home := strings.TrimSpace(getenv("HOME"))
	if home == "" {
		return syncer.Paths{}, fmt.Errorf("config: environment variable HOME is required")
	}

	rootRaw, err := requiredEnv(getenv, "PATH_ROOT")
	if err != nil {
		return syncer.Paths{}, err
	}
	blogRaw, err := requiredEnv(getenv, "PATH_BLOG")
	if err != nil {
		return syncer.Paths{}, err
	}
	logRaw, err := requiredEnv(getenv, "PATH_LOG")
	if err != nil {
		return syncer.Paths{}, err
	}
	ignoreRaw := getenv("PATH_IGNORE")

	root, err := resolveWithinBase(home, rootRaw, "PATH_ROOT")
	if err != nil {
		return syncer.Paths{}, err
	}
	blogDirs, err := splitPathList(blogRaw, root, "PATH_BLOG")
	if err != nil {
		return syncer.Paths{}, err
	}
	logDirs, err := splitPathList(logRaw, root, "PATH_LOG")
	if err != nil {
		return syncer.Paths{}, err
	}
	ignoreDirs, err := splitPathList(ignoreRaw, root, "PATH_IGNORE")
	if err != nil {
		return syncer.Paths{}, err
	}

	return syncer.Paths{
		VaultRoot:      root,
		BlogSourceDirs: blogDirs,
		LogSourceDirs:  logDirs,
		IgnorePaths:    ignoreDirs,
	}, nil
}

func requiredEnv(getenv func(string) string, key string) (string, error) {
	value := strings.TrimSpace(getenv(key))
	if value == "" {
		return "", fmt.Errorf("config: environment variable %s is required", key)
	}
	return value, nil
}

// splitPathList resolves a comma-separated path list against base. Empty
// segments are skipped, so an unset optional variable yields an empty list.
func splitPathList(raw, base, label string) ([]string, error) {
	var out []string
	for _, segment := range strings.Split(raw, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		resolved, err := resolveWithinBase(base, segment, label)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// resolveWithinBase joins target onto base and rejects any result escaping
// it. Leading separators are stripped so "/notes" means "notes", but
// genuinely absolute or parent-escaping paths fail.
func resolveWithinBase(base, target, label string) (string, error) {
	sanitized := strings.TrimLeft(target, "/\\")
	if sanitized == "" {
		return "", fmt.Errorf("config: %s must not be empty", label)
	}
	if filepath.IsAbs(sanitized) {
		return "", fmt.Errorf("config: %s %s must be relative to %s", label, target, base)
	}
	resolved := filepath.Clean(filepath.Join(base, sanitized))
	rel, err := filepath.Rel(filepath.Clean(base), resolved)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", label, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("config: %s %s must stay within %s", label, resolved, base)
	}
	return resolved, nil
}
