package internal

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestImageConfig_QualityBounds(t *testing.T) {
	for _, quality := range []int{0, -1, 101} {
		cfg := ImageConfig{Quality: quality}
		if err := cfg.Validate(); err == nil {
			t.Errorf("quality %d must fail validation", quality)
		}
	}
	cfg := ImageConfig{Quality: 80, MaxWidth: 1600}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid image config rejected: %v", err)
	}
}

func TestSiteConfig_RequiresOutputDir(t *testing.T) {
	cfg := SiteConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty blog output dir must fail")
	}
}

func TestReactionsConfig_PortBounds(t *testing.T) {
	cfg := NewDefaultConfig().Reactions
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 must fail")
	}
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadPaths(t *testing.T) {
	home := t.TempDir()
	paths, err := LoadPaths(envMap(map[string]string{
		"HOME":        home,
		"PATH_ROOT":   "vault",
		"PATH_BLOG":   "blog, essays",
		"PATH_LOG":    "log",
		"PATH_IGNORE": "private",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if paths.VaultRoot != filepath.Join(home, "vault") {
		t.Errorf("root = %q", paths.VaultRoot)
	}
	if len(paths.BlogSourceDirs) != 2 || paths.BlogSourceDirs[1] != filepath.Join(home, "vault", "essays") {
		t.Errorf("blog dirs = %v", paths.BlogSourceDirs)
	}
	if len(paths.LogSourceDirs) != 1 {
		t.Errorf("log dirs = %v", paths.LogSourceDirs)
	}
	if len(paths.IgnorePaths) != 1 || paths.IgnorePaths[0] != filepath.Join(home, "vault", "private") {
		t.Errorf("ignore = %v", paths.IgnorePaths)
	}
}

func TestLoadPaths_IgnoreOptional(t *testing.T) {
	paths, err := LoadPaths(envMap(map[string]string{
		"HOME":      t.TempDir(),
		"PATH_ROOT": "vault",
		"PATH_BLOG": "blog",
		"PATH_LOG":  "log",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths.IgnorePaths) != 0 {
		t.Errorf("ignore = %v, want empty", paths.IgnorePaths)
	}
}

func TestLoadPaths_MissingVariables(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no home", map[string]string{"PATH_ROOT": "v", "PATH_BLOG": "b", "PATH_LOG": "l"}, "HOME"},
		{"no root", map[string]string{"HOME": "/home/u", "PATH_BLOG": "b", "PATH_LOG": "l"}, "PATH_ROOT"},
		{"no blog", map[string]string{"HOME": "/home/u", "PATH_ROOT": "v", "PATH_LOG": "l"}, "PATH_BLOG"},
		{"no log", map[string]string{"HOME": "/home/u", "PATH_ROOT": "v", "PATH_BLOG": "b"}, "PATH_LOG"},
		{"blank root", map[string]string{"HOME": "/home/u", "PATH_ROOT": "  ", "PATH_BLOG": "b", "PATH_LOG": "l"}, "PATH_ROOT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPaths(envMap(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q must name %s", err, tt.want)
			}
		})
	}
}

func TestLoadPaths_TraversalRejected(t *testing.T) {
	_, err := LoadPaths(envMap(map[string]string{
		"HOME":      "/home/u",
		"PATH_ROOT": "vault",
		"PATH_BLOG": "../outside",
		"PATH_LOG":  "log",
	}))
	if err == nil {
		t.Fatal("escaping path must fail")
	}
	if !strings.Contains(err.Error(), "must stay within") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadPaths_LeadingSlashStripped(t *testing.T) {
	home := t.TempDir()
	paths, err := LoadPaths(envMap(map[string]string{
		"HOME":      home,
		"PATH_ROOT": "/vault",
		"PATH_BLOG": "blog",
		"PATH_LOG":  "log",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if paths.VaultRoot != filepath.Join(home, "vault") {
		t.Errorf("root = %q, leading slash must be relative", paths.VaultRoot)
	}
}
