// Package syncer runs the vault-to-site synchronization passes: the blog
// pass, the log/pebble pass, and the pipeline that hands entries from one
// to the other.
package syncer

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/storage"
)

// Paths is the source-side configuration of one synchronization run. All
// directories are absolute; IgnorePaths are path prefixes excluded from the
// log/pebble output.
type Paths struct {
	VaultRoot      string
	BlogSourceDirs []string
	LogSourceDirs  []string
	IgnorePaths    []string
}

// AssetSourceDir is the vault's shared asset directory.
func (p Paths) AssetSourceDir() string {
	return filepath.Join(p.VaultRoot, "assets")
}

// Layout maps the fixed output structure under the site root: blog, log and
// pebble content directories side by side, with image assets two levels up
// under assets/. The blog output directory anchors everything else.
type Layout struct {
	fs        *storage.FS
	blogDir   string
	logDir    string
	pebbleDir string
}

// NewLayout derives the output layout from the absolute blog output
// directory. The site root is its grandparent; log and pebble directories
// are its siblings.
func NewLayout(blogOutputDir string) (*Layout, error) {
	abs, err := filepath.Abs(blogOutputDir)
	if err != nil {
		return nil, fmt.Errorf("syncer: resolve blog output dir: %w", err)
	}
	siteRoot := filepath.Dir(filepath.Dir(abs))
	blogRel, err := filepath.Rel(siteRoot, abs)
	if err != nil || strings.HasPrefix(blogRel, "..") {
		return nil, fmt.Errorf("syncer: blog output dir %s must sit two levels under the site root", blogOutputDir)
	}
	fs, err := storage.NewFS(siteRoot)
	if err != nil {
		return nil, err
	}
	blogRelSlash := filepath.ToSlash(blogRel)
	contentDir := path.Dir(blogRelSlash)
	return &Layout{
		fs:        fs,
		blogDir:   blogRelSlash,
		logDir:    path.Join(contentDir, "log"),
		pebbleDir: path.Join(contentDir, "pebbles"),
	}, nil
}

// FS returns the output-tree store rooted at the site root.
func (l *Layout) FS() *storage.FS {
	return l.fs
}

// BlogDir returns the blog content directory relative to the site root.
func (l *Layout) BlogDir() string { return l.blogDir }

// LogDir returns the log content directory relative to the site root.
func (l *Layout) LogDir() string { return l.logDir }

// PebbleDir returns the pebble content directory relative to the site root.
func (l *Layout) PebbleDir() string { return l.pebbleDir }

// BlogAssetDir is where converted blog images land, relative to the site
// root.
func (l *Layout) BlogAssetDir() string {
	return "assets/blog-image"
}

// LogAssetDir keys log images by publish date.
func (l *Layout) LogAssetDir(date string) string {
	return path.Join("assets/log-image", date)
}

// PebbleAssetDir keys pebble images by the pebble's slug.
func (l *Layout) PebbleAssetDir(slug string) string {
	return path.Join("assets/pebble-image", slug)
}

// Relative asset prefixes as written into the rewritten bodies. Content
// files sit two levels under the site root, so assets are always ../../.

func (l *Layout) BlogAssetRelPath() string {
	return "../../assets/blog-image"
}

func (l *Layout) LogAssetRelPath(date string) string {
	return "../../assets/log-image/" + date
}

func (l *Layout) PebbleAssetRelPath(slug string) string {
	return "../../assets/pebble-image/" + slug
}

// outputExtension keeps .mdx sources as .mdx; everything else becomes .md.
func outputExtension(sourcePath string) string {
	if strings.ToLower(filepath.Ext(sourcePath)) == ".mdx" {
		return ".mdx"
	}
	return ".md"
}
