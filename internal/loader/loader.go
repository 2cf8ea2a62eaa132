// Package loader reads vault note files into NoteDocuments and collects
// Markdown files from source directory trees.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/refid"
)

var noteExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
}

// IsNoteFile reports whether path has a recognized note extension.
func IsNoteFile(path string) bool {
	return noteExtensions[strings.ToLower(filepath.Ext(path))]
}

// CollectMarkdownFiles recursively walks each directory and returns every
// .md/.mdx file found. Missing directories and non-directory paths are
// skipped with a warning, never an error. Files keep their enumeration
// order; sibling subdirectories are scanned concurrently but their results
// are merged back in entry order, so the output is deterministic for a
// given filesystem.
func CollectMarkdownFiles(logger *slog.Logger, dirs []string) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		files, err := collectFromDirectory(logger, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func collectFromDirectory(logger *slog.Logger, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("loader: directory missing", slog.String("path", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("loader: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		logger.Warn("loader: not a directory", slog.String("path", dir))
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: read dir %s: %w", dir, err)
	}

	// Subdirectories are scanned concurrently; slots keep entry order.
	slots := make([][]string, len(entries))
	g := new(errgroup.Group)
	for i, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			g.Go(func() error {
				nested, err := collectFromDirectory(logger, path)
				if err != nil {
					return err
				}
				slots[i] = nested
				return nil
			})
		case IsNoteFile(entry.Name()):
			slots[i] = []string{path}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, slot := range slots {
		out = append(out, slot...)
	}
	return out, nil
}

// LoadNote reads and parses one note file into a NoteDocument. The title
// falls back to the filename stem, the slug derives from the title, and
// reference ids cover title, stem, and vault-relative path.
func LoadNote(rootDir, filePath string) (*models.NoteDocument, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", filePath, err)
	}
	record, body := parser.Parse(string(data))

	relative, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		relative = filePath
	}
	relative = filepath.ToSlash(relative)

	stem := fileStem(filePath)
	title := record.String("title")
	if title == "" {
		title = stem
	}

	meta := models.NoteMetadata{
		Title:        title,
		Slug:         refid.Slug(title),
		Created:      ParseDate(record.String("created")),
		Modified:     ParseDate(record.String("modified")),
		Published:    extractPublished(record),
		Tags:         record.StringList("tags"),
		ReferenceIDs: refid.BuildReferenceIDs(title, stem, relative),
	}

	return &models.NoteDocument{
		SourcePath:   filePath,
		RelativePath: relative,
		Frontmatter:  record,
		Body:         body,
		Metadata:     meta,
	}, nil
}

// fileStem returns the base name of path without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Stem is the exported form of fileStem for callers deriving reference ids
// from output filenames.
func Stem(path string) string {
	return fileStem(path)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a frontmatter date string. Unparsable input is treated
// as an absent date, never an error.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

// extractPublished treats boolean true and the strings "true", "yes", "1"
// (any case) as published; everything else, including absence, is not.
func extractPublished(record parser.Record) bool {
	v, ok := record.Value("published")
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// IsIgnored reports whether a note opted out of synchronization via
// "ignore: true" frontmatter.
func IsIgnored(note *models.NoteDocument) bool {
	v, ok := note.Frontmatter.Value("ignore")
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	if s, isString := v.(string); isString {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}
