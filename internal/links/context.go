package links

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/loader"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/refid"
	"github.com/starford/raido/internal/trace"
)

// ContextParams carries everything a blog-pass resolution context needs.
// BlogEntries are already-materialized posts (surviving entries from earlier
// runs), SourceNotes the published notes of the current run, and
// PebbleEntries the pebble output discovered on disk.
type ContextParams struct {
	BlogEntries     []models.Entry
	SourceNotes     []*models.NoteDocument
	PebbleEntries   []models.Entry
	VaultRoot       string
	BlogOutputDir   string
	PebbleOutputDir string
	Logger          *slog.Logger
	Tracer          *trace.Tracer
}

// Context resolves references for one blog synchronization run. It is built
// once per run and holds the lookup indices plus a memoization cache for the
// full-tree fallback search; nothing in it outlives the run.
type Context struct {
	blogIndex   map[string]models.Entry
	sourceIndex map[string]*models.NoteDocument
	pebbleIndex map[string]models.Entry

	vaultRoot       string
	blogOutputDir   string
	pebbleOutputDir string

	logger *slog.Logger
	tr     *trace.Tracer

	treeCache map[string]treeLookup
}

// NewContext builds the per-run resolution indices.
func NewContext(p ContextParams) *Context {
	c := &Context{
		blogIndex:       make(map[string]models.Entry),
		sourceIndex:     make(map[string]*models.NoteDocument),
		pebbleIndex:     make(map[string]models.Entry),
		vaultRoot:       p.VaultRoot,
		blogOutputDir:   p.BlogOutputDir,
		pebbleOutputDir: p.PebbleOutputDir,
		logger:          p.Logger,
		tr:              p.Tracer,
		treeCache:       make(map[string]treeLookup),
	}
	for _, entry := range p.BlogEntries {
		for _, key := range entryKeys(entry.Metadata) {
			c.blogIndex[key] = entry
		}
	}
	for _, note := range p.SourceNotes {
		for _, key := range entryKeys(note.Metadata) {
			c.sourceIndex[key] = note
		}
	}
	for _, entry := range p.PebbleEntries {
		for _, key := range entryKeys(entry.Metadata) {
			c.pebbleIndex[key] = entry
		}
	}
	return c
}

// entryKeys returns every lookup key a note or entry answers to: its
// precomputed reference ids plus the normalized, slugified, and lowercased
// forms of its title.
func entryKeys(meta models.NoteMetadata) []string {
	keys := make([]string, 0, len(meta.ReferenceIDs)+3)
	keys = append(keys, meta.ReferenceIDs...)
	keys = append(keys,
		refid.Normalize(meta.Title),
		refid.Slug(meta.Title),
		strings.ToLower(meta.Title),
	)
	return keys
}

// candidateKeys lists the lookup variants tried for a reference, most exact
// first.
func candidateKeys(reference string) []string {
	return []string{
		reference,
		refid.Normalize(reference),
		refid.Slug(reference),
		strings.ToLower(reference),
	}
}

// Resolve maps a reference to its destination. Order: known blog entries,
// then the notes being synchronized, then known pebbles, then a memoized
// full-tree search, and finally the generic fallback with the raw reference
// as label.
func (c *Context) Resolve(reference string) Destination {
	keys := candidateKeys(reference)

	for _, key := range keys {
		if entry, ok := c.blogIndex[key]; ok {
			c.tr.Step("links: blog entry match",
				slog.String("reference", reference), slog.String("slug", entry.Slug))
			return Destination{URL: "/blog/" + entry.Slug, Label: entry.Metadata.Title}
		}
	}
	for _, key := range keys {
		if note, ok := c.sourceIndex[key]; ok {
			c.tr.Step("links: source note match",
				slog.String("reference", reference), slog.String("slug", note.Metadata.Slug))
			if note.Metadata.Published {
				return Destination{URL: "/blog/" + note.Metadata.Slug, Label: note.Metadata.Title}
			}
			return Destination{URL: FallbackURL, Label: note.Metadata.Title}
		}
	}
	for _, key := range keys {
		if entry, ok := c.pebbleIndex[key]; ok {
			c.tr.Step("links: pebble entry match",
				slog.String("reference", reference), slog.String("slug", entry.Slug))
			return Destination{URL: "/pebbles/" + entry.Slug, Label: entry.Metadata.Title}
		}
	}

	found := c.lookupTree(reference)
	if found.status == lookupFound {
		c.tr.Step("links: tree match",
			slog.String("reference", reference), slog.String("path", found.filePath))
		if isPathInDirectory(found.filePath, c.blogOutputDir) {
			slug := loader.Stem(found.filePath)
			return Destination{URL: "/blog/" + slug, Label: found.title}
		}
		if c.pebbleOutputDir != "" && isPathInDirectory(found.filePath, c.pebbleOutputDir) {
			slug := loader.Stem(found.filePath)
			return Destination{URL: "/pebbles/" + slug, Label: found.title}
		}
		return Destination{URL: FallbackURL, Label: found.title}
	}

	c.tr.Step("links: unresolved", slog.String("reference", reference))
	return Destination{URL: FallbackURL, Label: reference}
}

type lookupStatus int

const (
	lookupNotFound lookupStatus = iota
	lookupFound
)

type treeLookup struct {
	status    lookupStatus
	title     string
	filePath  string
	published bool
}

// lookupTree runs the on-demand full-tree fallback search, memoized per
// reference for the lifetime of the context.
func (c *Context) lookupTree(reference string) treeLookup {
	if cached, ok := c.treeCache[reference]; ok {
		return cached
	}
	result, err := findNoteInTree(reference, c.searchRoots(), c.logger)
	if err != nil {
		c.logger.Warn("links: tree lookup failed",
			slog.String("reference", reference), slog.Any("error", err))
		result = treeLookup{status: lookupNotFound}
	}
	c.treeCache[reference] = result
	return result
}

func (c *Context) searchRoots() []string {
	roots := []string{c.vaultRoot, c.blogOutputDir}
	if c.pebbleOutputDir != "" {
		roots = append(roots, c.pebbleOutputDir)
	}
	return roots
}

// findNoteInTree scans every note under the given roots for one whose title
// or filename matches the reference in normalized or slug form, in any
// combination. First match wins.
func findNoteInTree(reference string, roots []string, logger *slog.Logger) (treeLookup, error) {
	normalizedRef := refid.Normalize(reference)
	slugRef := refid.Slug(reference)

	files, err := loader.CollectMarkdownFiles(logger, roots)
	if err != nil {
		return treeLookup{}, err
	}
	for _, filePath := range files {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return treeLookup{}, fmt.Errorf("links: read %s: %w", filePath, err)
		}
		record, _ := parser.Parse(string(data))
		title := strings.TrimSpace(record.String("title"))
		if title == "" {
			title = loader.Stem(filePath)
		}
		stem := loader.Stem(filePath)

		normalizedTitle := refid.Normalize(title)
		normalizedStem := refid.Normalize(stem)
		slugTitle := refid.Slug(title)
		slugStem := refid.Slug(stem)

		matched := normalizedTitle == normalizedRef ||
			normalizedStem == normalizedRef ||
			slugTitle == slugRef ||
			slugStem == slugRef ||
			slugTitle == normalizedRef ||
			slugStem == normalizedRef ||
			normalizedTitle == slugRef ||
			normalizedStem == slugRef
		if matched {
			return treeLookup{
				status:    lookupFound,
				title:     title,
				filePath:  filePath,
				published: publishedValue(record),
			}, nil
		}
	}
	return treeLookup{status: lookupNotFound}, nil
}

func publishedValue(record parser.Record) bool {
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

// isPathInDirectory reports whether filePath sits underneath directory.
func isPathInDirectory(filePath, directory string) bool {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
