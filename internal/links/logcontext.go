package links

import (
	"log/slog"
	"strings"

	"github.com/starford/raido/internal/loader"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/trace"
)

// Discovery is the shared pebble-discovery map for one log synchronization
// run. Notes found only through link resolution land here, keyed by source
// path, preserving insertion order so later materialization is
// deterministic.
type Discovery struct {
	notes map[string]*models.NoteDocument
	order []string
}

// NewDiscovery returns an empty discovery map.
func NewDiscovery() *Discovery {
	return &Discovery{notes: make(map[string]*models.NoteDocument)}
}

// Add records a note unless its source path is already present. It reports
// whether the note was newly added.
func (d *Discovery) Add(note *models.NoteDocument) bool {
	if _, ok := d.notes[note.SourcePath]; ok {
		return false
	}
	d.notes[note.SourcePath] = note
	d.order = append(d.order, note.SourcePath)
	return true
}

// All returns the discovered notes in insertion order.
func (d *Discovery) All() []*models.NoteDocument {
	out := make([]*models.NoteDocument, 0, len(d.order))
	for _, path := range d.order {
		out = append(out, d.notes[path])
	}
	return out
}

// Len reports the number of discovered notes.
func (d *Discovery) Len() int {
	return len(d.order)
}

// LogContextParams carries the note sets a log-pass resolver works against.
// Logs are the valid (non-ignored) log notes of the run, BlogEntries the
// entry list handed over by the blog pass, BlogSourceNotes every note loaded
// from the blog source directories (drafts included, so they never leak into
// the pebble output), and AllNotes the full vault scan used for transitive
// pebble discovery.
type LogContextParams struct {
	Logs            []*models.NoteDocument
	BlogEntries     []models.Entry
	BlogSourceNotes []*models.NoteDocument
	AllNotes        []*models.NoteDocument
	IgnorePaths     []string
	Discovery       *Discovery
	Logger          *slog.Logger
	Tracer          *trace.Tracer
}

// LogContext resolves references during the log/pebble pass. Resolution that
// lands on a vault note outside the log and blog sets has a side effect: the
// note is enqueued into the shared Discovery map for later materialization
// as a pebble.
type LogContext struct {
	logs            []*models.NoteDocument
	blogEntries     []models.Entry
	blogSourceNotes []*models.NoteDocument
	allNotes        []*models.NoteDocument
	ignorePaths     []string
	discovery       *Discovery
	logger          *slog.Logger
	tr              *trace.Tracer
}

// NewLogContext builds the log-pass resolver.
func NewLogContext(p LogContextParams) *LogContext {
	return &LogContext{
		logs:            p.Logs,
		blogEntries:     p.BlogEntries,
		blogSourceNotes: p.BlogSourceNotes,
		allNotes:        p.AllNotes,
		ignorePaths:     p.IgnorePaths,
		discovery:       p.Discovery,
		logger:          p.Logger,
		tr:              p.Tracer,
	}
}

// IsPathIgnored reports whether filePath falls under any configured ignore
// prefix.
func IsPathIgnored(filePath string, ignorePaths []string) bool {
	for _, prefix := range ignorePaths {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}

// metadataMatches is the log-pass lookup predicate: exact title, exact
// slug, or lowercased reference among the reference ids.
func metadataMatches(meta models.NoteMetadata, reference string) bool {
	if meta.Title == reference || meta.Slug == reference {
		return true
	}
	lower := strings.ToLower(reference)
	for _, id := range meta.ReferenceIDs {
		if id == lower {
			return true
		}
	}
	return false
}

func findByReference(notes []*models.NoteDocument, reference string) *models.NoteDocument {
	for _, note := range notes {
		if metadataMatches(note.Metadata, reference) {
			return note
		}
	}
	return nil
}

func findEntryByReference(entries []models.Entry, reference string) *models.Entry {
	for i := range entries {
		if metadataMatches(entries[i].Metadata, reference) {
			return &entries[i]
		}
	}
	return nil
}

// Resolve maps a reference during the log pass. Order: the current log set,
// then the blog set, then the whole vault. A vault match that is neither
// ignored nor a blog source note is enqueued as a pebble. Blog drafts and
// ignored notes always resolve to the fallback URL.
func (c *LogContext) Resolve(reference string) Destination {
	if target := findByReference(c.logs, reference); target != nil {
		if IsPathIgnored(target.SourcePath, c.ignorePaths) {
			return Destination{URL: FallbackURL, Label: target.Metadata.Title}
		}
		c.tr.Step("links: log match",
			slog.String("reference", reference), slog.String("slug", target.Metadata.Slug))
		return Destination{URL: "/pebbles/" + target.Metadata.Slug, Label: target.Metadata.Title}
	}

	if entry := findEntryByReference(c.blogEntries, reference); entry != nil {
		c.tr.Step("links: blog entry match",
			slog.String("reference", reference), slog.String("slug", entry.Slug))
		return Destination{URL: "/blog/" + entry.Slug, Label: entry.Metadata.Title}
	}

	if target := findByReference(c.blogSourceNotes, reference); target != nil {
		if target.Metadata.Published {
			c.tr.Step("links: blog source match",
				slog.String("reference", reference), slog.String("slug", target.Metadata.Slug))
			return Destination{URL: "/blog/" + target.Metadata.Slug, Label: target.Metadata.Title}
		}
		// Unpublished drafts stay off the site entirely.
		return Destination{URL: FallbackURL, Label: target.Metadata.Title}
	}

	if target := findByReference(c.allNotes, reference); target != nil {
		if loader.IsIgnored(target) || IsPathIgnored(target.SourcePath, c.ignorePaths) {
			return Destination{URL: FallbackURL, Label: target.Metadata.Title}
		}
		if c.discovery.Add(target) {
			c.tr.Step("links: pebble discovered",
				slog.String("reference", reference),
				slog.String("source", target.SourcePath))
		}
		return Destination{URL: "/pebbles/" + target.Metadata.Slug, Label: target.Metadata.Title}
	}

	c.tr.Step("links: unresolved", slog.String("reference", reference))
	return Destination{URL: FallbackURL, Label: reference}
}
