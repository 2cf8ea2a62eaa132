package syncer

import (
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/starford/raido/internal/images"
	"github.com/starford/raido/internal/links"
	"github.com/starford/raido/internal/loader"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/refid"
	"github.com/starford/raido/internal/trace"
)

// Blog is the blog synchronization pass: load, deduplicate against existing
// output, filter published, resolve images and links, write.
type Blog struct {
	Layout    *Layout
	Converter images.Converter
	Logger    *slog.Logger
	Tracer    *trace.Tracer
}

// Run executes one blog pass. The returned result carries every entry now
// present in the blog output (written this run plus surviving older ones)
// for the log pass to resolve against.
func (s *Blog) Run(paths Paths) (*models.SyncResult, error) {
	s.Tracer.Step("blog: start")
	files, err := loader.CollectMarkdownFiles(s.Logger, paths.BlogSourceDirs)
	if err != nil {
		return nil, err
	}
	notes := make([]*models.NoteDocument, 0, len(files))
	for _, file := range files {
		note, err := loader.LoadNote(paths.VaultRoot, file)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	existing, err := DiscoverEntries(s.Layout.FS(), s.Layout.BlogDir())
	if err != nil {
		return nil, err
	}

	// Deduplicate: adopt the existing slug when the note matches an entry
	// from an earlier run, so output filenames stay stable.
	used := make(map[string]struct{})
	superseded := make(map[string]struct{})
	for _, note := range notes {
		if dup := findDuplicateEntry(note, existing); dup != nil {
			superseded[dup.Slug] = struct{}{}
			note.Metadata.Slug = dup.Slug
			used[dup.Slug] = struct{}{}
			s.Tracer.Step("blog: slug adopted",
				slog.String("note", note.SourcePath), slog.String("slug", dup.Slug))
		} else {
			note.Metadata.Slug = refid.EnsureUniqueSlug(note.Metadata.Slug, used)
		}
	}
	surviving := existing[:0:0]
	for _, entry := range existing {
		if _, ok := superseded[entry.Slug]; !ok {
			surviving = append(surviving, entry)
		}
	}

	var published []*models.NoteDocument
	for _, note := range notes {
		if note.Metadata.Published {
			published = append(published, note)
		}
	}

	result := &models.SyncResult{
		ScannedCount:   len(notes),
		PublishedCount: len(published),
	}
	if len(published) == 0 {
		s.Logger.Info("syncer: no published notes detected")
		return result, nil
	}

	pebbleEntries, err := DiscoverEntries(s.Layout.FS(), s.Layout.PebbleDir())
	if err != nil {
		return nil, err
	}
	absBlogDir, err := s.Layout.FS().Abs(s.Layout.BlogDir())
	if err != nil {
		return nil, err
	}
	absPebbleDir, err := s.Layout.FS().Abs(s.Layout.PebbleDir())
	if err != nil {
		return nil, err
	}
	ctx := links.NewContext(links.ContextParams{
		BlogEntries:     surviving,
		SourceNotes:     published,
		PebbleEntries:   pebbleEntries,
		VaultRoot:       paths.VaultRoot,
		BlogOutputDir:   absBlogDir,
		PebbleOutputDir: absPebbleDir,
		Logger:          s.Logger,
		Tracer:          s.Tracer,
	})

	absAssetDir, err := s.Layout.FS().Abs(s.Layout.BlogAssetDir())
	if err != nil {
		return nil, err
	}
	for _, note := range published {
		destRel := path.Join(s.Layout.BlogDir(), note.Metadata.Slug+outputExtension(note.SourcePath))
		fm := buildBlogFrontmatter(note)

		bodyWithImages, err := images.Process(note, images.Options{
			AssetSourceRoot: paths.AssetSourceDir(),
			AssetRootDir:    absAssetDir,
			AssetRelPath:    s.Layout.BlogAssetRelPath(),
		}, s.Converter, s.Logger, s.Tracer)
		if err != nil {
			return nil, err
		}
		rewritten := links.Rewrite(note.WithBody(bodyWithImages).Body, ctx)
		body := ensureTrailingNewline(trimLeadingBlankLines(rewritten))
		content := serializeBlogFrontmatter(fm) + "\n" + body
		if err := s.Layout.FS().Write(destRel, []byte(content)); err != nil {
			return nil, fmt.Errorf("syncer: write %s: %w", destRel, err)
		}
		s.Tracer.Step("blog: note written",
			slog.String("note", note.SourcePath), slog.String("destination", destRel))

		result.WrittenCount++
		meta := note.Metadata
		meta.Published = true
		result.Entries = append(result.Entries, models.Entry{
			Slug:       note.Metadata.Slug,
			OutputPath: destRel,
			Metadata:   meta,
		})
	}
	result.Entries = append(result.Entries, surviving...)

	s.Logger.Info("syncer: blog pass complete",
		slog.Int("scanned", result.ScannedCount),
		slog.Int("published", result.PublishedCount),
		slog.Int("written", result.WrittenCount))
	return result, nil
}

// findDuplicateEntry matches a note against an existing output entry by
// slug, title, and same calendar day of the created date. Time of day is
// ignored.
func findDuplicateEntry(note *models.NoteDocument, existing []models.Entry) *models.Entry {
	for i := range existing {
		entry := &existing[i]
		if entry.Slug == note.Metadata.Slug &&
			entry.Metadata.Title == note.Metadata.Title &&
			sameCalendarDay(entry.Metadata.Created, note.Metadata.Created) {
			return entry
		}
	}
	return nil
}

func sameCalendarDay(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
