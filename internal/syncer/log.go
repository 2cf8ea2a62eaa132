package syncer

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/starford/raido/internal/images"
	"github.com/starford/raido/internal/links"
	"github.com/starford/raido/internal/loader"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/trace"
)

// Log is the log/pebble synchronization pass. It writes dated log entries
// and transitively discovers pebbles through the links they resolve.
type Log struct {
	Layout    *Layout
	Converter images.Converter
	Logger    *slog.Logger
	Tracer    *trace.Tracer
}

// Run executes the log pass against the blog entries produced by the blog
// pass. The whole vault is scanned so link resolution can discover pebbles
// living outside the log and blog source directories.
func (s *Log) Run(paths Paths, blogEntries []models.Entry) (*models.SyncResult, error) {
	s.Tracer.Step("log: start")
	logFiles, err := loader.CollectMarkdownFiles(s.Logger, paths.LogSourceDirs)
	if err != nil {
		return nil, err
	}
	allFiles, err := loader.CollectMarkdownFiles(s.Logger, []string{paths.VaultRoot})
	if err != nil {
		return nil, err
	}

	allNotes := make([]*models.NoteDocument, 0, len(allFiles))
	byPath := make(map[string]*models.NoteDocument, len(allFiles))
	for _, file := range allFiles {
		note, err := loader.LoadNote(paths.VaultRoot, file)
		if err != nil {
			return nil, err
		}
		allNotes = append(allNotes, note)
		byPath[note.SourcePath] = note
	}

	var logNotes []*models.NoteDocument
	for _, file := range logFiles {
		if note, ok := byPath[file]; ok {
			logNotes = append(logNotes, note)
		}
	}
	blogFiles, err := loader.CollectMarkdownFiles(s.Logger, paths.BlogSourceDirs)
	if err != nil {
		return nil, err
	}
	var blogSourceNotes []*models.NoteDocument
	for _, file := range blogFiles {
		if note, ok := byPath[file]; ok {
			blogSourceNotes = append(blogSourceNotes, note)
		}
	}
	var validLogs []*models.NoteDocument
	for _, note := range logNotes {
		if !loader.IsIgnored(note) {
			validLogs = append(validLogs, note)
		}
	}

	discovery := links.NewDiscovery()
	ctx := links.NewLogContext(links.LogContextParams{
		Logs:            validLogs,
		BlogEntries:     blogEntries,
		BlogSourceNotes: blogSourceNotes,
		AllNotes:        allNotes,
		IgnorePaths:     paths.IgnorePaths,
		Discovery:       discovery,
		Logger:          s.Logger,
		Tracer:          s.Tracer,
	})

	result := &models.SyncResult{
		ScannedCount:   len(logNotes),
		PublishedCount: len(validLogs),
	}

	for _, note := range validLogs {
		fm := buildLogFrontmatter(note)
		date := fm.PubDate.Format("2006-01-02")
		entry, err := s.writeNote(note, fm, paths, target{
			outputDir:    s.Layout.LogDir(),
			assetDir:     s.Layout.LogAssetDir(date),
			assetRelPath: s.Layout.LogAssetRelPath(date),
		}, ctx)
		if err != nil {
			return nil, err
		}
		result.WrittenCount++
		result.Entries = append(result.Entries, entry)
	}

	pebbleCount, pebbleEntries, err := s.drainPebbles(discovery, paths, ctx)
	if err != nil {
		return nil, err
	}
	result.WrittenCount += pebbleCount
	result.Entries = append(result.Entries, pebbleEntries...)

	s.Logger.Info("syncer: log pass complete",
		slog.Int("scanned", result.ScannedCount),
		slog.Int("logs", len(validLogs)),
		slog.Int("pebbles", pebbleCount),
		slog.Int("written", result.WrittenCount))
	return result, nil
}

// drainPebbles materializes transitively discovered pebbles. Rendering a
// pebble resolves the links in its own body, which can enqueue further
// pebbles, so the queue is re-checked against the discovery map after each
// one. Every source file is processed at most once, so the loop terminates.
func (s *Log) drainPebbles(discovery *links.Discovery, paths Paths, ctx *links.LogContext) (int, []models.Entry, error) {
	processed := make(map[string]struct{})
	queued := make(map[string]struct{})
	queue := discovery.All()
	for _, note := range queue {
		queued[note.SourcePath] = struct{}{}
	}

	written := 0
	var entries []models.Entry
	for len(queue) > 0 {
		pebble := queue[0]
		queue = queue[1:]
		if _, done := processed[pebble.SourcePath]; done {
			continue
		}
		processed[pebble.SourcePath] = struct{}{}

		fm := buildLogFrontmatter(pebble)
		entry, err := s.writeNote(pebble, fm, paths, target{
			outputDir:    s.Layout.PebbleDir(),
			assetDir:     s.Layout.PebbleAssetDir(pebble.Metadata.Slug),
			assetRelPath: s.Layout.PebbleAssetRelPath(pebble.Metadata.Slug),
		}, ctx)
		if err != nil {
			return written, entries, err
		}
		written++
		entries = append(entries, entry)

		for _, note := range discovery.All() {
			if _, done := processed[note.SourcePath]; done {
				continue
			}
			if _, pending := queued[note.SourcePath]; pending {
				continue
			}
			queued[note.SourcePath] = struct{}{}
			queue = append(queue, note)
		}
	}
	return written, entries, nil
}

type target struct {
	outputDir    string
	assetDir     string
	assetRelPath string
}

// writeNote renders one log entry or pebble: images, links, body cleanup,
// frontmatter, atomic write.
func (s *Log) writeNote(note *models.NoteDocument, fm LogFrontmatter, paths Paths, t target, ctx *links.LogContext) (models.Entry, error) {
	destRel := path.Join(t.outputDir, note.Metadata.Slug+outputExtension(note.SourcePath))

	absAssetDir, err := s.Layout.FS().Abs(t.assetDir)
	if err != nil {
		return models.Entry{}, err
	}
	bodyWithImages, err := images.Process(note, images.Options{
		AssetSourceRoot: paths.AssetSourceDir(),
		AssetRootDir:    absAssetDir,
		AssetRelPath:    t.assetRelPath,
	}, s.Converter, s.Logger, s.Tracer)
	if err != nil {
		return models.Entry{}, err
	}

	rewritten := links.Rewrite(note.WithBody(bodyWithImages).Body, ctx)
	body := ensureTrailingNewline(trimLeadingBlankLines(rewritten))
	content := serializeLogFrontmatter(fm) + "\n" + body
	if err := s.Layout.FS().Write(destRel, []byte(content)); err != nil {
		return models.Entry{}, fmt.Errorf("syncer: write %s: %w", destRel, err)
	}
	s.Tracer.Step("log: note written",
		slog.String("note", note.SourcePath), slog.String("destination", destRel))

	return models.Entry{
		Slug:       note.Metadata.Slug,
		OutputPath: destRel,
		Metadata:   note.Metadata,
	}, nil
}
