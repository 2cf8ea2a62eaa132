package syncer

import (
	"path"

	"github.com/starford/raido/internal/loader"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/refid"
	"github.com/starford/raido/internal/storage"
)

// DiscoverEntries reads an output directory back into Entry values for
// duplicate detection and link resolution. Output files name their slug
// by filename; dates come from the serialized frontmatter, with the source
// field names accepted as fallback.
func DiscoverEntries(fs storage.Provider, dir string) ([]models.Entry, error) {
	files, err := fs.List(dir)
	if err != nil {
		return nil, err
	}
	var entries []models.Entry
	for _, relPath := range files {
		data, err := fs.Read(relPath)
		if err != nil {
			return nil, err
		}
		record, _ := parser.Parse(string(data))
		stem := loader.Stem(relPath)
		title := record.String("title")
		if title == "" {
			title = stem
		}
		created := loader.ParseDate(record.String("pubDate"))
		if created == nil {
			created = loader.ParseDate(record.String("created"))
		}
		modified := loader.ParseDate(record.String("updatedDate"))
		if modified == nil {
			modified = loader.ParseDate(record.String("modified"))
		}
		entries = append(entries, models.Entry{
			Slug:       stem,
			OutputPath: relPath,
			Metadata: models.NoteMetadata{
				Title:        title,
				Slug:         stem,
				Created:      created,
				Modified:     modified,
				Published:    true,
				Tags:         record.StringList("tags"),
				ReferenceIDs: refid.BuildReferenceIDs(title, stem, path.Base(relPath)),
			},
		})
	}
	return entries, nil
}
