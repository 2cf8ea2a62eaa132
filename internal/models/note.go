// Package models defines the domain types for Raido.
package models

import (
	"time"

	"github.com/starford/raido/internal/parser"
)

// NoteMetadata is derived from a note's frontmatter and path at load time.
// Slug is the only field reassigned after loading (once, during
// deduplication).
type NoteMetadata struct {
	Title        string
	Slug         string
	Created      *time.Time
	Modified     *time.Time
	Published    bool
	Tags         []string
	ReferenceIDs []string
}

// NoteDocument is one source Markdown/MDX file loaded from the vault.
// SourcePath and RelativePath identify the note within a run and are
// immutable after load. Body is replaced copy-on-write as the pipeline
// transforms it; the loaded document itself is never mutated in place.
type NoteDocument struct {
	SourcePath   string
	RelativePath string
	Frontmatter  parser.Record
	Body         string
	Metadata     NoteMetadata
}

// WithBody returns a shallow copy of the note carrying a new body.
func (n *NoteDocument) WithBody(body string) *NoteDocument {
	copied := *n
	copied.Body = body
	return &copied
}

// Entry is a note that has already been materialized in the output tree,
// either during this run or a previous one. It is used for link resolution
// and duplicate detection only; its body is never re-read.
type Entry struct {
	Slug       string
	OutputPath string
	Metadata   NoteMetadata
}

// SyncResult summarizes one synchronizer pass.
type SyncResult struct {
	ScannedCount   int
	PublishedCount int
	WrittenCount   int
	Entries        []Entry
}
