package loader

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectMarkdownFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# a")
	writeFile(t, filepath.Join(root, "b.mdx"), "# b")
	writeFile(t, filepath.Join(root, "skip.txt"), "nope")
	writeFile(t, filepath.Join(root, "nested", "c.md"), "# c")
	writeFile(t, filepath.Join(root, "nested", "deeper", "d.MD"), "# d")

	files, err := CollectMarkdownFiles(discardLogger(), []string{root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("len(files) = %d, want 4: %v", len(files), files)
	}
	for _, f := range files {
		if !IsNoteFile(f) {
			t.Errorf("collected non-note file %s", f)
		}
	}
}

func TestCollectMarkdownFiles_MissingDirectory(t *testing.T) {
	files, err := CollectMarkdownFiles(discardLogger(), []string{"/does/not/exist"})
	if err != nil {
		t.Fatalf("missing directory must not error, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestCollectMarkdownFiles_FileInsteadOfDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.md")
	writeFile(t, file, "content")
	files, err := CollectMarkdownFiles(discardLogger(), []string{file})
	if err != nil {
		t.Fatalf("non-directory path must not error, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestLoadNote(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "posts", "My Note.md")
	writeFile(t, path, "---\ntitle: Hello World\ncreated: 2024-03-10\npublished: yes\ntags:\n  - go\n---\nBody here.\n")

	note, err := LoadNote(root, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.Metadata.Title != "Hello World" {
		t.Errorf("title = %q", note.Metadata.Title)
	}
	if note.Metadata.Slug != "hello-world" {
		t.Errorf("slug = %q, want hello-world", note.Metadata.Slug)
	}
	if !note.Metadata.Published {
		t.Error("published = false, want true")
	}
	if note.Metadata.Created == nil || note.Metadata.Created.Format("2006-01-02") != "2024-03-10" {
		t.Errorf("created = %v", note.Metadata.Created)
	}
	if note.RelativePath != "posts/My Note.md" {
		t.Errorf("relativePath = %q", note.RelativePath)
	}
	if note.Body != "Body here.\n" {
		t.Errorf("body = %q", note.Body)
	}
	if len(note.Metadata.ReferenceIDs) == 0 {
		t.Error("referenceIds must not be empty")
	}
}

func TestLoadNote_TitleFallsBackToFilename(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Untitled Thought.md")
	writeFile(t, path, "no frontmatter at all")

	note, err := LoadNote(root, path)
	if err != nil {
		t.Fatal(err)
	}
	if note.Metadata.Title != "Untitled Thought" {
		t.Errorf("title = %q, want filename stem", note.Metadata.Title)
	}
	if note.Metadata.Slug != "untitled-thought" {
		t.Errorf("slug = %q", note.Metadata.Slug)
	}
}

func TestExtractPublished(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"published: true", true},
		{"published: TRUE", true},
		{"published: yes", true},
		{"published: '1'", true},
		{"published: false", false},
		{"published: no", false},
		{"published: maybe", false},
		{"other: true", false},
	}
	for _, tt := range tests {
		root := t.TempDir()
		path := filepath.Join(root, "n.md")
		writeFile(t, path, "---\n"+tt.raw+"\n---\nbody")
		note, err := LoadNote(root, path)
		if err != nil {
			t.Fatal(err)
		}
		if note.Metadata.Published != tt.want {
			t.Errorf("%q: published = %v, want %v", tt.raw, note.Metadata.Published, tt.want)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "not a date", "2024-13-45"} {
		if got := ParseDate(in); got != nil {
			t.Errorf("ParseDate(%q) = %v, want nil", in, got)
		}
	}
}

func TestIsIgnored(t *testing.T) {
	root := t.TempDir()
	ignored := filepath.Join(root, "ignored.md")
	writeFile(t, ignored, "---\nignore: true\n---\nx")
	kept := filepath.Join(root, "kept.md")
	writeFile(t, kept, "---\nignore: false\n---\nx")

	n1, _ := LoadNote(root, ignored)
	n2, _ := LoadNote(root, kept)
	if !IsIgnored(n1) {
		t.Error("ignore: true must be ignored")
	}
	if IsIgnored(n2) {
		t.Error("ignore: false must not be ignored")
	}
}
