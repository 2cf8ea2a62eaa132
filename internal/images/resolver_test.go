package images

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/raido/internal/models"
)

type fakeConverter struct {
	calls [][2]string
	err   error
}

func (f *fakeConverter) Convert(src, dst string) error {
	f.calls = append(f.calls, [2]string{src, dst})
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("webp"), 0o644)
}

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

func testNote(t *testing.T, root, slug, body string) *models.NoteDocument {
	t.Helper()
	path := filepath.Join(root, "notes", slug+".md")
	writeFile(t, path, body)
	return &models.NoteDocument{
		SourcePath: path,
		Body:       body,
		Metadata:   models.NoteMetadata{Slug: slug},
	}
}

func TestProcess_ExactMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "photo.png"), "png")
	note := testNote(t, root, "my-post", "before\n![[photo.png]]\nafter\n")

	conv := &fakeConverter{}
	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "../../assets/blog-image",
	}, conv, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	want := "before\n![blog placeholder](../../assets/blog-image/my-post/1.webp)\nafter\n"
	if out != want {
		t.Errorf("body = %q, want %q", out, want)
	}
	if len(conv.calls) != 1 {
		t.Fatalf("conversions = %d, want 1", len(conv.calls))
	}
	if got := conv.calls[0][1]; got != filepath.Join(root, "assets", "my-post", "1.webp") {
		t.Errorf("destination = %q", got)
	}
}

func TestProcess_CaseInsensitiveMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "photo.PNG"), "png")
	note := testNote(t, root, "casing", "![[photo.png]]")

	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, &fakeConverter{}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "![blog placeholder](rel/casing/1.webp)" {
		t.Errorf("body = %q", out)
	}
}

func TestProcess_ExtensionGuess(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shared", "diagram.jpeg"), "jpeg")
	note := testNote(t, root, "guess", "![[diagram]]")

	conv := &fakeConverter{}
	out, err := Process(note, Options{
		AssetSourceRoot: filepath.Join(root, "shared"),
		AssetRootDir:    filepath.Join(root, "assets"),
		AssetRelPath:    "rel",
	}, conv, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "![blog placeholder](rel/guess/1.webp)" {
		t.Errorf("body = %q", out)
	}
	if !strings.HasSuffix(conv.calls[0][0], "diagram.jpeg") {
		t.Errorf("source = %q, want diagram.jpeg", conv.calls[0][0])
	}
}

func TestProcess_BasenameFallbackWithWrongExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "shot.webp"), "webp")
	note := testNote(t, root, "fallback", "![[shot.png]]")

	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, &fakeConverter{}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "![blog placeholder](rel/fallback/1.webp)" {
		t.Errorf("body = %q", out)
	}
}

func TestProcess_SizeSuffixStripped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "wide.png"), "png")
	note := testNote(t, root, "sized", "![[wide.png|400]]")

	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, &fakeConverter{}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "![blog placeholder](rel/sized/1.webp)" {
		t.Errorf("body = %q", out)
	}
}

func TestProcess_MissingEmbedLeftUntouched(t *testing.T) {
	root := t.TempDir()
	note := testNote(t, root, "missing", "text ![[ghost.png]] more")

	conv := &fakeConverter{}
	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, conv, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != note.Body {
		t.Errorf("body changed: %q", out)
	}
	if len(conv.calls) != 0 {
		t.Errorf("conversions = %d, want 0", len(conv.calls))
	}
}

func TestProcess_UnsupportedExtensionSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "vector.svg"), "<svg/>")
	note := testNote(t, root, "svg", "![[vector.svg]]")

	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, &fakeConverter{}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != note.Body {
		t.Errorf("body changed: %q", out)
	}
}

func TestProcess_MultipleEmbedsNumberedInOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "one.png"), "a")
	writeFile(t, filepath.Join(root, "notes", "two.jpg"), "b")
	note := testNote(t, root, "multi", "![[one.png]]\nmiddle\n![[two.jpg]]\n")

	conv := &fakeConverter{}
	out, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, conv, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "![blog placeholder](rel/multi/1.webp)\nmiddle\n![blog placeholder](rel/multi/2.webp)\n"
	if out != want {
		t.Errorf("body = %q, want %q", out, want)
	}
	if len(conv.calls) != 2 {
		t.Fatalf("conversions = %d, want 2", len(conv.calls))
	}
}

func TestProcess_RecreatesAssetFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes", "pic.png"), "png")
	stale := filepath.Join(root, "assets", "clean", "9.webp")
	writeFile(t, stale, "old")
	note := testNote(t, root, "clean", "![[pic.png]]")

	_, err := Process(note, Options{
		AssetRootDir: filepath.Join(root, "assets"),
		AssetRelPath: "rel",
	}, &fakeConverter{}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale asset must be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "assets", "clean", "1.webp")); err != nil {
		t.Errorf("converted asset missing: %v", err)
	}
}

func TestProcess_NoEmbeds(t *testing.T) {
	root := t.TempDir()
	note := testNote(t, root, "plain", "just text\n")

	conv := &fakeConverter{}
	out, err := Process(note, Options{AssetRootDir: filepath.Join(root, "assets")}, conv, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != note.Body || len(conv.calls) != 0 {
		t.Errorf("no-embed note must pass through unchanged")
	}
}
