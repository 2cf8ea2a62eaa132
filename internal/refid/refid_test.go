package refid

import (
	"regexp"
	"testing"
)

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlug_Basic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Trimmed  Title  ", "trimmed-title"},
		{"Already-Slugged", "already-slugged"},
		{"Symbols!@# Between$%^ Words", "symbols-between-words"},
		{"CamelCase2024", "camelcase2024"},
		{"---", "note"},
		{"", "note"},
		{"!!!", "note"},
	}
	for _, tt := range tests {
		got := Slug(tt.in)
		if got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlug_ShapeAndIdempotence(t *testing.T) {
	inputs := []string{
		"Hello World", "été brûlant", "v1.2.3 release", "a__b", "  x  ", "",
		"Notes/2024/January", "Tab\tSeparated", "trailing-", "-leading",
	}
	for _, in := range inputs {
		got := Slug(in)
		if got != "note" && !slugShape.MatchString(got) {
			t.Errorf("Slug(%q) = %q, does not match shape", in, got)
		}
		if again := Slug(got); again != got {
			t.Errorf("Slug not idempotent: Slug(%q) = %q, Slug(%q) = %q", in, got, got, again)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Note", "my note"},
		{"  My   Spaced   Note  ", "my spaced note"},
		{"Target|Alias", "target"},
		{"note.md", "note"},
		{"folder\\sub\\note.md", "folder/sub/note"},
		{"UPPER case", "upper case"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_KeepsDotsInsidePaths(t *testing.T) {
	// The extension strip only removes a trailing ".ext" with no further
	// dots or slashes in it.
	if got := Normalize("archive.tar.gz"); got != "archive.tar" {
		t.Errorf("Normalize(archive.tar.gz) = %q, want %q", got, "archive.tar")
	}
	if got := Normalize("dir.v2/note"); got != "dir.v2/note" {
		t.Errorf("Normalize(dir.v2/note) = %q, want %q", got, "dir.v2/note")
	}
}

func TestBuildReferenceIDs(t *testing.T) {
	ids := BuildReferenceIDs("My First Post", "my-first-post", "blog/my-first-post.md")
	want := map[string]bool{
		"my first post":      true,
		"my-first-post":      true,
		"blog/my-first-post": true,
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one reference id")
	}
	got := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			t.Error("reference ids must not contain empty strings")
		}
		if got[id] {
			t.Errorf("duplicate reference id %q", id)
		}
		got[id] = true
	}
	for id := range want {
		if !got[id] {
			t.Errorf("missing reference id %q in %v", id, ids)
		}
	}
}

func TestBuildReferenceIDs_NeverEmpty(t *testing.T) {
	ids := BuildReferenceIDs("", "")
	if len(ids) == 0 {
		t.Fatal("expected the slug fallback to guarantee at least one id")
	}
	if ids[len(ids)-1] != "note" {
		t.Errorf("ids = %v, want the fallback slug %q present", ids, "note")
	}
}

func TestEnsureUniqueSlug_Sequence(t *testing.T) {
	used := make(map[string]struct{})
	want := []string{"post", "post-2", "post-3", "post-4"}
	for i, w := range want {
		got := EnsureUniqueSlug("post", used)
		if got != w {
			t.Errorf("call %d: got %q, want %q", i+1, got, w)
		}
	}
}

func TestEnsureUniqueSlug_RegistersResult(t *testing.T) {
	used := map[string]struct{}{"taken": {}}
	got := EnsureUniqueSlug("taken", used)
	if got != "taken-2" {
		t.Fatalf("got %q, want taken-2", got)
	}
	if _, ok := used["taken-2"]; !ok {
		t.Error("chosen slug was not registered in the used set")
	}
}
