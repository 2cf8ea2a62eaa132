// Package refid normalizes arbitrary reference strings (titles, filenames,
// relative paths) into canonical lookup keys and URL-safe slugs.
package refid

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Slug converts text into a URL-safe slug: compatibility-decompose, collapse
// every run of non-letter/non-number runes into a single hyphen, strip
// leading/trailing hyphens, lowercase. An empty result becomes "note".
func Slug(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "note"
	}
	decomposed := norm.NFKD.String(trimmed)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	// Recompose so decomposed input (e.g. Hangul jamo) yields the same slug
	// in filenames and URLs.
	slug := norm.NFC.String(strings.ToLower(b.String()))
	if slug == "" {
		return "note"
	}
	return slug
}

// Normalize converts a reference string into a canonical lookup key. This is
// a less destructive normalization than Slug: aliases ([[target|alias]]) are
// cut at the pipe, a trailing file extension is stripped, path separators
// become "/", whitespace runs collapse to one space, and the result is
// lowercased.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	target := trimmed
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	if i := strings.LastIndex(target, "."); i >= 0 {
		ext := target[i+1:]
		if ext != "" && !strings.ContainsAny(ext, "/.") {
			target = target[:i]
		}
	}
	target = strings.ReplaceAll(target, "\\", "/")
	target = whitespaceRe.ReplaceAllString(target, " ")
	return strings.ToLower(target)
}

// BuildReferenceIDs returns the deduplicated union of Normalize and Slug
// applied to the title, the file's base name, and any extra identifiers
// (relative path, explicit slug). Empty strings are excluded; the result is
// never empty because Slug falls back to "note".
func BuildReferenceIDs(title, baseName string, extras ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(Normalize(title))
	add(Normalize(baseName))
	for _, extra := range extras {
		add(Normalize(extra))
	}
	add(Slug(title))
	add(Slug(baseName))
	return out
}

// EnsureUniqueSlug returns base if it is not yet in used, otherwise base-2,
// base-3, ... until a free slug is found. The chosen slug is registered in
// used before returning. Callers must iterate notes in a deterministic order
// for the numbering to be reproducible across runs.
func EnsureUniqueSlug(base string, used map[string]struct{}) string {
	candidate := base
	for suffix := 2; ; suffix++ {
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
