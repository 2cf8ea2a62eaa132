// Package links resolves [[wiki-style]] references against the known blog,
// pebble, and source-note indices and rewrites note bodies into standard
// Markdown links. Resolution never fails: a reference that matches nothing
// still becomes a link to the generic writing page.
package links

import (
	"regexp"
	"strings"
)

// FallbackURL is the destination for references that resolve to nothing
// publishable.
const FallbackURL = "/writing"

var wikiLinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Destination is the outcome of resolving one reference.
type Destination struct {
	URL   string
	Label string
}

// Resolver maps a raw reference string to a destination.
type Resolver interface {
	Resolve(reference string) Destination
}

// Rewrite replaces every [[reference]] in body with a [label](url) link
// using the given resolver. Replacement spans are collected against the
// original body and materialized in one left-to-right pass, so offsets stay
// valid regardless of replacement lengths.
func Rewrite(body string, resolver Resolver) string {
	matches := wikiLinkRe.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body
	}
	var b strings.Builder
	cursor := 0
	for _, m := range matches {
		reference := body[m[2]:m[3]]
		dest := resolver.Resolve(reference)
		b.WriteString(body[cursor:m[0]])
		b.WriteString("[")
		b.WriteString(dest.Label)
		b.WriteString("](")
		b.WriteString(dest.URL)
		b.WriteString(")")
		cursor = m[1]
	}
	b.WriteString(body[cursor:])
	return b.String()
}
