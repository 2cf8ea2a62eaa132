// Package parser extracts ad-hoc frontmatter from Markdown content.
//
// The frontmatter block is a flat key/value or key/list record between two
// "---" delimiter lines. Parsing is line-based and tolerant: malformed input
// falls back to body-only, it never fails. This is deliberately not a YAML
// parser — nested structures are out of scope.
package parser

import (
	"regexp"
	"strings"
)

const delimiter = "---"

var listItemRe = regexp.MustCompile(`^\s*-\s*(.*)$`)

// Record is a flat frontmatter mapping. Keys preserve their original case;
// values are string, bool, nil, or []string.
type Record map[string]any

// Parse splits raw content into a frontmatter record and the body. Content
// that does not begin with a delimiter line, or whose block is never closed,
// yields an empty record and the full text as body.
func Parse(content string) (Record, string) {
	if !strings.HasPrefix(content, delimiter) {
		return Record{}, content
	}
	lines := splitLines(content)
	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			closing = i
			break
		}
	}
	if closing < 0 {
		return Record{}, content
	}
	record := parseBlock(lines[1:closing])
	body := strings.Join(lines[closing+1:], "\n")
	return record, body
}

// splitLines splits on newlines, tolerating CRLF endings.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func parseBlock(lines []string) Record {
	record := make(Record)
	i := 0
	for i < len(lines) {
		line := lines[i]
		i++
		if strings.TrimSpace(line) == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			// Lines without a colon are skipped silently.
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if value == "" {
			// A bare "key:" consumes the following "- item" lines as a list.
			items := []string{}
			for i < len(lines) {
				m := listItemRe.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				items = append(items, strings.TrimSpace(m[1]))
				i++
			}
			record[key] = items
			continue
		}
		record[key] = parseScalar(value)
	}
	return record
}

// parseScalar interprets a scalar frontmatter value: true/false become
// booleans, null/~ becomes nil, a fully quoted value loses its quotes,
// anything else stays a trimmed literal string.
func parseScalar(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	case "null", "~":
		return nil
	}
	if len(value) >= 2 {
		if (strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) ||
			(strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// Value returns the value for key, matching case-insensitively.
func (r Record) Value(key string) (any, bool) {
	target := strings.ToLower(key)
	for k, v := range r {
		if strings.ToLower(k) == target {
			return v, true
		}
	}
	return nil, false
}

// String returns the trimmed string value for key, or "" when the key is
// absent or not a string.
func (r Record) String(key string) string {
	v, ok := r.Value(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// StringList returns the list value for key. A scalar string value is
// promoted to a single-element list; empty items are dropped.
func (r Record) StringList(key string) []string {
	v, ok := r.Value(key)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		var out []string
		for _, item := range val {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
		return out
	case string:
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return []string{trimmed}
		}
	}
	return nil
}
