package syncer

import (
	"regexp"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

const descriptionLimit = 180

// BlogFrontmatter is the output-side frontmatter of a blog post.
type BlogFrontmatter struct {
	Title       string
	Description string
	PubDate     time.Time
	UpdatedDate *time.Time
	Tags        []string
}

// LogFrontmatter is the output-side frontmatter of a log entry or pebble.
type LogFrontmatter struct {
	Title       string
	PubDate     time.Time
	UpdatedDate *time.Time
	Weather     string
	Tags        []string
}

// publishDate picks the entry's publication date: created, then modified,
// then now.
func publishDate(meta models.NoteMetadata) time.Time {
	if meta.Created != nil {
		return *meta.Created
	}
	if meta.Modified != nil {
		return *meta.Modified
	}
	return time.Now()
}

func buildBlogFrontmatter(note *models.NoteDocument) BlogFrontmatter {
	return BlogFrontmatter{
		Title:       note.Metadata.Title,
		Description: extractDescription(note.Body),
		PubDate:     publishDate(note.Metadata),
		UpdatedDate: note.Metadata.Modified,
		Tags:        note.Metadata.Tags,
	}
}

func buildLogFrontmatter(note *models.NoteDocument) LogFrontmatter {
	return LogFrontmatter{
		Title:       note.Metadata.Title,
		PubDate:     publishDate(note.Metadata),
		UpdatedDate: note.Metadata.Modified,
		Weather:     NormalizeWeather(note.Frontmatter.String("weather")),
		Tags:        note.Metadata.Tags,
	}
}

// extractDescription returns the first non-heading paragraph of the body,
// its lines joined with spaces and truncated to the description limit.
func extractDescription(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	var paragraphs []string
	var buffer []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(buffer) > 0 {
				paragraphs = append(paragraphs, strings.Join(buffer, " "))
				buffer = nil
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		buffer = append(buffer, trimmed)
	}
	if len(buffer) > 0 {
		paragraphs = append(paragraphs, strings.Join(buffer, " "))
	}
	for _, paragraph := range paragraphs {
		if paragraph != "" {
			return truncate(paragraph, descriptionLimit)
		}
	}
	return "No description available."
}

// truncate counts runes so multibyte text is never cut mid-character.
func truncate(value string, maxLength int) string {
	runes := []rune(value)
	if len(runes) <= maxLength {
		return value
	}
	return string(runes[:maxLength-3]) + "..."
}

func serializeBlogFrontmatter(fm BlogFrontmatter) string {
	lines := []string{"---"}
	lines = append(lines, "title: "+yamlQuote(fm.Title))
	lines = append(lines, "description: "+yamlQuote(fm.Description))
	lines = append(lines, "pubDate: "+formatDate(fm.PubDate))
	if fm.UpdatedDate != nil {
		lines = append(lines, "updatedDate: "+formatDate(*fm.UpdatedDate))
	}
	lines = append(lines, tagLines(fm.Tags)...)
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

func serializeLogFrontmatter(fm LogFrontmatter) string {
	lines := []string{"---"}
	lines = append(lines, "title: "+yamlQuote(fm.Title))
	lines = append(lines, "pubDate: "+formatDate(fm.PubDate))
	if fm.UpdatedDate != nil {
		lines = append(lines, "updatedDate: "+formatDate(*fm.UpdatedDate))
	}
	if fm.Weather != "" {
		lines = append(lines, "weather: "+yamlQuote(fm.Weather))
	}
	lines = append(lines, tagLines(fm.Tags)...)
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

func tagLines(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	lines := make([]string, 0, len(tags)+1)
	lines = append(lines, "tags:")
	for _, tag := range tags {
		lines = append(lines, "  - "+yamlQuote(tag))
	}
	return lines
}

// yamlQuote single-quotes a scalar, doubling internal quotes.
func yamlQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func formatDate(date time.Time) string {
	return "'" + date.Format("2006-01-02") + "'"
}

func trimLeadingBlankLines(value string) string {
	return leadingBlankRe.ReplaceAllString(value, "")
}

var leadingBlankRe = regexp.MustCompile(`^\s*\n+`)

func ensureTrailingNewline(value string) string {
	if strings.HasSuffix(value, "\n") {
		return value
	}
	return value + "\n"
}

// weatherPrefixRe recognizes values already in the "[country]: ..." shape.
var weatherPrefixRe = regexp.MustCompile(`^\s*\[?[^\s\]:]+\]?\s*:`)

var weatherSegmentRe = regexp.MustCompile(`\s*,\s*`)

// NormalizeWeather reformats a free-text weather note into the canonical
// "[country]: time - condition temp | ..." shape. Input that already follows
// the pattern passes through untouched; malformed segments degrade to a
// best-effort split, never an error. Empty input normalizes to empty.
func NormalizeWeather(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if weatherPrefixRe.MatchString(trimmed) {
		return trimmed
	}

	firstSpace := strings.Index(trimmed, " ")
	if firstSpace == -1 {
		return "[" + trimmed + "]"
	}
	country := strings.TrimSpace(trimmed[:firstSpace])
	rest := strings.TrimSpace(trimmed[firstSpace+1:])
	if rest == "" {
		return "[" + country + "]"
	}

	var segments []string
	for _, segment := range weatherSegmentRe.Split(rest, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		segments = append(segments, normalizeWeatherSegment(segment))
	}
	if len(segments) == 0 {
		return "[" + country + "]"
	}
	return "[" + country + "]: " + strings.Join(segments, " | ")
}

// normalizeWeatherSegment expects "time-condition-temp"; anything less
// structured has its hyphens flattened to spaces.
func normalizeWeatherSegment(segment string) string {
	var parts []string
	for _, part := range strings.Split(segment, "-") {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) < 3 {
		return strings.ReplaceAll(segment, "-", " ")
	}
	return parts[0] + " - " + parts[1] + " " + strings.Join(parts[2:], "-")
}
