// Package images resolves ![[...]] embed directives against the vault,
// converts the matched assets into a per-note WebP folder, and rewrites the
// note body to reference the converted files.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/trace"
)

var embedRe = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)

// supportedExtensions are the input formats the converter can decode.
var supportedExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp",
}

func isSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Options configures one Process call. AssetRootDir receives a per-note
// subfolder named after the note's slug; AssetRelPath is the prefix written
// into the rewritten body.
type Options struct {
	// AssetSourceRoot is the vault's shared asset directory, searched in
	// addition to the note's own directory.
	AssetSourceRoot string
	AssetRootDir    string
	AssetRelPath    string
}

// replacement records one span of the original body and its substitute text.
// Spans are applied in a single left-to-right reconstruction pass against the
// unmodified body, so earlier replacements never invalidate later offsets.
type replacement struct {
	start int
	end   int
	text  string
}

type pendingImage struct {
	fileName   string
	sourcePath string
}

// Process finds every ![[...]] embed in the note body, converts resolvable
// assets into {AssetRootDir}/{slug}/{n}.webp, and returns the rewritten
// body. Unresolved or unsupported embeds are left untouched and logged as
// warnings; conversion or filesystem errors abort the run.
func Process(note *models.NoteDocument, opts Options, conv Converter, logger *slog.Logger, tr *trace.Tracer) (string, error) {
	matches := embedRe.FindAllStringSubmatchIndex(note.Body, -1)
	if len(matches) == 0 {
		tr.Step("images: no embeds", slog.String("note", note.SourcePath))
		return note.Body, nil
	}

	baseDirs := uniqueBaseDirs(filepath.Dir(note.SourcePath), opts.AssetSourceRoot)

	var replacements []replacement
	var pending []pendingImage
	index := 1
	for _, m := range matches {
		start, end := m[0], m[1]
		reference := strings.TrimSpace(note.Body[m[2]:m[3]])
		if reference == "" {
			continue
		}
		// Discard a |display-size suffix.
		target := strings.TrimSpace(strings.SplitN(reference, "|", 2)[0])
		if target == "" {
			continue
		}

		resolved, err := resolveReference(target, baseDirs, tr)
		if err != nil {
			return "", err
		}
		if resolved == "" {
			logger.Warn("images: missing embed",
				slog.String("reference", target),
				slog.String("note", note.SourcePath))
			continue
		}
		if !isSupportedExtension(filepath.Ext(resolved)) {
			logger.Warn("images: unsupported embed",
				slog.String("reference", target),
				slog.String("resolved", resolved))
			continue
		}

		fileName := fmt.Sprintf("%d.webp", index)
		relPath := fmt.Sprintf("%s/%s/%s", opts.AssetRelPath, note.Metadata.Slug, fileName)
		replacements = append(replacements, replacement{
			start: start,
			end:   end,
			text:  fmt.Sprintf("![blog placeholder](%s)", relPath),
		})
		pending = append(pending, pendingImage{fileName: fileName, sourcePath: resolved})
		tr.Step("images: queued embed",
			slog.String("reference", target),
			slog.String("resolved", resolved),
			slog.String("output", relPath))
		index++
	}

	if len(pending) == 0 {
		return note.Body, nil
	}

	// Recreate the per-note asset folder so re-runs never leave stale images.
	noteAssetDir := filepath.Join(opts.AssetRootDir, note.Metadata.Slug)
	if err := os.RemoveAll(noteAssetDir); err != nil {
		return "", fmt.Errorf("images: clear asset dir %s: %w", noteAssetDir, err)
	}
	if err := os.MkdirAll(noteAssetDir, 0o755); err != nil {
		return "", fmt.Errorf("images: create asset dir %s: %w", noteAssetDir, err)
	}
	for _, img := range pending {
		dst := filepath.Join(noteAssetDir, img.fileName)
		if err := conv.Convert(img.sourcePath, dst); err != nil {
			return "", err
		}
		tr.Step("images: converted",
			slog.String("source", img.sourcePath),
			slog.String("destination", dst))
	}

	return applyReplacements(note.Body, replacements), nil
}

// applyReplacements materializes the rewritten body in one pass over the
// original string using the recorded spans.
func applyReplacements(body string, replacements []replacement) string {
	var b strings.Builder
	cursor := 0
	for _, r := range replacements {
		b.WriteString(body[cursor:r.start])
		b.WriteString(r.text)
		cursor = r.end
	}
	b.WriteString(body[cursor:])
	return b.String()
}

func uniqueBaseDirs(dirs ...string) []string {
	seen := make(map[string]struct{}, len(dirs))
	var out []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			abs = d
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// resolveFunc is one matching strategy: given the directory referenced by
// the embed, it returns the matched file path or "".
type resolveFunc func(dir string) (string, error)

// resolveReference locates the asset file behind an embed reference. The
// exact relative path is tried against every base directory first; after
// that an ordered list of fuzzy strategies runs, each across all base
// directories, first match wins.
func resolveReference(reference string, baseDirs []string, tr *trace.Tracer) (string, error) {
	sanitized := strings.TrimSpace(strings.ReplaceAll(reference, "\\", "/"))
	if sanitized == "" {
		return "", nil
	}
	normalized := strings.TrimLeft(sanitized, "/")

	for _, base := range baseDirs {
		candidate, err := fileIfExists(filepath.Join(base, filepath.FromSlash(normalized)))
		if err != nil {
			return "", err
		}
		if candidate != "" {
			tr.Step("images: exact match", slog.String("candidate", candidate))
			return candidate, nil
		}
	}

	subdir := path.Dir(normalized)
	if subdir == "." {
		subdir = ""
	}
	name := path.Base(normalized)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	type strategy struct {
		name string
		fn   resolveFunc
	}
	strategies := []strategy{
		{"case-insensitive", func(dir string) (string, error) {
			return findCaseInsensitive(dir, name)
		}},
	}
	if ext != "" {
		strategies = append(strategies, strategy{"basename-ignoring-extension", func(dir string) (string, error) {
			return findByBaseName(dir, stem)
		}})
	} else {
		strategies = append(strategies, strategy{"extension-guess", func(dir string) (string, error) {
			return findWithKnownExtensions(dir, name)
		}})
	}
	strategies = append(strategies, strategy{"basename-fallback", func(dir string) (string, error) {
		return findByBaseName(dir, stem)
	}})

	for _, st := range strategies {
		for _, base := range baseDirs {
			dir := base
			if subdir != "" {
				dir = filepath.Join(base, filepath.FromSlash(subdir))
			}
			match, err := st.fn(dir)
			if err != nil {
				return "", err
			}
			if match != "" {
				tr.Step("images: fuzzy match",
					slog.String("strategy", st.name),
					slog.String("candidate", match))
				return match, nil
			}
		}
	}

	tr.Step("images: not found", slog.String("reference", reference))
	return "", nil
}

// fileIfExists returns path when it exists and is a regular file.
func fileIfExists(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("images: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	return path, nil
}

// findCaseInsensitive matches target by case-insensitive filename within dir.
func findCaseInsensitive(dir, target string) (string, error) {
	entries, err := readDirIfExists(dir)
	if err != nil || entries == nil {
		return "", err
	}
	lower := strings.ToLower(target)
	for _, entry := range entries {
		if strings.ToLower(entry.Name()) == lower {
			return fileIfExists(filepath.Join(dir, entry.Name()))
		}
	}
	return "", nil
}

// findByBaseName matches any file in dir whose name without extension equals
// base, case-insensitively.
func findByBaseName(dir, base string) (string, error) {
	entries, err := readDirIfExists(dir)
	if err != nil || entries == nil {
		return "", err
	}
	lower := strings.ToLower(base)
	for _, entry := range entries {
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.ToLower(stem) == lower {
			return fileIfExists(filepath.Join(dir, name))
		}
	}
	return "", nil
}

// findWithKnownExtensions tries name with each supported image extension.
func findWithKnownExtensions(dir, name string) (string, error) {
	for _, ext := range supportedExtensions {
		candidate, err := fileIfExists(filepath.Join(dir, name+ext))
		if err != nil {
			return "", err
		}
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", nil
}

func readDirIfExists(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("images: read dir %s: %w", dir, err)
	}
	return entries, nil
}
