package mcpserver

// NoteFormatContract describes the vault note format that LLM consumers
// should follow when preparing notes for synchronization.
const NoteFormatContract = `# Raido Vault Note Format

Notes synchronized to the site MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – filename stem is the fallback
published: true                    # blog notes only; drafts stay unpublished
created: 2025-01-15                # OPTIONAL – ISO-8601 date or datetime
modified: 2025-01-20               # OPTIONAL
tags:                              # OPTIONAL – YAML list
  - tag-one
weather: jp 9-sunny-23C            # log notes only; normalized on output
ignore: true                       # OPTIONAL – exclude the note from output
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use ![[image.png]] to embed a vault image; it is converted to WebP and
rewritten to the site's asset path on output.
` + "```" + `

## Rules

1. **Frontmatter is optional** but must be the first thing in the file when
   present (no leading blank lines before the opening ` + "`" + `---` + "`" + ` fence).
2. **Blog notes publish only with ` + "`" + `published: true` + "`" + `.** Everything else is a
   draft and resolves to the fallback URL when linked.
3. **Log notes** are named by date (e.g. ` + "`" + `2025-01-15.md` + "`" + `) and may carry a
   ` + "`" + `weather` + "`" + ` field.
4. **Wikilinks** match by title, filename stem, or slug, case-insensitively.
   Unresolvable references degrade to a generic writing link, never an error.
5. **Embedded images** live in the vault's shared ` + "`" + `assets/` + "`" + ` directory or
   next to the note. Supported formats: png, jpg, jpeg, gif, bmp, tiff, webp.
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Shipping the pipeline
published: true
created: 2025-01-20
tags:
  - engineering
---

We finally shipped. See [[Design Notes]] for the background.

![[launch-screenshot.png]]
` + "```" + `
`
