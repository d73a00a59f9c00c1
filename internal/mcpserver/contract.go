package mcpserver

// DocumentFormatContract describes the canonical markdown document format
// that LLM consumers should follow when creating or updating documents.
const DocumentFormatContract = `# Inkwell Document Format Contract

Every markdown document stored in Inkwell MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – derived from the first H1 when absent
docId: ab12cd34                     # ASSIGNED BY THE SERVER – never invent or change it
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML frontmatter fences** (` + "`" + `---` + "`" + `), when present, must be the first thing
   in the file (no leading blank lines).
2. **` + "`" + `docId` + "`" + ` is server-owned.** When updating an existing document, keep the
   docId you read; when creating a new one, omit it and the server assigns one.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
5. **Encoding** is UTF-8 with a trailing newline.

## Inline mark dialect

Inkwell extends standard emphasis with five span marks:

- ` + "`" + `~~text~~` + "`" + ` strikethrough
- ` + "`" + `~text~` + "`" + ` subscript
- ` + "`" + `^text^` + "`" + ` superscript
- ` + "`" + `==text==` + "`" + ` highlight
- ` + "`" + `++text++` + "`" + ` underline

Standard ` + "`" + `**bold**` + "`" + `, ` + "`" + `*italic*` + "`" + `, ` + "`" + "`code`" + "`" + `, and ` + "`" + `[links](url)` + "`" + ` work as usual.

## Sentinels

Two HTML fragments carry editor state through markdown and must be preserved
verbatim when they appear:

- ` + "`" + `<!-- -- -->` + "`" + ` on a line of its own is an intentionally empty paragraph.
- ` + "`" + `<br>` + "`" + ` inside a paragraph is a hard line break.

Any other raw HTML is dropped on save; prefer markdown equivalents.

## Example

` + "```" + `markdown
---
title: Weekly review 2026-08-17
docId: 68a1b2c3
tags:
  - review
---

# Weekly review 2026-08-17

Finished the ==draft intro== and cut the H~2~O digression.

- [x] send chapter to readers
- [ ] outline next section
` + "```" + `
`
