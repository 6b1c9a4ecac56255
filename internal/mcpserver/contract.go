package mcpserver

// NoteFormatContract describes the zettel format the build accepts.
const NoteFormatContract = `# Zettel Format Contract

A document is a zettel (a note) when it starts with a YAML header that
carries an ` + "`" + `id` + "`" + `. Anything else is published as a plain page and
gets no backlinks, navigation or reference footer.

## Structure

` + "```" + `markdown
---
id: 20250120093000                  # REQUIRED – scalar, unique across the site
title: Human-readable title         # OPTIONAL – falls back to the first "# " heading, then the file name
tags: [zettel, design]              # OPTIONAL – YAML list or comma separated string
last_update: 2025-01-20             # OPTIONAL – overrides the revision date
---
# Human-readable title

Body text in standard Markdown. Link other zettels with [[20250118120000_other]]
or [[20250118120000_other|shown title]] or [shown title](20250118120000_other.md).

---
Reference footer: sources, one per line.
` + "```" + `

## Rules

1. **The header comes first.** The first line holding only ` + "`" + `---` + "`" + ` opens it and the next such
   line closes it. An unclosed header rejects the document.
2. **The header is a YAML mapping.** A list, a scalar or invalid YAML rejects the document.
3. **` + "`" + `id` + "`" + ` is required** and must be a scalar. Integer ids sort numerically;
   duplicated ids reject every document but the first one in id order.
4. **Links** are resolved by substring against note paths, with ` + "`" + `.md` + "`" + ` appended
   when missing. A link without its own title is shown with the target note's title.
5. **Dates** in ` + "`" + `last_update` + "`" + ` may be ` + "`" + `YYYY-MM-DD` + "`" + `, ` + "`" + `YYYY-MM-DD HH:MM:SS` + "`" + `
   or ` + "`" + `YYYY-MM-DDTHH:MM:SS` + "`" + `. Without it the date comes from the id when it starts
   with a 14-digit timestamp, then from version control or the file system.
6. **Reference footer.** The lines after the last ` + "`" + `---` + "`" + ` line of the body (outside
   code fences) are rendered as a reference list and removed from the page. When
   the body ends with a ` + "`" + `---` + "`" + ` line, the footer is what lies between it and
   the divider before it.
7. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. ` + "`" + `index.md` + "`" + ` is the
   home page and ` + "`" + `tags.md` + "`" + ` the tag index.
8. **Encoding** is UTF-8; a leading byte order mark is ignored.

## Example

` + "```" + `markdown
---
id: 20250120093000
tags: [meeting-notes, project-x]
---
# Weekly standup

- [[20250118120000_alice]] to review the [[20250101000000_design|design doc]]
- Bob to update [the roadmap](project-x/20241201000000_roadmap.md)

---
Meeting minutes, shared drive
` + "```" + `
`
