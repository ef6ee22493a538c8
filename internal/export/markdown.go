// Package export renders snapshots for download.
package export

import (
	"bytes"
	"strings"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

const placeholder = "—"

// ContentType is the media type of Markdown output.
const ContentType = "text/markdown; charset=utf-8"

// Markdown renders s as a Markdown document. Empty sections get a
// placeholder bullet.
func Markdown(s snapshot.Snapshot) []byte {
	s = snapshot.Validate(s)

	var b bytes.Buffer
	line := func(text string) {
		b.WriteString(text)
		b.WriteByte('\n')
	}

	line("# Meeting Snap")
	line("## Decisions")
	writeList(line, s.Decisions)

	line("## Actions (owner " + placeholder + " due)")
	if len(s.Actions) == 0 {
		line("- " + placeholder)
	}
	for _, a := range s.Actions {
		line("- " + orPlaceholder(collapse(a.Action)) + " (" + optional(a.Owner) + " " + placeholder + " " + optional(a.Due) + ")")
	}

	line("## Questions")
	writeList(line, s.Questions)
	line("## Risks")
	writeList(line, s.Risks)

	line("## Next check-in")
	line("- " + optional(s.NextCheckin))
	return b.Bytes()
}

func writeList(line func(string), items []string) {
	n := 0
	for _, item := range items {
		if text := collapse(item); text != "" {
			line("- " + text)
			n++
		}
	}
	if n == 0 {
		line("- " + placeholder)
	}
}

func optional(v *string) string {
	if v == nil {
		return placeholder
	}
	return orPlaceholder(collapse(*v))
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
