package citation

import (
	"fmt"
	"html"
	"strings"
)

// WholeSetLabel is shown when a justification cites no specific document.
const WholeSetLabel = "Análise do conjunto documental"

func plainMarker(c Citation) string {
	if c.Kind == KindWhole {
		return "[" + WholeSetLabel + "]"
	}
	if c.Filename == "" {
		return fmt.Sprintf("[Doc %d]", c.DocNumber)
	}
	return fmt.Sprintf("[Doc %d: %s]", c.DocNumber, c.Filename)
}

// RenderPlain rewrites each cited span as "[Doc N: filename]" and inserts
// markers at their offsets.
func RenderPlain(j Justification) string {
	var b strings.Builder
	pos := 0
	for _, c := range j.Citations {
		if c.Start < pos || c.End > len(j.Text) {
			continue
		}
		b.WriteString(j.Text[pos:c.Start])
		if c.Inserted() && c.Start > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(plainMarker(c))
		pos = c.End
	}
	b.WriteString(j.Text[pos:])
	return b.String()
}

// RenderHTML escapes the justification text and wraps each citation in a
// span carrying the document number. Newlines become <br>.
func RenderHTML(j Justification) string {
	var b strings.Builder
	pos := 0
	for _, c := range j.Citations {
		if c.Start < pos || c.End > len(j.Text) {
			continue
		}
		b.WriteString(escapeHTML(j.Text[pos:c.Start]))
		if c.Inserted() && c.Start > 0 {
			b.WriteByte(' ')
		}
		if c.Kind == KindWhole {
			b.WriteString(`<span class="citacao citacao-conjunto">`)
		} else {
			fmt.Fprintf(&b, `<span class="citacao" data-doc="%d">`, c.DocNumber)
		}
		b.WriteString(escapeHTML(plainMarker(c)))
		b.WriteString("</span>")
		pos = c.End
	}
	b.WriteString(escapeHTML(j.Text[pos:]))
	return b.String()
}

func escapeHTML(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}
