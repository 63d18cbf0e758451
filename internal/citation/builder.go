package citation

import "strings"

// Builder assembles a justification line by line, attaching a document
// marker to the end of each line.
type Builder struct {
	text      strings.Builder
	citations []Citation
}

// AddLine appends line followed by a marker citing doc.
func (b *Builder) AddLine(line string, doc DocRef) {
	if b.text.Len() > 0 {
		b.text.WriteByte('\n')
	}
	b.text.WriteString(line)
	offset := b.text.Len()
	b.citations = append(b.citations, Citation{
		Kind:      KindEvidence,
		DocNumber: doc.Number,
		Filename:  doc.Filename,
		Start:     offset,
		End:       offset,
	})
}

// Len returns the number of lines added.
func (b *Builder) Len() int {
	return len(b.citations)
}

// Justification returns the assembled justification.
func (b *Builder) Justification() Justification {
	if len(b.citations) == 0 {
		return Justification{}
	}
	return Justification{
		Text:      b.text.String(),
		Citations: append([]Citation(nil), b.citations...),
	}
}
