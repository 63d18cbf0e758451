// Package citation finds document references inside justification text and
// records them as structured spans, independent of how they are rendered.
package citation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies how a citation was produced.
type Kind string

const (
	// KindDocument is an explicit "Doc N" or "Documento N" reference.
	KindDocument Kind = "document"
	// KindAttachment is an "Arquivo N" or "Anexo N" reference.
	KindAttachment Kind = "attachment"
	// KindFilename is a literal reference to a submitted filename.
	KindFilename Kind = "filename"
	// KindEvidence is a marker inserted for an extracted field.
	KindEvidence Kind = "evidence"
	// KindWhole marks a justification that cites the document set as a whole.
	KindWhole Kind = "whole"
)

// Citation is a span of a justification that refers to a document.
// Start == End means a marker inserted at that offset rather than a
// rewrite of existing text.
type Citation struct {
	Kind      Kind   `json:"kind"`
	Filename  string `json:"filename,omitempty"`
	DocNumber int    `json:"doc_number,omitempty"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// Inserted reports whether the citation is a marker rather than a span.
func (c Citation) Inserted() bool {
	return c.Start == c.End
}

// Justification is justification text plus the citations found in it.
type Justification struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

// IsZero reports whether the justification carries no text and no markers.
func (j Justification) IsZero() bool {
	return j.Text == "" && len(j.Citations) == 0
}

// Clone returns a deep copy.
func (j Justification) Clone() Justification {
	out := Justification{Text: j.Text}
	if j.Citations != nil {
		out.Citations = append([]Citation(nil), j.Citations...)
	}
	return out
}

// Explicit drops the whole-set marker, keeping only citations of specific
// documents.
func (j Justification) Explicit() Justification {
	out := Justification{Text: j.Text}
	for _, c := range j.Citations {
		if c.Kind != KindWhole {
			out.Citations = append(out.Citations, c)
		}
	}
	return out
}

// DocRef identifies a submitted document by its 1-based number.
type DocRef struct {
	Filename string
	Number   int
}

// Refs numbers filenames in upload order starting at 1.
func Refs(filenames []string) []DocRef {
	refs := make([]DocRef, len(filenames))
	for i, name := range filenames {
		refs[i] = DocRef{Number: i + 1, Filename: name}
	}
	return refs
}

var numberedPatterns = []struct {
	re   *regexp.Regexp
	kind Kind
}{
	{
		re:   regexp.MustCompile(`(?i)\bdoc(?:umento)?\.?\s*(?:n\s*[º°o]\.?\s*|n\.\s*)?(\d{1,3})\b`),
		kind: KindDocument,
	},
	{
		re:   regexp.MustCompile(`(?i)\b(?:arquivo|anexo)\s*(?:n\s*[º°o]\.?\s*|n\.\s*)?(\d{1,3})\b`),
		kind: KindAttachment,
	},
}

// Annotate scans text for document references. Numbered references are
// recognized from 1 upward; those within 1..len(docs) also carry the
// document's filename. Filenames are recognized when present in docs. When
// nothing is recognized a KindWhole marker is appended. Blank text yields a
// zero Justification.
func Annotate(text string, docs []DocRef) Justification {
	if strings.TrimSpace(text) == "" {
		return Justification{}
	}

	var found []Citation
	for _, p := range numberedPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			n, err := strconv.Atoi(text[m[2]:m[3]])
			if err != nil || n < 1 {
				continue
			}
			c := Citation{Kind: p.kind, DocNumber: n, Start: m[0], End: m[1]}
			if n <= len(docs) {
				c.Filename = docs[n-1].Filename
			}
			found = append(found, c)
		}
	}

	for _, d := range docs {
		if strings.TrimSpace(d.Filename) == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(d.Filename))
		for _, m := range re.FindAllStringIndex(text, -1) {
			found = append(found, Citation{
				Kind:      KindFilename,
				DocNumber: d.Number,
				Filename:  d.Filename,
				Start:     m[0],
				End:       m[1],
			})
		}
	}

	citations := resolveOverlaps(found)
	if len(citations) == 0 {
		citations = []Citation{{Kind: KindWhole, Start: len(text), End: len(text)}}
	}

	return Justification{Text: text, Citations: citations}
}

// resolveOverlaps keeps the earliest match, preferring the longest when two
// start at the same offset.
func resolveOverlaps(found []Citation) []Citation {
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End-found[i].Start > found[j].End-found[j].Start
	})

	var out []Citation
	end := -1
	for _, c := range found {
		if c.Start < end {
			continue
		}
		out = append(out, c)
		end = c.End
	}
	return out
}
