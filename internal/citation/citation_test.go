package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotate(t *testing.T) {
	docs := Refs([]string{"matricula.pdf", "contrato.pdf"})

	tests := []struct {
		name     string
		text     string
		expected []Citation
	}{
		{
			name: "short document reference",
			text: "Doc 1: x",
			expected: []Citation{
				{Kind: KindDocument, DocNumber: 1, Filename: "matricula.pdf", Start: 0, End: 5},
			},
		},
		{
			name: "documento with ordinal marker",
			text: "Conforme Documento nº 2",
			expected: []Citation{
				{Kind: KindDocument, DocNumber: 2, Filename: "contrato.pdf", Start: 9, End: len("Conforme Documento nº 2")},
			},
		},
		{
			name: "abbreviated ordinal",
			text: "documento n. 2",
			expected: []Citation{
				{Kind: KindDocument, DocNumber: 2, Filename: "contrato.pdf", Start: 0, End: 14},
			},
		},
		{
			name: "attachment reference",
			text: "ver Anexo 1",
			expected: []Citation{
				{Kind: KindAttachment, DocNumber: 1, Filename: "matricula.pdf", Start: 4, End: 11},
			},
		},
		{
			name: "filename and numbered reference",
			text: "Ver contrato.pdf e Doc. 1",
			expected: []Citation{
				{Kind: KindFilename, DocNumber: 2, Filename: "contrato.pdf", Start: 4, End: 16},
				{Kind: KindDocument, DocNumber: 1, Filename: "matricula.pdf", Start: 19, End: 25},
			},
		},
		{
			name: "filename match is case insensitive",
			text: "CONTRATO.PDF",
			expected: []Citation{
				{Kind: KindFilename, DocNumber: 2, Filename: "contrato.pdf", Start: 0, End: 12},
			},
		},
		{
			name: "number past the batch keeps the number without a filename",
			text: "Anexo 3",
			expected: []Citation{
				{Kind: KindAttachment, DocNumber: 3, Start: 0, End: 7},
			},
		},
		{
			name: "zero is not a document number",
			text: "Doc 0",
			expected: []Citation{
				{Kind: KindWhole, Start: 5, End: 5},
			},
		},
		{
			name: "no reference falls back to whole set",
			text: "texto",
			expected: []Citation{
				{Kind: KindWhole, Start: 5, End: 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := Annotate(tt.text, docs)
			assert.Equal(t, tt.text, j.Text)
			assert.Equal(t, tt.expected, j.Citations)
		})
	}
}

func TestAnnotate_WithoutDocuments(t *testing.T) {
	j := Annotate("Doc 1: x", nil)

	require.Len(t, j.Citations, 1)
	assert.Equal(t, Citation{Kind: KindDocument, DocNumber: 1, Start: 0, End: 5}, j.Citations[0])
	assert.Equal(t, "[Doc 1]: x", RenderPlain(j))
}

func TestAnnotate_BlankText(t *testing.T) {
	j := Annotate("   ", Refs([]string{"a.pdf"}))
	assert.True(t, j.IsZero())
}

func TestAnnotate_OverlapPrefersLongest(t *testing.T) {
	j := Annotate("ver Doc 1.pdf", Refs([]string{"Doc 1.pdf"}))

	require.Len(t, j.Citations, 1)
	assert.Equal(t, KindFilename, j.Citations[0].Kind)
	assert.Equal(t, 4, j.Citations[0].Start)
	assert.Equal(t, 13, j.Citations[0].End)
}

func TestRenderPlain(t *testing.T) {
	docs := Refs([]string{"matricula.pdf"})

	assert.Equal(t, "[Doc 1: matricula.pdf]: x", RenderPlain(Annotate("Doc 1: x", docs)))
	assert.Equal(t, "texto [Análise do conjunto documental]", RenderPlain(Annotate("texto", docs)))
	assert.Empty(t, RenderPlain(Justification{}))
}

func TestRenderHTML(t *testing.T) {
	docs := Refs([]string{"m.pdf"})

	got := RenderHTML(Annotate("a < b, Doc 1", docs))
	assert.Equal(t, `a &lt; b, <span class="citacao" data-doc="1">[Doc 1: m.pdf]</span>`, got)

	whole := RenderHTML(Annotate("sem referência", docs))
	assert.Equal(t, `sem referência <span class="citacao citacao-conjunto">[Análise do conjunto documental]</span>`, whole)
}

func TestBuilder(t *testing.T) {
	var b Builder
	assert.True(t, b.Justification().IsZero())

	b.AddLine(`Campo "valor": 100`, DocRef{Number: 1, Filename: "a.pdf"})
	b.AddLine("x", DocRef{Number: 2, Filename: "b.pdf"})

	j := b.Justification()
	assert.Equal(t, 2, b.Len())
	require.Len(t, j.Citations, 2)
	assert.True(t, j.Citations[0].Inserted())
	assert.Equal(t, "Campo \"valor\": 100 [Doc 1: a.pdf]\nx [Doc 2: b.pdf]", RenderPlain(j))
	assert.Equal(t, `Campo &#34;valor&#34;: 100 <span class="citacao" data-doc="1">[Doc 1: a.pdf]</span><br>x <span class="citacao" data-doc="2">[Doc 2: b.pdf]</span>`, RenderHTML(j))
}

func TestJustificationClone(t *testing.T) {
	j := Annotate("Doc 1", Refs([]string{"a.pdf"}))
	c := j.Clone()
	c.Citations[0].DocNumber = 9

	assert.Equal(t, 1, j.Citations[0].DocNumber)
}

func TestJustificationExplicit(t *testing.T) {
	docs := Refs([]string{"a.pdf"})

	assert.Nil(t, Annotate("texto livre", docs).Explicit().Citations)
	assert.Len(t, Annotate("ver Doc 1", docs).Explicit().Citations, 1)
}
