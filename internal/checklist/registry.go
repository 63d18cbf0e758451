// Package checklist holds the canonical qualification checklist and the
// store that is the single source of truth for its answers.
package checklist

import "fmt"

// Section groups related checklist items.
type Section struct {
	ID    string
	Title string
	Items []Item
}

// Item is a registry entry: a fixed question identified by id.
type Item struct {
	ID       string
	Section  string
	Question string
}

// Registry is the fixed, ordered, sectioned set of checklist items.
type Registry struct {
	byID     map[string]Item
	sections []Section
	order    []string
}

// NewRegistry builds a registry from sections. Duplicate or empty ids are rejected.
func NewRegistry(sections []Section) (*Registry, error) {
	r := &Registry{byID: make(map[string]Item)}
	for _, sec := range sections {
		s := Section{ID: sec.ID, Title: sec.Title}
		for _, it := range sec.Items {
			if it.ID == "" {
				return nil, fmt.Errorf("section %s: empty item id", sec.ID)
			}
			if _, dup := r.byID[it.ID]; dup {
				return nil, fmt.Errorf("duplicate item id %s", it.ID)
			}
			it.Section = sec.ID
			r.byID[it.ID] = it
			r.order = append(r.order, it.ID)
			s.Items = append(s.Items, it)
		}
		r.sections = append(r.sections, s)
	}
	return r, nil
}

// Default returns the registry of property-transfer qualification items.
func Default() *Registry {
	r, err := NewRegistry(defaultSections)
	if err != nil {
		panic(err)
	}
	return r
}

// Has reports whether id is a registry item.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Item looks up a registry item.
func (r *Registry) Item(id string) (Item, bool) {
	it, ok := r.byID[id]
	return it, ok
}

// Key returns the namespaced key "section.id", or "" for unknown ids.
func (r *Registry) Key(id string) string {
	it, ok := r.byID[id]
	if !ok {
		return ""
	}
	return it.Section + "." + it.ID
}

// IDs returns every item id in registry order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Sections returns the sections in order.
func (r *Registry) Sections() []Section {
	out := make([]Section, len(r.sections))
	for i, s := range r.sections {
		out[i] = Section{ID: s.ID, Title: s.Title, Items: append([]Item(nil), s.Items...)}
	}
	return out
}

// Len returns the number of items.
func (r *Registry) Len() int {
	return len(r.order)
}

var defaultSections = []Section{
	{
		ID:    "imovel",
		Title: "Imóvel",
		Items: []Item{
			{ID: "item1", Question: "A matrícula do imóvel foi apresentada e está atualizada?"},
			{ID: "item2", Question: "A descrição do imóvel no título confere com a matrícula?"},
			{ID: "item3", Question: "O imóvel está livre de ônus, penhoras ou indisponibilidades?"},
			{ID: "item4", Question: "A inscrição municipal do imóvel foi informada?"},
		},
	},
	{
		ID:    "partes",
		Title: "Partes",
		Items: []Item{
			{ID: "item5", Question: "Os transmitentes correspondem aos proprietários constantes da matrícula?"},
			{ID: "item6", Question: "As partes estão corretamente qualificadas (nome, CPF/CNPJ, estado civil)?"},
			{ID: "item7", Question: "Há anuência do cônjuge quando exigida pelo regime de bens?"},
			{ID: "item8", Question: "As partes são capazes e não há impedimento legal à alienação?"},
		},
	},
	{
		ID:    "titulo",
		Title: "Título",
		Items: []Item{
			{ID: "item9", Question: "O título é hábil ao registro (escritura pública ou instrumento admitido em lei)?"},
			{ID: "item10", Question: "O valor da transação está declarado no título?"},
			{ID: "item11", Question: "A forma de pagamento está descrita?"},
			{ID: "item12", Question: "O título está devidamente assinado pelas partes e pelo tabelião?"},
		},
	},
	{
		ID:    "tributos",
		Title: "Tributos",
		Items: []Item{
			{ID: "item13", Question: "O ITBI foi recolhido e a guia foi apresentada?"},
			{ID: "item14", Question: "A base de cálculo do ITBI é compatível com o valor declarado?"},
			{ID: "item15", Question: "Foi apresentada certidão negativa de débitos municipais do imóvel?"},
		},
	},
	{
		ID:    "certidoes",
		Title: "Certidões",
		Items: []Item{
			{ID: "item16", Question: "Foram apresentadas as certidões de feitos ajuizados dos transmitentes?"},
			{ID: "item17", Question: "As certidões apresentadas estão dentro do prazo de validade?"},
		},
	},
	{
		ID:    "representacao",
		Title: "Representação",
		Items: []Item{
			{ID: "item18", Question: "Caso haja representação, a procuração foi apresentada?"},
			{ID: "item19", Question: "A procuração confere poderes específicos e está válida?"},
			{ID: "item20", Question: "Em caso de substabelecimento, a cadeia de poderes está completa?"},
		},
	},
}
