package model

// ResultKind identifies which pass produced an AnalysisResult.
type ResultKind string

const (
	// ResultAdvanced comes from a response carrying checklist_analysis.
	ResultAdvanced ResultKind = "advanced"
	// ResultLegacy comes from a flat keyed response.
	ResultLegacy ResultKind = "legacy"
	// ResultReprocess comes from a local evidence recomputation.
	ResultReprocess ResultKind = "reprocess"
)

// QualificationStatus is the overall outcome of the qualification.
type QualificationStatus string

const (
	// StatusAprovado means the title can be registered.
	StatusAprovado QualificationStatus = "aprovado"
	// StatusExigencia means requirements must be met before registration.
	StatusExigencia QualificationStatus = "exigencia"
	// StatusReprovado means the title cannot be registered.
	StatusReprovado QualificationStatus = "reprovado"
	// StatusPendente means items are still unanswered.
	StatusPendente QualificationStatus = "pendente"
)

// Label returns the status as shown to users.
func (s QualificationStatus) Label() string {
	switch s {
	case StatusAprovado:
		return "Aprovado"
	case StatusExigencia:
		return "Com exigências"
	case StatusReprovado:
		return "Reprovado"
	default:
		return "Pendente"
	}
}

// ParseQualificationStatus maps service labels onto a status.
func ParseQualificationStatus(s string) (QualificationStatus, bool) {
	switch aliasKey(s) {
	case "aprovado", "apto", "qualificado", "deferido":
		return StatusAprovado, true
	case "exigencia", "com_exigencia", "com_exigencias", "exigencias", "pendente_de_exigencia":
		return StatusExigencia, true
	case "reprovado", "indeferido", "nao_qualificado", "inapto":
		return StatusReprovado, true
	case "pendente", "em_analise":
		return StatusPendente, true
	default:
		return "", false
	}
}

// Counts tallies checklist answers.
type Counts struct {
	Yes           int `json:"yes"`
	No            int `json:"no"`
	NotApplicable int `json:"not_applicable"`
	Unknown       int `json:"unknown"`
	Total         int `json:"total"`
}

// Add records one answer.
func (c *Counts) Add(a Answer) {
	c.Total++
	switch a {
	case AnswerYes:
		c.Yes++
	case AnswerNo:
		c.No++
	case AnswerNotApplicable:
		c.NotApplicable++
	default:
		c.Unknown++
	}
}

// DeriveStatus computes a status from counts when the service sent none.
func (c Counts) DeriveStatus() QualificationStatus {
	switch {
	case c.No > 0:
		return StatusExigencia
	case c.Unknown > 0 || c.Total == 0:
		return StatusPendente
	default:
		return StatusAprovado
	}
}

// Summary is the qualification outcome and the service's narrative.
type Summary struct {
	Status            QualificationStatus `json:"status"`
	LegalGrounds      []string            `json:"legal_grounds,omitempty"`
	IssuesFound       []string            `json:"issues_found,omitempty"`
	Recommendations   []string            `json:"recommendations,omitempty"`
	Counts            Counts              `json:"counts"`
	StatusFromBackend bool                `json:"status_from_backend"`
}

// HasNarrative reports whether the service sent any narrative content.
func (s Summary) HasNarrative() bool {
	return s.StatusFromBackend || len(s.LegalGrounds) > 0 || len(s.IssuesFound) > 0 || len(s.Recommendations) > 0
}

// Clone returns a deep copy.
func (s Summary) Clone() Summary {
	out := s
	out.LegalGrounds = cloneStrings(s.LegalGrounds)
	out.IssuesFound = cloneStrings(s.IssuesFound)
	out.Recommendations = cloneStrings(s.Recommendations)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// WarningCode identifies a non-fatal condition raised during a pass.
type WarningCode string

const (
	// WarningPartialDocument means a document was skipped because the
	// service reported an error for it.
	WarningPartialDocument WarningCode = "partial_document"
	// WarningNoEvidence means no item received evidence from extracted fields.
	WarningNoEvidence WarningCode = "no_evidence"
)

// Warning is surfaced to the user but never stops a pass.
type Warning struct {
	Err      error       `json:"-"`
	Code     WarningCode `json:"code"`
	Message  string      `json:"message"`
	Document int         `json:"document"`
}

// AnalysisResult is the output of one reconciliation pass. Items holds only
// the ids the pass covered.
type AnalysisResult struct {
	Items     map[string]ChecklistItem `json:"items"`
	Kind      ResultKind               `json:"kind"`
	Documents []DocumentRecord         `json:"documents"`
	Warnings  []Warning                `json:"warnings,omitempty"`
	Summary   Summary                  `json:"summary"`
}

// Clone returns a deep copy.
func (r AnalysisResult) Clone() AnalysisResult {
	out := AnalysisResult{
		Kind:      r.Kind,
		Documents: CloneDocuments(r.Documents),
		Summary:   r.Summary.Clone(),
	}
	if r.Items != nil {
		out.Items = make(map[string]ChecklistItem, len(r.Items))
		for id, item := range r.Items {
			out.Items[id] = item.Clone()
		}
	}
	if r.Warnings != nil {
		out.Warnings = append([]Warning(nil), r.Warnings...)
	}
	return out
}
