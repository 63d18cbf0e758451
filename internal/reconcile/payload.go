// Package reconcile turns qualification service responses into checklist
// results.
package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
)

// Payload is a decoded response. It is either *AdvancedPayload or
// *LegacyPayload.
type Payload interface {
	Kind() model.ResultKind
}

// RawDocument is a document entry as the service reports it.
type RawDocument struct {
	Fields       map[string]string
	Filename     string
	DocumentType string
	Error        string
	TextLength   int
}

// ChecklistEntry is one checklist_analysis answer.
type ChecklistEntry struct {
	Answer        string
	Justification string
	Error         string
}

// Narrative is the summary text sent by the service.
type Narrative struct {
	Status          string
	LegalGrounds    []string
	IssuesFound     []string
	Recommendations []string
}

// AdvancedPayload is a response carrying checklist_analysis.
type AdvancedPayload struct {
	Checklist      map[string]ChecklistEntry
	ChecklistError string
	Documents      []RawDocument
	Narrative      Narrative
}

// Kind implements Payload.
func (*AdvancedPayload) Kind() model.ResultKind { return model.ResultAdvanced }

// LegacyPayload is a flat keyed response.
type LegacyPayload struct {
	Answers        map[string]string
	Justifications map[string]string
	Documents      []RawDocument
	Narrative      Narrative
}

// Kind implements Payload.
func (*LegacyPayload) Kind() model.ResultKind { return model.ResultLegacy }

type envelope struct {
	Success   *bool           `json:"success"`
	Error     json.RawMessage `json:"error"`
	Campos    json.RawMessage `json:"campos"`
	Documents json.RawMessage `json:"documentos_analisados"`
	Advanced  bool            `json:"analise_avancada"`
}

type rawDocument struct {
	TextLength   json.Number                `json:"text_length"`
	Data         map[string]json.RawMessage `json:"document_data"`
	Error        json.RawMessage            `json:"error"`
	Filename     string                     `json:"filename"`
	DocumentType string                     `json:"document_type"`
}

// Decode parses a service response body. It is the only place that looks at
// the JSON shape.
func Decode(body []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed("response is not a JSON object: %v", err)
	}

	if env.Success != nil && !*env.Success {
		msg := stringify(env.Error)
		if msg == "" {
			msg = "no reason given"
		}
		return nil, fmt.Errorf("%w: %s", common.ErrBackendRejected, msg)
	}

	var campos map[string]json.RawMessage
	if !isObject(env.Campos) {
		return nil, malformed("campos is missing or not an object")
	}
	if err := json.Unmarshal(env.Campos, &campos); err != nil {
		return nil, malformed("campos: %v", err)
	}

	_, hasChecklist := campos["checklist_analysis"]
	_, hasDocuments := campos["documents_analyzed"]
	if hasChecklist || hasDocuments || env.Advanced {
		return decodeAdvanced(campos)
	}
	return decodeLegacy(campos, env.Documents)
}

func decodeAdvanced(campos map[string]json.RawMessage) (*AdvancedPayload, error) {
	p := &AdvancedPayload{Checklist: make(map[string]ChecklistEntry)}

	docs, err := decodeDocuments(campos["documents_analyzed"])
	if err != nil {
		return nil, err
	}
	p.Documents = docs

	if raw, ok := campos["checklist_analysis"]; ok && !isNull(raw) {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, malformed("checklist_analysis: %v", err)
		}
		for key, value := range entries {
			if key == "error" {
				p.ChecklistError = errorText(value)
				continue
			}
			p.Checklist[key] = decodeEntry(value)
		}
	}

	if raw, ok := campos["resumo"]; ok && isObject(raw) {
		var resumo map[string]json.RawMessage
		if err := json.Unmarshal(raw, &resumo); err != nil {
			return nil, malformed("resumo: %v", err)
		}
		p.Narrative = Narrative{
			Status:          stringify(resumo["status"]),
			LegalGrounds:    stringList(resumo["fundamentacao_legal"]),
			IssuesFound:     stringList(resumo["problemas_encontrados"]),
			Recommendations: stringList(resumo["recomendacoes"]),
		}
	}
	return p, nil
}

func decodeEntry(raw json.RawMessage) ChecklistEntry {
	if !isObject(raw) {
		return ChecklistEntry{Answer: stringify(raw)}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ChecklistEntry{}
	}
	entry := ChecklistEntry{
		Answer:        stringify(fields["resposta"]),
		Justification: stringify(fields["justificativa"]),
		Error:         errorText(fields["error"]),
	}
	return entry
}

func decodeLegacy(campos map[string]json.RawMessage, documents json.RawMessage) (*LegacyPayload, error) {
	p := &LegacyPayload{
		Answers:        make(map[string]string),
		Justifications: make(map[string]string),
	}

	docs, err := decodeDocuments(documents)
	if err != nil {
		return nil, err
	}
	p.Documents = docs

	for key, value := range campos {
		switch {
		case isItemKey(key):
			p.Answers[key] = stringify(value)
		case strings.HasPrefix(key, "justificativa_") && isItemKey(strings.TrimPrefix(key, "justificativa_")):
			p.Justifications[strings.TrimPrefix(key, "justificativa_")] = stringify(value)
		}
	}

	p.Narrative = Narrative{
		Status:          stringify(campos["status_qualificacao"]),
		LegalGrounds:    stringList(campos["fundamentacao_legal"]),
		IssuesFound:     stringList(campos["problemas_encontrados"]),
		Recommendations: stringList(campos["recomendacoes"]),
	}
	return p, nil
}

func decodeDocuments(raw json.RawMessage) ([]RawDocument, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var entries []rawDocument
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, malformed("document list: %v", err)
	}

	docs := make([]RawDocument, 0, len(entries))
	for _, e := range entries {
		doc := RawDocument{
			Filename:     e.Filename,
			DocumentType: e.DocumentType,
			Error:        errorText(e.Error),
		}
		if n, err := e.TextLength.Float64(); err == nil {
			doc.TextLength = int(n)
		}
		if len(e.Data) > 0 {
			doc.Fields = make(map[string]string, len(e.Data))
			for k, v := range e.Data {
				if s := stringify(v); s != "" {
					doc.Fields[k] = s
				}
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// isItemKey reports whether key looks like "itemN".
func isItemKey(key string) bool {
	digits := strings.TrimPrefix(key, "item")
	if digits == key || digits == "" {
		return false
	}
	_, err := strconv.Atoi(digits)
	return err == nil
}

// stringify renders scalars as text and objects or arrays as compact JSON.
func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return string(trimmed)
		}
		return buf.String()
	default:
		return string(trimmed)
	}
}

// errorText treats false and empty values as no error.
func errorText(raw json.RawMessage) string {
	s := stringify(raw)
	if s == "false" {
		return ""
	}
	return s
}

// stringList accepts a string or a list of strings.
func stringList(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if s := stringify(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
