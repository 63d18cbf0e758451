package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/metrics"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/qualification"
	"github.com/Veraticus/qualify/internal/storage"
)

const serviceBody = `{"success": true, "campos": {
	"documents_analyzed": [
		{"filename": "contrato.pdf", "document_type": "contrato", "document_data": {"valor": "5000", "valor_itbi": "100"}}
	],
	"checklist_analysis": {"item6": {"resposta": "NÃO", "justificativa": "Comprador sem CPF no Doc 1"}}
}}`

type fakeBackend struct {
	got [][]backend.Upload
}

func (f *fakeBackend) Qualify(_ context.Context, files []backend.Upload) ([]byte, error) {
	f.got = append(f.got, files)
	return []byte(serviceBody), nil
}

type testServer struct {
	*httptest.Server
	backend *fakeBackend
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctx := context.Background()

	journal, err := storage.Open(ctx, storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	fb := &fakeBackend{}

	h, err := New(Config{
		Gatherer: reg,
		Events:   journal,
		NewSession: func(ctx context.Context) (*qualification.Session, error) {
			return qualification.New(ctx, qualification.Deps{
				Backend:  fb,
				Journal:  journal,
				Renderer: export.NewRenderer(time.Second),
				Metrics:  m,
			})
		},
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return testServer{Server: srv, backend: fb}
}

func (s testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s testServer) doJSON(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return s.do(t, method, path, r, "application/json")
}

func (s testServer) create(t *testing.T) string {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var st qualification.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	require.NotEmpty(t, st.SessionID)
	return st.SessionID
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func multipartBatch(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile("files[]", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.doJSON(t, http.MethodGet, "/api/sessions/nope/checklist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "not_found", body.Error)
}

func TestSubmitAndReview(t *testing.T) {
	srv := newTestServer(t)
	id := srv.create(t)
	base := "/api/sessions/" + id

	buf, ct := multipartBatch(t, "contrato.pdf")
	resp := srv.do(t, http.MethodPost, base+"/submit", buf, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[checklist.Snapshot](t, resp)
	assert.True(t, snap.Applied)
	assert.Equal(t, model.StatusExigencia, snap.Summary.Status)

	require.Len(t, srv.backend.got, 1)
	assert.Equal(t, "contrato.pdf", srv.backend.got[0][0].Filename)

	resp = srv.doJSON(t, http.MethodPut, base+"/items/item6", `{"answer": "yes"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "write_rejected", decode[errorBody](t, resp).Error)

	resp = srv.doJSON(t, http.MethodPost, base+"/edit", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "editing", decode[map[string]string](t, resp)["state"])

	resp = srv.doJSON(t, http.MethodPut, base+"/items/item6", `{"answer": "yes", "justification": "CPF juntado no Doc 1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	item := decode[checklist.ItemView](t, resp)
	assert.Equal(t, model.AnswerYes, item.Answer)
	assert.Equal(t, model.SourceManual, item.Source)
	require.Len(t, item.Justification.Citations, 1)

	resp = srv.doJSON(t, http.MethodPut, base+"/items/item99", `{"answer": "no"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, base+"/alerts", "")
	alerts := decode[[]qualification.Alert](t, resp)
	require.NotEmpty(t, alerts)

	resp = srv.doJSON(t, http.MethodDelete, base+"/alerts/"+alerts[0].ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, base+"/events", "")
	events := decode[[]storage.Event](t, resp)
	assert.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, storage.EventSessionStarted, events[0].Kind)
}

func TestSubmitValidation(t *testing.T) {
	srv := newTestServer(t)
	id := srv.create(t)

	buf, ct := multipartBatch(t, "planilha.xlsx")
	resp := srv.do(t, http.MethodPost, "/api/sessions/"+id+"/submit", buf, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", decode[errorBody](t, resp).Error)
	assert.Empty(t, srv.backend.got)
}

func TestReplayLatestResponse(t *testing.T) {
	srv := newTestServer(t)
	id := srv.create(t)
	base := "/api/sessions/" + id

	resp := srv.doJSON(t, http.MethodPost, base+"/replay", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_analysis", decode[errorBody](t, resp).Error)

	buf, ct := multipartBatch(t, "contrato.pdf")
	resp = srv.do(t, http.MethodPost, base+"/submit", buf, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = srv.doJSON(t, http.MethodPost, base+"/replay", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[checklist.Snapshot](t, resp).Applied)
	assert.Len(t, srv.backend.got, 1)
}

func TestCorrectionAndReprocess(t *testing.T) {
	srv := newTestServer(t)
	id := srv.create(t)
	base := "/api/sessions/" + id

	resp := srv.doJSON(t, http.MethodPost, base+"/replay", serviceBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodPost, base+"/corrections", `{"index": 3, "classification": "ITBI"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodPost, base+"/corrections", `{"index": 0, "classification": "ITBI"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, base+"/documents", "")
	docs := decode[[]model.DocumentRecord](t, resp)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocITBI, docs[0].Effective())

	resp = srv.doJSON(t, http.MethodPost, base+"/reprocess", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Snapshot checklist.Snapshot `json:"snapshot"`
		Updated  int                `json:"updated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Positive(t, out.Updated)
	item13, ok := out.Snapshot.Item("item13")
	require.True(t, ok)
	assert.Equal(t, model.SourceEvidence, item13.Source)

	resp = srv.doJSON(t, http.MethodGet, base+"/corrections", "")
	assert.Len(t, decode[[]map[string]any](t, resp), 1)
}

func TestExports(t *testing.T) {
	srv := newTestServer(t)
	id := srv.create(t)
	base := "/api/sessions/" + id

	resp := srv.doJSON(t, http.MethodGet, base+"/export/note", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_analysis", decode[errorBody](t, resp).Error)

	resp = srv.doJSON(t, http.MethodPost, base+"/replay", serviceBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, base+"/export/report?format=html", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".html")

	resp = srv.doJSON(t, http.MethodGet, base+"/export/report?format=odt", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, base+"/export/note", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "NOTA DEVOLUTIVA")
}

func TestCloseAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	id := srv.create(t)

	resp := srv.doJSON(t, http.MethodPost, "/api/sessions/"+id+"/replay", serviceBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "qualify_passes_total")
	assert.Contains(t, string(data), "qualify_active_sessions 1")

	resp = srv.doJSON(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
