package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/qualify/internal/common"
)

func testBatch() []Upload {
	return []Upload{
		{Filename: "matricula.pdf", Data: []byte("%PDF-1.4 matricula")},
		{Filename: "guia.JPG", Data: []byte("jpeg")},
	}
}

func TestClient_Qualify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, QualifyPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["files[]"]
		require.Len(t, files, 2)
		assert.Equal(t, "matricula.pdf", files[0].Filename)
		assert.Equal(t, "guia.JPG", files[1].Filename)
		assert.Equal(t, "application/pdf", files[0].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 matricula", string(data))

		assert.Equal(t, "modelo-x", r.FormValue("model"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "campos": {}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL + "/", Model: "modelo-x"})
	require.NoError(t, err)

	body, err := client.Qualify(context.Background(), testBatch())
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "campos": {}}`, string(body))
}

func TestClient_QualifyNon2xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "serviço indisponível", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Qualify(context.Background(), testBatch())
	require.Error(t, err)

	var transportErr *common.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.Contains(t, transportErr.Body, "serviço indisponível")
	assert.Equal(t, common.KindTransport, common.Classify(err))
	assert.Equal(t, int32(1), calls.Load(), "requests are not retried")
}

func TestClient_QualifyNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = client.Qualify(context.Background(), testBatch())
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestClient_QualifyTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Qualify(context.Background(), testBatch())
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestClient_ValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Qualify(context.Background(), []Upload{{Filename: "planilha.xlsx", Data: []byte("x")}})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestNewClient_Config(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	c, err := NewClient(Config{BaseURL: "https://cartorio.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cartorio.example.com/api/qualificacao", c.endpoint)
	assert.Equal(t, DefaultModel, c.model)
	assert.Zero(t, c.httpClient.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		files   []Upload
		wantErr bool
	}{
		{name: "empty batch", files: nil, wantErr: true},
		{name: "supported types", files: []Upload{
			{Filename: "a.pdf", Data: []byte("x")},
			{Filename: "b.PNG", Data: []byte("x")},
			{Filename: "c.jpeg", Data: []byte("x")},
			{Filename: "d.tif", Data: []byte("x")},
			{Filename: "e.TIFF", Data: []byte("x")},
		}},
		{name: "unsupported extension", files: []Upload{{Filename: "a.docx", Data: []byte("x")}}, wantErr: true},
		{name: "no extension", files: []Upload{{Filename: "matricula", Data: []byte("x")}}, wantErr: true},
		{name: "empty file", files: []Upload{{Filename: "a.pdf"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.files)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadUploads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matricula.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o600))

	uploads, err := LoadUploads([]string{path})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "matricula.pdf", uploads[0].Filename)
	assert.Equal(t, []byte("pdf"), uploads[0].Data)

	_, err = LoadUploads([]string{filepath.Join(dir, "missing.pdf")})
	assert.ErrorIs(t, err, common.ErrValidation)
}
