// Package backend talks to the remote qualification service.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/qualify/internal/common"
)

// DefaultModel is sent when no model is configured.
const DefaultModel = "qualificacao-registral"

// QualifyPath is the endpoint that classifies a batch and evaluates the checklist.
const QualifyPath = "/api/qualificacao"

// Upload is one file of a batch.
type Upload struct {
	Filename string
	Data     []byte
}

// Config configures the client.
type Config struct {
	BaseURL string
	Model   string
	// Timeout bounds the whole request. Zero means no timeout.
	Timeout time.Duration
}

// Client submits batches to the qualification service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

// NewClient validates cfg and creates a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: backend.url", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("%w: backend.url must be an http(s) URL, got %q", common.ErrInvalidConfig, base)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		endpoint: base + QualifyPath,
		model:    model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Qualify sends the batch as one multipart request and returns the raw
// response body. Any network failure or non-2xx status is a
// *common.TransportError. Requests are never retried.
func (c *Client) Qualify(ctx context.Context, files []Upload) ([]byte, error) {
	if err := Validate(files); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBatch(files, c.model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{Err: fmt.Errorf("failed to read response: %w", err), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &common.TransportError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), 512),
		}
	}
	return respBody, nil
}

func encodeBatch(files []Upload, model string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[]"; filename=%q`, filepath.Base(f.Filename)))
		h.Set("Content-Type", contentTypeFor(f.Filename))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// LoadUploads reads files from disk in the given order.
func LoadUploads(paths []string) ([]Upload, error) {
	uploads := make([]Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p) //nolint:gosec // paths come from the user
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, common.NewValidationError("files", fmt.Sprintf("%s does not exist", p))
			}
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		uploads = append(uploads, Upload{Filename: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
