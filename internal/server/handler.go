// Package server exposes qualification sessions over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/qualification"
	"github.com/Veraticus/qualify/internal/storage"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionFactory creates a new session.
type SessionFactory func(ctx context.Context) (*qualification.Session, error)

// Journal reads a session's events and saved backend responses.
type Journal interface {
	ListEvents(ctx context.Context, sessionID string) ([]storage.Event, error)
	LatestResponse(ctx context.Context, sessionID string) ([]byte, error)
}

// Handler serves the session API.
type Handler struct {
	logger     *slog.Logger
	gatherer   prometheus.Gatherer
	events     Journal
	newSession SessionFactory
	sessions   map[string]*qualification.Session
	maxUpload  int64
	timeout    time.Duration
	mu         sync.RWMutex
}

// Config configures a Handler.
type Config struct {
	Logger     *slog.Logger
	Gatherer   prometheus.Gatherer
	Events     Journal
	NewSession SessionFactory
	// MaxUpload bounds a multipart submission in bytes.
	MaxUpload int64
	// Timeout bounds each request, including the service round trip.
	Timeout time.Duration
}

// New creates a new Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.NewSession == nil {
		return nil, fmt.Errorf("session factory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 64 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &Handler{
		logger:     cfg.Logger,
		gatherer:   cfg.Gatherer,
		events:     cfg.Events,
		newSession: cfg.NewSession,
		sessions:   make(map[string]*qualification.Session),
		maxUpload:  cfg.MaxUpload,
		timeout:    cfg.Timeout,
	}, nil
}

// Register registers the routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	api := chi.NewRouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recoverer)
	api.Use(h.logRequests)
	api.Use(middleware.Timeout(h.timeout))

	api.Post("/sessions", h.handleCreate)
	api.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.handleStatus)
		r.Delete("/", h.handleClose)
		r.Post("/submit", h.handleSubmit)
		r.Post("/replay", h.handleReplay)
		r.Get("/checklist", h.handleChecklist)
		r.Get("/documents", h.handleDocuments)
		r.Post("/edit", h.handleToggleEdit)
		r.Put("/items/{item}", h.handleWriteItem)
		r.Post("/corrections", h.handleCorrection)
		r.Get("/corrections", h.handleListCorrections)
		r.Post("/reprocess", h.handleReprocess)
		r.Get("/alerts", h.handleAlerts)
		r.Delete("/alerts/{alert}", h.handleDismissAlert)
		r.Get("/events", h.handleEvents)
		r.Get("/export/report", h.handleExportReport)
		r.Get("/export/note", h.handleExportNote)
	})

	r.Mount("/api", api)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.InfoContext(r.Context(), "request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (h *Handler) session(r *http.Request) (*qualification.Session, error) {
	id := chi.URLParam(r, "id")
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s, err := h.newSession(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.mu.Unlock()

	h.logger.InfoContext(r.Context(), "session created", "session", s.ID())
	writeJSON(w, http.StatusCreated, s.Status())
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.mu.Lock()
	delete(h.sessions, s.ID())
	h.mu.Unlock()
	s.Close()

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	files, err := h.readUploads(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := s.Submit(r.Context(), files); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) readUploads(w http.ResponseWriter, r *http.Request) ([]backend.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, common.NewValidationError("files", "expected a multipart upload: "+err.Error())
	}

	headers := r.MultipartForm.File["files[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}

	files := make([]backend.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		files = append(files, backend.Upload{Filename: fh.Filename, Data: data})
	}
	return files, nil
}

func (h *Handler) handleReplay(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		h.writeError(w, r, common.NewValidationError("body", err.Error()))
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		// An empty body re-applies the last response the service returned.
		if body, err = h.latestResponse(r.Context(), s.ID()); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if _, err := s.Ingest(r.Context(), body); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) latestResponse(ctx context.Context, sessionID string) ([]byte, error) {
	if h.events == nil {
		return nil, common.NewUserError("Nenhuma resposta salva para reaplicar", common.ErrNoAnalysis)
	}
	body, err := h.events.LatestResponse(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, common.NewUserError("Nenhuma resposta salva para reaplicar", common.ErrNoAnalysis)
	}
	return body, err
}

func (h *Handler) handleChecklist(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Documents())
}

func (h *Handler) handleToggleEdit(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	state := s.ToggleEdit(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"state": state.String()})
}

type writeItemRequest struct {
	Answer        *model.Answer `json:"answer"`
	Justification *string       `json:"justification"`
}

func (h *Handler) handleWriteItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req writeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.NewValidationError("body", "invalid request body"))
		return
	}
	if req.Answer == nil && req.Justification == nil {
		h.writeError(w, r, common.NewValidationError("body", "answer or justification is required"))
		return
	}

	id := chi.URLParam(r, "item")
	if req.Answer != nil {
		if err := s.SetAnswer(r.Context(), id, *req.Answer); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Justification != nil {
		if err := s.SetJustification(r.Context(), id, *req.Justification); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	item, _ := s.Snapshot().Item(id)
	writeJSON(w, http.StatusOK, item)
}

type correctionRequest struct {
	Classification string `json:"classification"`
	Index          int    `json:"index"`
}

func (h *Handler) handleCorrection(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.NewValidationError("body", "invalid request body"))
		return
	}
	c, err := s.RecordCorrection(r.Context(), req.Index, req.Classification)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListCorrections(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Corrections())
}

func (h *Handler) handleReprocess(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result := s.Reprocess(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"updated":  len(result.Items),
		"warnings": result.Warnings,
		"snapshot": s.Snapshot(),
	})
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Alerts())
}

func (h *Handler) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !s.DismissAlert(chi.URLParam(r, "alert")) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "alert not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.events == nil {
		writeJSON(w, http.StatusOK, []storage.Event{})
		return
	}
	events, err := h.events.ListEvents(r.Context(), s.ID())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleExportReport(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := s.ExportReport(r.Context(), format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFile(w, res)
}

func (h *Handler) handleExportNote(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := s.ExportNote(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFile(w, res)
}

func writeFile(w http.ResponseWriter, res *export.Result) {
	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
