package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/export"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrSubmitInFlight):
		return http.StatusConflict, "submit_in_flight"
	case errors.Is(err, export.ErrNoteNotRequired):
		return http.StatusConflict, "note_not_required"
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusNotImplemented, "pdf_unavailable"
	case errors.Is(err, common.ErrMissingConfig):
		return http.StatusServiceUnavailable, "not_configured"
	}

	kind := common.Classify(err)
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest, string(kind)
	case common.KindWriteRejected, common.KindNoAnalysis:
		return http.StatusConflict, string(kind)
	case common.KindTransport, common.KindMalformedResponse, common.KindChecklistAnalysis:
		return http.StatusBadGateway, string(kind)
	case common.KindCanceled:
		return http.StatusGatewayTimeout, string(kind)
	default:
		return http.StatusInternalServerError, string(common.KindInternal)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		msg = userErr.UserMessage
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err.Error(),
			"kind", common.Classify(err),
		)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	} else {
		h.logger.WarnContext(r.Context(), "request rejected",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err.Error(),
		)
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
