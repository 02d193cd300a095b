package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gtm9/remi-ai-v1/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError answers with the alert for err. title names the failed operation.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, title string, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.ErrorContext(r.Context(), title,
			slog.String("error", err.Error()), slog.String("request_id", chimw.GetReqID(r.Context())))
	}
	writeJSON(w, status, model.AlertFromError(title, err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDeleteInFlight):
		return http.StatusConflict
	case errors.Is(err, model.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, title, message string) {
	writeJSON(w, http.StatusBadRequest, model.Alert{Title: title, Message: message})
}
