// Package respond writes the JSON envelopes shared by handlers and
// middlewares.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/storefront/internal/pkg/apperr"
)

type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err to a status code and a caller-safe message. Server errors
// are logged with their cause; client errors only at info level.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.InfoContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "reason", err.Error())
	}
	JSON(w, status, ErrorBody{Success: false, Message: apperr.Message(err)})
}
