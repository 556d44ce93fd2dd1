package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/w-h-a/recall/internal/service/chat"
	"github.com/w-h-a/recall/store"
)

// Envelope is the wire shape of every response: {success, message, data} on
// success and {success:false, message, error} on failure.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeError maps the service error taxonomy onto status codes: validation
// failures are 400, missing chats 404, everything else 500 with the
// underlying message surfaced in the error field.
func writeError(ctx context.Context, w http.ResponseWriter, err error, failMessage string) {
	var validation *chat.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, Envelope{
			Success: false,
			Message: validation.Message,
		})
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Envelope{
			Success: false,
			Message: "chat not found",
		})
		return
	}

	slog.ErrorContext(ctx, failMessage, "error", err)

	writeJSON(w, http.StatusInternalServerError, Envelope{
		Success: false,
		Message: failMessage,
		Error:   err.Error(),
	})
}
