package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"statichost"
)

// MessageResponse is the JSON envelope for mutation results and errors.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage writes a {"message": ...} JSON response
func WriteMessage(w http.ResponseWriter, code int, message string) {
	if err := WriteJSON(w, code, MessageResponse{Message: message}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// HandleError writes the appropriate response based on error type.
// Caller-fixable errors echo their message; everything else answers a
// generic 500 so internal details stay out of responses.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, statichost.ErrInvalidInput),
		errors.Is(err, statichost.ErrExtraction),
		errors.Is(err, statichost.ErrConflict):
		WriteMessage(w, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, statichost.ErrNotFound):
		WriteMessage(w, http.StatusNotFound, "Not found")
	default:
		slog.Error("request error", "error", err)
		WriteMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// userMessage strips the internal operation prefix from a wrapped
// error, leaving the user-facing reason after the sentinel.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{statichost.ErrInvalidInput, statichost.ErrExtraction, statichost.ErrConflict} {
		if !errors.Is(err, sentinel) {
			continue
		}
		marker := sentinel.Error() + ": "
		if i := strings.Index(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return msg
}
