package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"statichost"
	statichosthttp "statichost/http"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "invalid input echoes the reason",
			err:     fmt.Errorf("create site: %w: no files found", statichost.ErrInvalidInput),
			code:    http.StatusBadRequest,
			message: "no files found",
		},
		{
			name:    "conflict echoes the reason",
			err:     fmt.Errorf("create site: %w: domain is already taken", statichost.ErrConflict),
			code:    http.StatusBadRequest,
			message: "domain is already taken",
		},
		{
			name:    "extraction echoes the reason",
			err:     fmt.Errorf("%w: zip: not a valid zip file", statichost.ErrExtraction),
			code:    http.StatusBadRequest,
			message: "zip: not a valid zip file",
		},
		{
			name:    "not found",
			err:     fmt.Errorf("get site: %w", statichost.ErrNotFound),
			code:    http.StatusNotFound,
			message: "Not found",
		},
		{
			name:    "storage failure is generic",
			err:     fmt.Errorf("upload: %w: connection refused", statichost.ErrStorage),
			code:    http.StatusInternalServerError,
			message: "Internal server error",
		},
		{
			name:    "concurrent modification is generic",
			err:     fmt.Errorf("routing cache: %w", statichost.ErrConcurrentModification),
			code:    http.StatusInternalServerError,
			message: "Internal server error",
		},
		{
			name:    "unknown error is generic",
			err:     errors.New("something odd"),
			code:    http.StatusInternalServerError,
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			statichosthttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.code, rec.Code)

			var resp statichosthttp.MessageResponse
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := statichosthttp.WriteJSON(rec, http.StatusOK, map[string]int{"total": 3})
	assert.NoError(t, err)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"total": 3}`, rec.Body.String())
}
