package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestWriteJSON(t *testing.T) {
	var buf strings.Builder
	w := httptest.NewRecorder()

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"}, zerolog.New(&buf))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Empty(t, buf.String())
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	var buf strings.Builder
	w := brokenWriter{httptest.NewRecorder()}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, zerolog.New(&buf))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "failed to encode response")
	assert.Contains(t, buf.String(), "connection reset by peer")
}
