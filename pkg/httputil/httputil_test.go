package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentvault/talentvault-backend/pkg/errors"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", errors.NotFound("candidate"), http.StatusNotFound, "NOT_FOUND"},
		{"wrapped app error", fmt.Errorf("lookup: %w", errors.BadRequest("q is required")), http.StatusBadRequest, "BAD_REQUEST"},
		{"unsupported type", errors.UnsupportedFileType([]string{"pdf", "docx", "txt"}), http.StatusBadRequest, "UNSUPPORTED_TYPE"},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestUnsupportedFileTypeMessage(t *testing.T) {
	err := errors.UnsupportedFileType([]string{"pdf", "docx", "txt"})
	assert.Equal(t, "Unsupported type. Allowed: pdf, docx, txt", err.Message)
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)

	assert.Equal(t, 0, NewMeta(1, 0, 10).TotalPages)
}

func TestValidate(t *testing.T) {
	type query struct {
		Page int    `query:"page" validate:"gte=1"`
		Size int    `json:"size,omitempty" validate:"gte=1,lte=100"`
		Q    string `validate:"required"`
	}

	assert.NoError(t, Validate(query{Page: 1, Size: 20, Q: "go"}))

	err := Validate(query{Page: 0, Size: 500})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "must be at least 1", appErr.Details["page"])
	assert.Equal(t, "must be at most 100", appErr.Details["size"])
	assert.Equal(t, "this field is required", appErr.Details["Q"])
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"generated when missing", "", false},
		{"caller id kept", "abc-123", true},
		{"spaces rejected", "abc 123", false},
		{"overlong rejected", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.wantSame {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("extraction blew up")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "blew up")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test", zerolog.DebugLevel)

	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadGateway} {
		buf.Reset()
		h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/candidates", nil))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.EqualValues(t, status, entry["status"])
		switch {
		case status >= 500:
			assert.Equal(t, "error", entry["level"])
		case status >= 400:
			assert.Equal(t, "warn", entry["level"])
		default:
			assert.Equal(t, "info", entry["level"])
		}
	}
}
