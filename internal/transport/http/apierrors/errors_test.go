package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pribylovaa/go-discussions/internal/service"
	"github.com/stretchr/testify/require"
)

func TestToHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{nil, http.StatusInternalServerError, "internal"},
		{ErrBadRequest, http.StatusBadRequest, "invalid_argument"},
		{fmt.Errorf("op: %w", service.ErrValidation), http.StatusBadRequest, "invalid_argument"},
		{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{fmt.Errorf("op: %w", service.ErrUnauthorized), http.StatusForbidden, "permission_denied"},
		{fmt.Errorf("op: %w", service.ErrNotFound), http.StatusNotFound, "not_found"},
		{context.Canceled, StatusClientClosedRequest, "canceled"},
		{fmt.Errorf("op: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline_exceeded"},
		{fmt.Errorf("op: %w", service.ErrInternal), http.StatusInternalServerError, "internal"},
		{errors.New("boom: secret dsn"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		status, resp := ToHTTP(tt.err)
		require.Equal(t, tt.status, status, "%v", tt.err)
		require.Equal(t, tt.code, resp.Error.Code, "%v", tt.err)
		require.NotContains(t, resp.Error.Message, "secret")
	}
}

func TestWriteError_AddsRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	rr := httptest.NewRecorder()

	WriteError(rr, req, service.ErrNotFound)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, "not_found", body.Error.Code)
	require.Equal(t, "rid-1", body.Error.RequestID)
}
