package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/jobhunter/internal/apierr"
)

func TestParsePagination_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)

	page, err := ParsePagination(req)

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
}

func TestParsePagination_CapsPageSizeAt100(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs?page_size=500", nil)

	page, err := ParsePagination(req)

	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)
}

func TestParsePagination_RejectsNonPositivePage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs?page=0", nil)

	_, err := ParsePagination(req)

	require.Error(t, err)
}

func TestWriteError_RendersEnvelopeWithRequestID(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(rec, "req-123", apierr.NotFound("job not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"code":"not_found"`)
	assert.Contains(t, body, `"request_id":"req-123"`)
}

func TestUserIDAndRequestID_ReadFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserIDContextKey, "user-42")
	ctx = context.WithValue(ctx, RequestIDContextKey, "req-42")
	req = req.WithContext(ctx)

	assert.Equal(t, "user-42", UserID(req))
	assert.Equal(t, "req-42", RequestID(req))
}
