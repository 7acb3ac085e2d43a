package errcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/backup/import", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleCustomError(t *testing.T) {
	t.Parallel()

	c, rec := newErrorContext(t)
	NewHandler().Handle(ChecksumMismatch(), c)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"checksum_mismatch"`)
	assert.Contains(t, rec.Body.String(), "does not match")
}

func TestHandleWrappedCustomError(t *testing.T) {
	t.Parallel()

	c, rec := newErrorContext(t)
	NewHandler().Handle(errors.Wrap(SyncDisabled(), "flush"), c)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sync_disabled"`)
}

func TestHandleGenericError(t *testing.T) {
	t.Parallel()

	c, rec := newErrorContext(t)
	NewHandler().Handle(errors.New("boom"), c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"internal_server_error"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}
