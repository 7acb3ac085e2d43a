package errcodes

import (
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
	golog "github.com/robinjoseph08/golib/logger"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// rejectionCodes are client failures that still deserve a breadcrumb: a
// refused backup or a sync call against a disabled engine usually precedes a
// support question, and the access log alone doesn't say why it was refused.
var rejectionCodes = map[string]bool{
	"checksum_mismatch":          true,
	"backup_too_large":           true,
	"unsupported_backup_version": true,
	"sync_disabled":              true,
}

// Handle is an Echo error handler that uses HTTP errors accordingly, and any
// generic error will be interpreted as an internal server error.
func (h *Handler) Handle(err error, c echo.Context) {
	if errutils.IsIgnorableErr(err) {
		logger.FromEchoContext(c).Err(err).Warn("broken pipe")
		return
	}

	httpCode, code, payload := h.generatePayload(err)

	switch {
	case httpCode == http.StatusInternalServerError:
		logger.FromEchoContext(c).Err(err).Error("server error")
	case rejectionCodes[code]:
		logger.FromEchoContext(c).Err(err).Warn("request rejected", golog.Data{"code": code})
	}

	if err := c.JSON(httpCode, payload); err != nil {
		logger.FromEchoContext(c).Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func (h *Handler) generatePayload(err error) (int, string, map[string]interface{}) {
	code := ""
	msg := ""
	httpCode := http.StatusInternalServerError

	// Echo errors
	var he *echo.HTTPError
	if ok := errors.As(err, &he); ok {
		httpCode = he.Code
		msg = he.Message.(string)
		code = strcase.ToSnake(msg)
	}

	// Custom errors
	var e *Error
	if ok := errors.As(err, &e); ok {
		httpCode = e.HTTPCode
		code = e.Code
		msg = e.Message
	}

	// Internal server errors that aren't Echo errors or custom errors
	if httpCode == http.StatusInternalServerError && msg == "" {
		code = "internal_server_error"
		msg = "Internal Server Error"
	}

	return httpCode, code, map[string]interface{}{
		"error": map[string]interface{}{
			"code":        code,
			"message":     msg,
			"status_code": httpCode,
		},
	}
}
