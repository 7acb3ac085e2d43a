package backup

import (
	"io"
	"net/http"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	backupService *Service
}

func (h *handler) export(c echo.Context) error {
	ctx := c.Request().Context()

	envelope, err := h.backupService.Export(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="reading-backup.json"`)
	return errors.WithStack(c.JSON(http.StatusOK, envelope))
}

func (h *handler) importBackup(c echo.Context) error {
	ctx := c.Request().Context()

	// Read one byte past the cap so an oversized body is detected without
	// buffering all of it.
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxBackupBytes+1))
	if err != nil {
		return errors.WithStack(err)
	}
	if len(raw) == 0 {
		return errcodes.EmptyRequestBody()
	}

	summary, err := h.backupService.Import(ctx, raw)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, summary))
}
