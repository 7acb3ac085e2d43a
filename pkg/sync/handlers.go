package sync

import (
	"net/http"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	engine *Engine
}

func (h *handler) status(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, h.engine.Status()))
}

func (h *handler) flush(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.engine.Enabled() {
		return errcodes.SyncDisabled()
	}

	if err := h.engine.Flush(ctx); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.engine.Status()))
}

func (h *handler) pull(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.engine.Enabled() {
		return errcodes.SyncDisabled()
	}

	if err := h.engine.Pull(ctx); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.engine.Status()))
}
