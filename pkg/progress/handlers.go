package progress

import (
	"net/http"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	progressService *Service
	engine          *sync.Engine
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	progress, err := h.progressService.RetrieveProgress(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, progress))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := UpdateProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	progress, err := h.progressService.ApplyUpdates(ctx, &params)
	if err != nil {
		return errors.WithStack(err)
	}

	h.engine.SyncProgress(ctx, progress)

	return errors.WithStack(c.JSON(http.StatusOK, progress))
}
