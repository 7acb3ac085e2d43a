package sessions

import (
	"net/http"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	sessionService *Service
	engine         *sync.Engine
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := CreateSessionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	session := &models.Session{
		ID:              params.ID,
		BookID:          params.BookID,
		Timestamp:       params.Timestamp,
		DurationSeconds: params.DurationSeconds,
		WordsRead:       params.WordsRead,
		AverageWPM:      params.AverageWPM,
	}
	if session.Timestamp == 0 {
		session.Timestamp = time.Now().UnixMilli()
	}

	err := h.sessionService.AppendSession(ctx, session)
	if err != nil {
		return errors.WithStack(err)
	}

	h.engine.SyncSession(ctx, session)

	return errors.WithStack(c.JSON(http.StatusOK, session))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListSessionsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	sessions, total, err := h.sessionService.ListSessions(ctx, ListSessionsOptions{
		BookID: params.BookID,
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Sessions []*models.Session `json:"sessions"`
		Total    int               `json:"total"`
	}{sessions, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) clear(c echo.Context) error {
	ctx := c.Request().Context()

	cleared, err := h.sessionService.ClearSessions(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Cleared int `json:"cleared"`
	}{cleared}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
