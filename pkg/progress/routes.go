package progress

import (
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, engine *sync.Engine) {
	progressService := NewService(db)

	h := &handler{
		progressService: progressService,
		engine:          engine,
	}

	e.GET("/progress", h.retrieve)
	e.POST("/progress", h.update)
}
