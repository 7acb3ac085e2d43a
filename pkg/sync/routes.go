package sync

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, engine *Engine) {
	h := &handler{
		engine: engine,
	}

	e.GET("/sync/status", h.status)
	e.POST("/sync/flush", h.flush)
	e.POST("/sync/pull", h.pull)
}
