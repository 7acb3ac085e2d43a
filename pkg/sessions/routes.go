package sessions

import (
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, engine *sync.Engine) {
	sessionService := NewService(db)

	h := &handler{
		sessionService: sessionService,
		engine:         engine,
	}

	e.POST("/sessions", h.create)
	e.GET("/sessions", h.list)
	e.DELETE("/sessions", h.clear)
}
