package books

import (
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, engine *sync.Engine) {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
		engine:      engine,
	}

	e.POST("/books", h.create)
	e.GET("/books/:id", h.retrieve)
	e.GET("/books", h.list)
	e.POST("/books/:id/position", h.updatePosition)
	e.DELETE("/books/:id", h.delete)
}
