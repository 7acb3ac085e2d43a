package backup

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	backupService := NewService(db)

	h := &handler{
		backupService: backupService,
	}

	e.GET("/backup/export", h.export)
	e.POST("/backup/import", h.importBackup)
}
