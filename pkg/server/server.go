package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/backup"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/binder"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/books"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/config"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/errcodes"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/progress"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sessions"
	syncpkg "github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, engine *syncpkg.Engine) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	books.RegisterRoutes(e, db, engine)
	sessions.RegisterRoutes(e, db, engine)
	progress.RegisterRoutes(e, db, engine)
	syncpkg.RegisterRoutes(e, engine)
	backup.RegisterRoutes(e, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
