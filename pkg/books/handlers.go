package books

import (
	"net/http"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
	engine      *sync.Engine
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		ID:       params.ID,
		Title:    params.Title,
		Content:  params.Content,
		Cover:    params.Cover,
		LastRead: time.Now().UnixMilli(),
	}
	if params.WPM != nil {
		book.WPM = *params.WPM
	}

	err := h.bookService.SaveBook(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	// Push in the background; a failed push lands on the durable queue.
	h.engine.SyncBook(ctx, book)

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	// Bind params.
	params := RetrieveBookQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID:             id,
		IncludeContent: params.Content,
		IncludeCover:   params.Cover,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	books, err := h.bookService.ListBooks(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.LibraryBook `json:"books"`
		Total int                   `json:"total"`
	}{books, len(books)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) updatePosition(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	// Bind params.
	params := UpdateReadingPositionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.UpdateReadingPosition(ctx, id, params.Progress, params.CurrentIndex, params.WPM)
	if err != nil {
		return errors.WithStack(err)
	}

	h.engine.SyncBook(ctx, book)

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	err := h.bookService.DeleteBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// Make sure a queued upsert for this book can't resurrect it remotely.
	if err := h.engine.Queue().DeleteByEntityKey(ctx, string(models.SyncItemSyncBook)+":"+id); err != nil {
		return errors.WithStack(err)
	}
	h.engine.SyncBookDeletion(ctx, id)

	return c.NoContent(http.StatusNoContent)
}
