package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/database"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/errcodes"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type RetrieveBookOptions struct {
	ID             string
	IncludeContent bool
	IncludeCover   bool
}

// SaveBook sanitizes and persists a book plus its library-index twin and
// cover row in one transaction, so a reader never observes a book without its
// index entry.
func (s *Service) SaveBook(ctx context.Context, book *models.Book) error {
	models.SanitizeBook(book)
	if book.TotalWords == 0 && book.Content != "" {
		book.TotalWords = len(strings.Fields(book.Content))
	}

	now := time.Now()
	book.UpdatedAt = now
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}

	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(book).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("content = EXCLUDED.content").
			Set("progress = EXCLUDED.progress").
			Set("total_words = EXCLUDED.total_words").
			Set("current_index = EXCLUDED.current_index").
			Set("last_read = EXCLUDED.last_read").
			Set("wpm = EXCLUDED.wpm").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		index := book.IndexRecord()
		_, err = tx.NewInsert().
			Model(index).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("progress = EXCLUDED.progress").
			Set("total_words = EXCLUDED.total_words").
			Set("current_index = EXCLUDED.current_index").
			Set("last_read = EXCLUDED.last_read").
			Set("wpm = EXCLUDED.wpm").
			Set("has_cover = EXCLUDED.has_cover").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if book.Cover == "" {
			// An explicit save without a cover drops any stored one so the
			// index's has_cover flag stays truthful.
			_, err = tx.NewDelete().
				Model((*models.BookCover)(nil)).
				Where("book_id = ?", book.ID).
				Exec(ctx)
			return errors.WithStack(err)
		}

		cover := models.NewBookCover(book.ID, book.Cover)
		_, err = tx.NewInsert().
			Model(cover).
			On("CONFLICT (book_id) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("mime_type = EXCLUDED.mime_type").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// RetrieveBook loads a single book. Content and cover are excluded unless
// asked for, so the reader view can stay light.
func (s *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{ID: opts.ID}

	q := s.db.NewSelect().Model(book).WherePK()
	if !opts.IncludeContent {
		q = q.ExcludeColumn("content")
	}

	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Book")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	if opts.IncludeCover {
		cover := &models.BookCover{BookID: book.ID}
		err = s.db.NewSelect().Model(cover).WherePK().Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, errors.WithStack(err)
		}
		book.Cover = cover.Data
	}

	return book, nil
}

// ListBooks returns the library index records, most recently read first.
func (s *Service) ListBooks(ctx context.Context) ([]*models.LibraryBook, error) {
	books := []*models.LibraryBook{}
	err := s.db.NewSelect().
		Model(&books).
		Order("last_read DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

// UpdateReadingPosition advances a book's reading state and mirrors the
// change into the index row.
func (s *Service) UpdateReadingPosition(ctx context.Context, id string, progress float64, currentIndex int, wpm *int) (*models.Book, error) {
	book, err := s.RetrieveBook(ctx, RetrieveBookOptions{ID: id})
	if err != nil {
		return nil, err
	}

	book.Progress = progress
	book.CurrentIndex = currentIndex
	book.LastRead = time.Now().UnixMilli()
	if wpm != nil {
		book.WPM = *wpm
	}
	models.SanitizeBook(book)
	book.UpdatedAt = time.Now()

	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model(book).
			Column("progress", "current_index", "last_read", "wpm", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewUpdate().
			Model(book.IndexRecord()).
			Column("progress", "current_index", "last_read", "wpm").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return book, nil
}

// DeleteBook removes a book and both of its twins in one transaction.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Book")
		}

		_, err = tx.NewDelete().
			Model((*models.LibraryBook)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.BookCover)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
