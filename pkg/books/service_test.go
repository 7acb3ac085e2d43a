package books

import (
	"context"
	"testing"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/errcodes"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveBookWritesAllTwins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	book := &models.Book{
		Title:   "Dune",
		Content: "fear is the mind killer and more words",
		Cover:   "COVERDATA",
	}
	require.NoError(t, svc.SaveBook(ctx, book))
	require.NotEmpty(t, book.ID)
	assert.Equal(t, 8, book.TotalWords)

	index := &models.LibraryBook{ID: book.ID}
	require.NoError(t, db.NewSelect().Model(index).WherePK().Scan(ctx))
	assert.Equal(t, "Dune", index.Title)
	assert.True(t, index.HasCover)

	cover := &models.BookCover{BookID: book.ID}
	require.NoError(t, db.NewSelect().Model(cover).WherePK().Scan(ctx))
	assert.Equal(t, "COVERDATA", cover.Data)
	assert.NotEmpty(t, cover.MimeType)
}

func TestSaveBookWithoutCoverDropsStoredOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	book := &models.Book{ID: "b1", Title: "Dune", Content: "text", Cover: "COVERDATA"}
	require.NoError(t, svc.SaveBook(ctx, book))

	book.Cover = ""
	require.NoError(t, svc.SaveBook(ctx, book))

	count, err := db.NewSelect().Model((*models.BookCover)(nil)).Where("book_id = ?", "b1").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	index := &models.LibraryBook{ID: "b1"}
	require.NoError(t, db.NewSelect().Model(index).WherePK().Scan(ctx))
	assert.False(t, index.HasCover)
}

func TestRetrieveBookContentAndCoverAreOptIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	require.NoError(t, svc.SaveBook(ctx, &models.Book{ID: "b1", Title: "Dune", Content: "secret text", Cover: "COVERDATA"}))

	light, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: "b1"})
	require.NoError(t, err)
	assert.Empty(t, light.Content)
	assert.Empty(t, light.Cover)

	full, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: "b1", IncludeContent: true, IncludeCover: true})
	require.NoError(t, err)
	assert.Equal(t, "secret text", full.Content)
	assert.Equal(t, "COVERDATA", full.Cover)
}

func TestRetrieveBookNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testutils.NewDB(t))

	_, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
}

func TestUpdateReadingPositionMirrorsIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	require.NoError(t, svc.SaveBook(ctx, &models.Book{ID: "b1", Title: "Dune", Content: "one two three four"}))

	book, err := svc.UpdateReadingPosition(ctx, "b1", 0.5, 2, pointerutil.Int(420))
	require.NoError(t, err)
	assert.Equal(t, 0.5, book.Progress)
	assert.Equal(t, 420, book.WPM)
	assert.Positive(t, book.LastRead)

	index := &models.LibraryBook{ID: "b1"}
	require.NoError(t, db.NewSelect().Model(index).WherePK().Scan(ctx))
	assert.Equal(t, 0.5, index.Progress)
	assert.Equal(t, 2, index.CurrentIndex)
	assert.Equal(t, 420, index.WPM)
}

func TestDeleteBookRemovesAllTwins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	require.NoError(t, svc.SaveBook(ctx, &models.Book{ID: "b1", Title: "Dune", Content: "text", Cover: "COVERDATA"}))
	require.NoError(t, svc.DeleteBook(ctx, "b1"))

	for _, model := range []any{(*models.Book)(nil), (*models.LibraryBook)(nil), (*models.BookCover)(nil)} {
		count, err := db.NewSelect().Model(model).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	}

	err := svc.DeleteBook(ctx, "b1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
}
