package models

import (
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/uptrace/bun"
)

// WPM bounds for any stored reading speed. Values outside this range are
// clamped during sanitization.
const (
	MinWPM = 60
	MaxWPM = 2000
)

// Book is the full on-device record for an imported document, including its
// complete text and cover. It is mirrored into a LibraryBook index row and an
// optional BookCover row, and the three are only ever written together in one
// transaction.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID           string    `bun:",pk" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Title        string    `bun:",nullzero" json:"title"`
	Content      string    `json:"content"`
	Progress     float64   `json:"progress"`
	TotalWords   int       `bun:"total_words" json:"totalWords"`
	Cover        string    `bun:"-" json:"cover,omitempty"`
	CurrentIndex int       `bun:"current_index" json:"currentIndex"`
	LastRead     int64     `bun:"last_read" json:"lastRead"`
	WPM          int       `bun:"wpm" json:"wpm"`
}

// LibraryBook is the lightweight listing record kept alongside every Book. It
// carries no content or cover so the library view never hydrates full books.
type LibraryBook struct {
	bun.BaseModel `bun:"table:library_books,alias:lb"`

	ID           string  `bun:",pk" json:"id"`
	Title        string  `bun:",nullzero" json:"title"`
	Progress     float64 `json:"progress"`
	TotalWords   int     `bun:"total_words" json:"totalWords"`
	CurrentIndex int     `bun:"current_index" json:"currentIndex"`
	LastRead     int64   `bun:"last_read" json:"lastRead"`
	WPM          int     `bun:"wpm" json:"wpm"`
	HasCover     bool    `bun:"has_cover" json:"hasCover"`
}

// BookCover stores a book's cover image as binary-as-text, hydrated lazily by
// the UI. At most one cover exists per book.
type BookCover struct {
	bun.BaseModel `bun:"table:book_covers,alias:bc"`

	BookID   string `bun:"book_id,pk" json:"bookId"`
	Data     string `json:"data"`
	MimeType string `bun:"mime_type" json:"mimeType"`
}

// NewBookCover builds the cover row for a book, sniffing the media type from
// the data itself so callers never have to trust a client-supplied one.
func NewBookCover(bookID, data string) *BookCover {
	return &BookCover{
		BookID:   bookID,
		Data:     data,
		MimeType: mimetype.Detect([]byte(data)).String(),
	}
}

// IndexRecord derives the LibraryBook twin for this book.
func (b *Book) IndexRecord() *LibraryBook {
	return &LibraryBook{
		ID:           b.ID,
		Title:        b.Title,
		Progress:     b.Progress,
		TotalWords:   b.TotalWords,
		CurrentIndex: b.CurrentIndex,
		LastRead:     b.LastRead,
		WPM:          b.WPM,
		HasCover:     b.Cover != "",
	}
}
