package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Session is one completed reading session. Sessions are an append-only log:
// they are never updated after insert and are only removed by a bulk clear.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID              string    `bun:",pk" json:"id"`
	CreatedAt       time.Time `json:"-"`
	BookID          string    `bun:"book_id" json:"bookId"`
	Timestamp       int64     `json:"timestamp"`
	DurationSeconds int       `bun:"duration_seconds" json:"durationSeconds"`
	WordsRead       int       `bun:"words_read" json:"wordsRead"`
	AverageWPM      int       `bun:"average_wpm" json:"averageWpm"`
}
