package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE books (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				progress REAL NOT NULL DEFAULT 0,
				total_words INTEGER NOT NULL DEFAULT 0,
				current_index INTEGER NOT NULL DEFAULT 0,
				last_read INTEGER NOT NULL DEFAULT 0,
				wpm INTEGER NOT NULL DEFAULT 300
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE library_books (
				id TEXT PRIMARY KEY REFERENCES books (id),
				title TEXT NOT NULL,
				progress REAL NOT NULL DEFAULT 0,
				total_words INTEGER NOT NULL DEFAULT 0,
				current_index INTEGER NOT NULL DEFAULT 0,
				last_read INTEGER NOT NULL DEFAULT 0,
				wpm INTEGER NOT NULL DEFAULT 300,
				has_cover BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE book_covers (
				book_id TEXT PRIMARY KEY REFERENCES books (id),
				data TEXT NOT NULL,
				mime_type TEXT NOT NULL DEFAULT ''
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE sessions (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id TEXT NOT NULL,
				timestamp INTEGER NOT NULL,
				duration_seconds INTEGER NOT NULL DEFAULT 0,
				words_read INTEGER NOT NULL DEFAULT 0,
				average_wpm INTEGER NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_sessions_book_id ON sessions (book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_sessions_timestamp ON sessions (timestamp)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE user_progress (
				id TEXT PRIMARY KEY,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				total_words_read INTEGER NOT NULL DEFAULT 0,
				peak_wpm INTEGER NOT NULL DEFAULT 0,
				daily_goal_met_count INTEGER NOT NULL DEFAULT 0,
				unlocked_achievements TEXT NOT NULL DEFAULT '[]',
				last_read_date TEXT NOT NULL DEFAULT '',
				default_wpm INTEGER NOT NULL DEFAULT 300,
				chunk_size INTEGER NOT NULL DEFAULT 1,
				font_size INTEGER NOT NULL DEFAULT 32,
				theme TEXT NOT NULL DEFAULT 'system',
				daily_goal_words INTEGER NOT NULL DEFAULT 2000,
				show_progress_bar BOOLEAN,
				pause_on_punctuation BOOLEAN
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE sync_queue (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				entity_key TEXT NOT NULL,
				payload BLOB NOT NULL,
				retry_attempts INTEGER NOT NULL DEFAULT 0,
				next_retry_at INTEGER,
				last_error TEXT,
				timestamp INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_sync_queue_entity_key ON sync_queue (entity_key)`)
		if err != nil {
			return errors.WithStack(err)
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"sync_queue", "user_progress", "sessions", "book_covers", "library_books", "books"} {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
