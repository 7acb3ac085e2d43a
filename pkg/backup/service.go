package backup

import (
	"context"
	"database/sql"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/database"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/errcodes"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	// CurrentVersion is the envelope version new exports are written with.
	CurrentVersion = 2

	// MaxBackupBytes caps the raw size of an import before it is parsed.
	MaxBackupBytes = 50 << 20

	// MaxItemsPerCollection caps how many books or sessions a single backup
	// may declare.
	MaxItemsPerCollection = 10000
)

// Payload is the full-state snapshot carried by a backup.
type Payload struct {
	Progress *models.UserProgress `json:"progress"`
	Sessions []*models.Session    `json:"sessions"`
	Books    []*models.Book       `json:"books"`
}

// Envelope is the on-disk backup format. Version 2 wraps the snapshot in
// Payload and seals it with a checksum; version 1 carried the collections at
// the top level with no integrity check and is accepted read-only.
type Envelope struct {
	Version   int      `json:"version"`
	Timestamp int64    `json:"timestamp"`
	Payload   *Payload `json:"payload,omitempty"`
	Checksum  string   `json:"checksum,omitempty"`

	// Legacy version 1 fields.
	Progress *models.UserProgress `json:"progress,omitempty"`
	Sessions []*models.Session    `json:"sessions,omitempty"`
	Books    []*models.Book       `json:"books,omitempty"`
}

// ImportSummary reports what a successful import wrote.
type ImportSummary struct {
	Version  int  `json:"version"`
	Books    int  `json:"books"`
	Sessions int  `json:"sessions"`
	Progress bool `json:"progress"`
}

type Service struct {
	db  *bun.DB
	now func() time.Time
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:  db,
		now: time.Now,
	}
}

// Export snapshots the entire local state into a sealed version 2 envelope.
// Covers are hydrated into their books so the backup is self-contained.
func (s *Service) Export(ctx context.Context) (*Envelope, error) {
	books := []*models.Book{}
	err := s.db.NewSelect().Model(&books).Order("last_read DESC").Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	covers := []*models.BookCover{}
	err = s.db.NewSelect().Model(&covers).Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	coverByBook := map[string]string{}
	for _, c := range covers {
		coverByBook[c.BookID] = c.Data
	}
	for _, b := range books {
		b.Cover = coverByBook[b.ID]
	}

	sessions := []*models.Session{}
	err = s.db.NewSelect().Model(&sessions).Order("timestamp ASC").Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	progress := models.DefaultUserProgress()
	err = s.db.NewSelect().Model(progress).WherePK().Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	payload := &Payload{
		Progress: progress,
		Sessions: sessions,
		Books:    books,
	}

	checksum, err := Checksum(payload)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Version:   CurrentVersion,
		Timestamp: s.now().UnixMilli(),
		Payload:   payload,
		Checksum:  checksum,
	}, nil
}

// Import validates and applies a backup. Every check runs before the first
// write, and all writes happen in one transaction, so a rejected or corrupt
// backup leaves the database untouched.
func (s *Service) Import(ctx context.Context, raw []byte) (*ImportSummary, error) {
	if len(raw) > MaxBackupBytes {
		return nil, errcodes.BackupTooLarge("file exceeds the maximum backup size")
	}

	envelope := &Envelope{}
	if err := json.Unmarshal(raw, envelope); err != nil {
		return nil, errcodes.MalformedPayload()
	}

	payload, err := s.validate(envelope)
	if err != nil {
		return nil, err
	}

	for _, b := range payload.Books {
		models.SanitizeBook(b)
	}
	for _, sess := range payload.Sessions {
		models.SanitizeSession(sess)
	}

	merged, err := s.mergeProgress(ctx, payload.Progress)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		for _, b := range payload.Books {
			if err := writeBookTx(ctx, tx, b, now); err != nil {
				return err
			}
		}
		for _, sess := range payload.Sessions {
			sess.CreatedAt = now
			_, err := tx.NewInsert().
				Model(sess).
				On("CONFLICT (id) DO UPDATE").
				Set("timestamp = EXCLUDED.timestamp").
				Set("duration_seconds = EXCLUDED.duration_seconds").
				Set("words_read = EXCLUDED.words_read").
				Set("average_wpm = EXCLUDED.average_wpm").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return writeProgressTx(ctx, tx, merged, now)
	})
	if err != nil {
		return nil, err
	}

	return &ImportSummary{
		Version:  envelope.Version,
		Books:    len(payload.Books),
		Sessions: len(payload.Sessions),
		Progress: true,
	}, nil
}

// validate checks the envelope's version, limits, and (for version 2) its
// checksum, returning the normalized payload.
func (s *Service) validate(envelope *Envelope) (*Payload, error) {
	var payload *Payload

	switch envelope.Version {
	case 1:
		payload = &Payload{
			Progress: envelope.Progress,
			Sessions: envelope.Sessions,
			Books:    envelope.Books,
		}
	case 2:
		if envelope.Payload == nil || envelope.Checksum == "" {
			return nil, errcodes.MalformedPayload()
		}
		computed, err := Checksum(envelope.Payload)
		if err != nil {
			return nil, err
		}
		if computed != envelope.Checksum {
			return nil, errcodes.ChecksumMismatch()
		}
		payload = envelope.Payload
	default:
		return nil, errcodes.UnsupportedBackupVersion(envelope.Version)
	}

	if len(payload.Books) > MaxItemsPerCollection {
		return nil, errcodes.BackupTooLarge("too many books")
	}
	if len(payload.Sessions) > MaxItemsPerCollection {
		return nil, errcodes.BackupTooLarge("too many sessions")
	}

	return payload, nil
}

// mergeProgress folds the imported progress record onto the current local
// one. Counters only grow and achievements accumulate, so restoring an old
// backup never loses progress; imported preferences win over local ones.
func (s *Service) mergeProgress(ctx context.Context, imported *models.UserProgress) (*models.UserProgress, error) {
	local := models.DefaultUserProgress()
	err := s.db.NewSelect().Model(local).WherePK().Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	if imported == nil {
		return local, nil
	}

	return sync.MergeProgress(models.SanitizeProgress(imported), local), nil
}

func writeBookTx(ctx context.Context, tx bun.Tx, book *models.Book, now time.Time) error {
	book.UpdatedAt = now
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}

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
		return nil
	}
	cover := models.NewBookCover(book.ID, book.Cover)
	_, err = tx.NewInsert().
		Model(cover).
		On("CONFLICT (book_id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("mime_type = EXCLUDED.mime_type").
		Exec(ctx)
	return errors.WithStack(err)
}

func writeProgressTx(ctx context.Context, tx bun.Tx, progress *models.UserProgress, now time.Time) error {
	progress.ID = models.UserProgressID
	progress.UpdatedAt = now
	_, err := tx.NewInsert().
		Model(progress).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Set("current_streak = EXCLUDED.current_streak").
		Set("longest_streak = EXCLUDED.longest_streak").
		Set("total_words_read = EXCLUDED.total_words_read").
		Set("peak_wpm = EXCLUDED.peak_wpm").
		Set("daily_goal_met_count = EXCLUDED.daily_goal_met_count").
		Set("unlocked_achievements = EXCLUDED.unlocked_achievements").
		Set("last_read_date = EXCLUDED.last_read_date").
		Set("default_wpm = EXCLUDED.default_wpm").
		Set("chunk_size = EXCLUDED.chunk_size").
		Set("font_size = EXCLUDED.font_size").
		Set("theme = EXCLUDED.theme").
		Set("daily_goal_words = EXCLUDED.daily_goal_words").
		Set("show_progress_bar = EXCLUDED.show_progress_bar").
		Set("pause_on_punctuation = EXCLUDED.pause_on_punctuation").
		Exec(ctx)
	return errors.WithStack(err)
}
