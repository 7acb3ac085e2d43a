package sessions

import (
	"context"

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

type ListSessionsOptions struct {
	BookID *string
	Limit  *int
	Offset *int
}

// AppendSession records a completed reading session. Sessions are an
// append-only log; there is no update path.
func (s *Service) AppendSession(ctx context.Context, session *models.Session) error {
	models.SanitizeSession(session)

	_, err := s.db.NewInsert().Model(session).Exec(ctx)
	return errors.WithStack(err)
}

// ListSessions returns sessions newest first, optionally scoped to one book.
func (s *Service) ListSessions(ctx context.Context, opts ListSessionsOptions) ([]*models.Session, int, error) {
	sessions := []*models.Session{}

	q := s.db.NewSelect().Model(&sessions).Order("timestamp DESC")
	if opts.BookID != nil {
		q = q.Where("book_id = ?", *opts.BookID)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return sessions, total, nil
}

// ClearSessions drops the whole session log and returns how many rows went.
func (s *Service) ClearSessions(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return int(affected), nil
}
