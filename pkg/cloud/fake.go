package cloud

import (
	"context"
	"sync"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
)

// Fake is an in-memory Client used by tests and by the offline development
// build. FailWrites/FailReads make every corresponding call return an error so
// queue and retry behavior can be driven deterministically.
type Fake struct {
	mu sync.Mutex

	Books    map[string]*models.Book
	Sessions map[string]*models.Session
	Progress *models.UserProgress

	FailWrites bool
	FailReads  bool

	UpsertCalls int
	DeleteCalls int
}

func NewFake() *Fake {
	return &Fake{
		Books:    map[string]*models.Book{},
		Sessions: map[string]*models.Session{},
	}
}

var errFakeUnavailable = errors.New("remote error: unavailable")

func (f *Fake) UpsertBook(_ context.Context, _ string, book *models.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpsertCalls++
	if f.FailWrites {
		return errFakeUnavailable
	}
	clone := *book
	f.Books[book.ID] = &clone
	return nil
}

func (f *Fake) DeleteBook(_ context.Context, _ string, bookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.FailWrites {
		return errFakeUnavailable
	}
	delete(f.Books, bookID)
	return nil
}

func (f *Fake) UpsertSession(_ context.Context, _ string, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpsertCalls++
	if f.FailWrites {
		return errFakeUnavailable
	}
	clone := *session
	f.Sessions[session.ID] = &clone
	return nil
}

func (f *Fake) UpsertProgress(_ context.Context, _ string, progress *models.UserProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpsertCalls++
	if f.FailWrites {
		return errFakeUnavailable
	}
	clone := *progress
	clone.UnlockedAchievements = append([]string{}, progress.UnlockedAchievements...)
	f.Progress = &clone
	return nil
}

func (f *Fake) FetchBooks(_ context.Context, _ string) ([]*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads {
		return nil, errFakeUnavailable
	}
	books := make([]*models.Book, 0, len(f.Books))
	for _, b := range f.Books {
		clone := *b
		books = append(books, &clone)
	}
	return books, nil
}

func (f *Fake) FetchSessions(_ context.Context, _ string) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads {
		return nil, errFakeUnavailable
	}
	sessions := make([]*models.Session, 0, len(f.Sessions))
	for _, s := range f.Sessions {
		clone := *s
		sessions = append(sessions, &clone)
	}
	return sessions, nil
}

func (f *Fake) FetchProgress(_ context.Context, _ string) (*models.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads {
		return nil, errFakeUnavailable
	}
	if f.Progress == nil {
		return nil, nil
	}
	clone := *f.Progress
	clone.UnlockedAchievements = append([]string{}, f.Progress.UnlockedAchievements...)
	return &clone, nil
}

// StaticResolver resolves to a fixed identity. A zero value resolves to
// signed out.
type StaticResolver struct {
	Identity *Identity
}

func (r *StaticResolver) Resolve(_ context.Context) (*Identity, error) {
	return r.Identity, nil
}
