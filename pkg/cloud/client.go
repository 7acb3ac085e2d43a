// Package cloud is the client side of the remote mirror service. The sync
// engine only ever talks to the Client, Resolver, and Connectivity interfaces
// so tests and the offline build can swap in fakes.
package cloud

import (
	"context"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
)

// Client is the remote store contract. Upserts are idempotent and keyed by
// entity id plus owner; Fetch* return every record owned by ownerID.
// FetchProgress returns nil when the owner has no progress record yet.
type Client interface {
	UpsertBook(ctx context.Context, ownerID string, book *models.Book) error
	DeleteBook(ctx context.Context, ownerID, bookID string) error
	UpsertSession(ctx context.Context, ownerID string, session *models.Session) error
	UpsertProgress(ctx context.Context, ownerID string, progress *models.UserProgress) error

	FetchBooks(ctx context.Context, ownerID string) ([]*models.Book, error)
	FetchSessions(ctx context.Context, ownerID string) ([]*models.Session, error)
	FetchProgress(ctx context.Context, ownerID string) (*models.UserProgress, error)
}

// Identity is the signed-in account the mirror is scoped to.
type Identity struct {
	OwnerID   string
	ExpiresAt int64 // epoch millis, zero when the token carries no expiry
}

// Resolver yields the current identity, or nil when nobody is signed in or
// the stored token has expired. Resolution must be cheap; it runs before
// every push.
type Resolver interface {
	Resolve(ctx context.Context) (*Identity, error)
}

// Connectivity reports whether the device currently believes it is online.
// It is a hint, not a guarantee; pushes still handle remote failures.
type Connectivity interface {
	Online() bool
}
