package sync

import (
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Payload is the tagged union of everything that can sit in the retry queue.
// Exactly one field is set; Type() reports which. Deletions carry only the
// bare book id.
type Payload struct {
	Progress *models.UserProgress
	Session  *models.Session
	Book     *models.Book
	BookID   string
}

func ProgressPayload(p *models.UserProgress) Payload {
	return Payload{Progress: p}
}

func SessionPayload(s *models.Session) Payload {
	return Payload{Session: s}
}

func BookPayload(b *models.Book) Payload {
	return Payload{Book: b}
}

func BookDeletionPayload(bookID string) Payload {
	return Payload{BookID: bookID}
}

func (p Payload) Type() models.SyncItemType {
	switch {
	case p.Progress != nil:
		return models.SyncItemUpdateProgress
	case p.Session != nil:
		return models.SyncItemSyncSession
	case p.Book != nil:
		return models.SyncItemSyncBook
	default:
		return models.SyncItemDeleteBook
	}
}

// EntityKey identifies the logical record for queue de-duplication. Progress
// is a singleton, so every progress update collapses onto one key.
func (p Payload) EntityKey() string {
	switch {
	case p.Progress != nil:
		return string(models.SyncItemUpdateProgress) + ":" + models.UserProgressID
	case p.Session != nil:
		return string(models.SyncItemSyncSession) + ":" + p.Session.ID
	case p.Book != nil:
		return string(models.SyncItemSyncBook) + ":" + p.Book.ID
	default:
		return string(models.SyncItemDeleteBook) + ":" + p.BookID
	}
}

func (p Payload) marshal() ([]byte, error) {
	var data []byte
	var err error
	switch {
	case p.Progress != nil:
		data, err = json.Marshal(p.Progress)
	case p.Session != nil:
		data, err = json.Marshal(p.Session)
	case p.Book != nil:
		data, err = json.Marshal(p.Book)
	default:
		data, err = json.Marshal(p.BookID)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// decodePayload rebuilds the tagged payload from a stored queue row.
func decodePayload(item *models.SyncItem) (Payload, error) {
	switch item.Type {
	case models.SyncItemUpdateProgress:
		progress := &models.UserProgress{}
		if err := json.Unmarshal(item.Payload, progress); err != nil {
			return Payload{}, errors.WithStack(err)
		}
		return ProgressPayload(progress), nil
	case models.SyncItemSyncSession:
		session := &models.Session{}
		if err := json.Unmarshal(item.Payload, session); err != nil {
			return Payload{}, errors.WithStack(err)
		}
		return SessionPayload(session), nil
	case models.SyncItemSyncBook:
		book := &models.Book{}
		if err := json.Unmarshal(item.Payload, book); err != nil {
			return Payload{}, errors.WithStack(err)
		}
		return BookPayload(book), nil
	case models.SyncItemDeleteBook:
		bookID := ""
		if err := json.Unmarshal(item.Payload, &bookID); err != nil {
			return Payload{}, errors.WithStack(err)
		}
		return BookDeletionPayload(bookID), nil
	default:
		return Payload{}, errors.Errorf("unknown sync item type %q", item.Type)
	}
}
