// Package events publishes library changes to the message broker.
package events

import (
	"context"
	"time"

	"github.com/crucial707/booktrack/internal/models"
	"github.com/google/uuid"
)

const (
	TypeEntryAdded    = "library.entry_added"
	TypeStatusChanged = "library.status_changed"
	TypeEntryRemoved  = "library.entry_removed"
)

// LibraryEvent describes one change to a user's library.
type LibraryEvent struct {
	Type       string        `json:"type"`
	EntryID    uuid.UUID     `json:"entry_id"`
	UserID     uuid.UUID     `json:"user_id"`
	BookID     uuid.UUID     `json:"book_id,omitempty"`
	CatalogID  string        `json:"catalog_id,omitempty"`
	Status     models.Status `json:"status,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// FromEntry builds an event of the given type from a stored entry.
func FromEntry(typ string, e models.Entry) LibraryEvent {
	return LibraryEvent{
		Type:       typ,
		EntryID:    e.ID,
		UserID:     e.UserID,
		BookID:     e.BookID,
		CatalogID:  e.Book.CatalogID,
		Status:     e.Status,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev LibraryEvent) error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, LibraryEvent) error { return nil }
