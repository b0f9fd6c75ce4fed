// Package events carries the in-process notifications the core components
// exchange: auth state transitions, data mutations, and storage changes
// observed from other tabs/processes. Subscribers register against a
// concrete event type; nothing in the core depends on a subscriber existing.
package events

import (
	"time"

	"journify/core/internal/models"
)

// AuthChange is published whenever the session transitions between
// authenticated and anonymous. User is nil when Authenticated is false.
type AuthChange struct {
	Authenticated bool
	User          *models.User
}

// DataChange is published after every successful entry write or delete.
type DataChange struct {
	Kind      string // "mood" or "journal"
	Action    string // "save" or "delete"
	Date      string
	Timestamp time.Time
}

// StorageChange mirrors a mutation of a recognized application key made
// outside the current process (another tab writing the shared state file).
type StorageChange struct {
	Key      string
	OldValue string
	NewValue string
}

// StorageError reports a failed storage operation. The operation itself
// returns the error to its caller; the feed exists for passive observers.
type StorageError struct {
	Op  string
	Key string
	Err error
}

// Bus groups one feed per event kind. A single Bus is constructed at
// application start and shared by reference.
type Bus struct {
	Auth           *Feed[AuthChange]
	Data           *Feed[DataChange]
	StorageChanged *Feed[StorageChange]
	StorageErrors  *Feed[StorageError]
}

func NewBus() *Bus {
	return &Bus{
		Auth:           NewFeed[AuthChange](),
		Data:           NewFeed[DataChange](),
		StorageChanged: NewFeed[StorageChange](),
		StorageErrors:  NewFeed[StorageError](),
	}
}
