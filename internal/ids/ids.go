package ids

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewEntryID returns a prefixed sortable id for mood and journal entries.
func NewEntryID() string {
	return "entry_" + ksuid.New().String()
}

// NewUserID returns a prefixed id for user accounts.
func NewUserID() string {
	return "user_" + uuid.NewString()
}
