package storage

import (
	"time"

	"journify/core/internal/ids"
)

// migrateLegacyEntries is the built-in hook for the current version: the
// pre-split "journify_entries" collection becomes the mood entry
// collection, with missing ids and record versions filled in.
func migrateLegacyEntries(s *Store, fromVersion string) error {
	var entries []map[string]any
	found, err := s.Get(legacyEntriesKey, &entries)
	if err != nil || !found {
		return err
	}

	now := s.clock.Now().UTC().Format(time.RFC3339)
	for _, entry := range entries {
		if _, ok := entry["id"]; !ok {
			entry["id"] = ids.NewEntryID()
		}
		if _, ok := entry["version"]; !ok {
			entry["version"] = s.version
		}
		if _, ok := entry["createdAt"]; !ok {
			entry["createdAt"] = now
		}
	}

	if err := s.Set(KeyMoodEntries, entries); err != nil {
		return err
	}
	s.log.Info().Int("entries", len(entries)).Str("from", fromVersion).
		Msg("migrated legacy entry collection")
	return s.Remove(legacyEntriesKey)
}
