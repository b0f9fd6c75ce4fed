package storage

import (
	"context"
	"time"

	"journify/core/internal/events"
)

// SyncExternal reloads the medium from its backing state and publishes a
// StorageChange for every recognized application key that differs from
// what this process last saw. Media without external backing are a no-op.
func (s *Store) SyncExternal() {
	r, ok := s.medium.(reloadable)
	if !ok {
		return
	}

	before := s.snapshot()
	if err := r.Reload(); err != nil {
		s.log.Error().Err(err).Msg("reload storage medium failed")
		return
	}
	after := s.snapshot()

	for _, key := range appKeys {
		old, hadOld := before[key]
		cur, hasCur := after[key]
		if old == cur && hadOld == hasCur {
			continue
		}
		s.log.Debug().Str("key", key).Msg("storage changed externally")
		s.bus.StorageChanged.Publish(events.StorageChange{Key: key, OldValue: old, NewValue: cur})
	}
}

func (s *Store) snapshot() map[string]string {
	state := make(map[string]string)
	for _, key := range appKeys {
		if v, ok := s.medium.Get(key); ok {
			state[key] = v
		}
	}
	return state
}

// Watch polls for external changes until ctx is cancelled. The poll
// interval trades staleness for file reads; cross-tab consistency remains
// last-write-wins either way.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := s.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.SyncExternal()
			}
		}
	}()
}
