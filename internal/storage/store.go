// Package storage wraps a key-value persistence medium with a metadata
// envelope, optional compression and at-rest encryption, versioning with
// migration hooks, quota recovery, and change notifications. When the
// persistent medium is unavailable it degrades to an in-memory map with
// identical behavior; that mode loses all state at process exit and is
// reported through Degraded().
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"journify/core/internal/config"
	"journify/core/internal/events"
)

// ErrEncryptedValue is returned when a plain read hits an encrypted
// record. Callers must read sensitive keys with GetEncrypted.
var ErrEncryptedValue = errors.New("record is encrypted")

// retentionWindow bounds quota recovery: records older than this are
// evicted when the medium reports a capacity failure.
const retentionWindow = 90 * 24 * time.Hour

// MigrationFunc upgrades stored data toward the registered target version.
type MigrationFunc func(s *Store, fromVersion string) error

type Store struct {
	medium     Medium
	codec      *codec
	bus        *events.Bus
	clock      clockwork.Clock
	log        zerolog.Logger
	version    string
	degraded   bool
	migrations map[string]MigrationFunc
}

// New opens the store over a file medium at cfg.Path, falling back to an
// in-memory medium when the file cannot be used. It stamps the app version
// on first use and runs migration hooks on a version mismatch.
func New(cfg config.StorageConfig, version string, bus *events.Bus, clock clockwork.Clock, logger zerolog.Logger) (*Store, error) {
	cd, err := newCodec(cfg.EncryptionSecret, cfg.CompressionEnabled, cfg.CompressionThreshold)
	if err != nil {
		return nil, err
	}

	s := &Store{
		codec:      cd,
		bus:        bus,
		clock:      clock,
		log:        logger,
		version:    version,
		migrations: make(map[string]MigrationFunc),
	}

	medium, err := OpenFileMedium(cfg.Path, cfg.QuotaBytes)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Path).
			Msg("persistent storage unavailable, falling back to memory (state will not survive restart)")
		s.medium = NewMemoryMedium()
		s.degraded = true
	} else {
		s.medium = medium
	}

	s.RegisterMigration(version, migrateLegacyEntries)

	if err := s.initVersion(); err != nil {
		return nil, err
	}
	return s, nil
}

// Degraded reports whether the store is running on the in-memory fallback.
func (s *Store) Degraded() bool {
	return s.degraded
}

// Version returns the application version the store stamps onto records.
func (s *Store) Version() string {
	return s.version
}

// RegisterMigration installs a hook invoked when the stored version
// differs from target at open time. Registering for the current version
// replaces the built-in legacy re-key hook.
func (s *Store) RegisterMigration(target string, fn MigrationFunc) {
	s.migrations[target] = fn
}

func (s *Store) initVersion() error {
	var stored string
	found, err := s.Get(KeyAppVersion, &stored)
	if err != nil {
		return fmt.Errorf("read stored version: %w", err)
	}

	switch {
	case !found:
		s.log.Debug().Str("version", s.version).Msg("initializing storage version")
	case stored != s.version:
		s.log.Info().Str("from", stored).Str("to", s.version).Msg("migrating stored data")
		if fn, ok := s.migrations[s.version]; ok {
			if err := fn(s, stored); err != nil {
				s.log.Error().Err(err).Msg("migration failed, keeping stored data as-is")
			}
		}
	default:
		return nil
	}
	return s.Set(KeyAppVersion, s.version)
}

// Set serializes value into an envelope and persists it under key.
func (s *Store) Set(key string, value any) error {
	return s.set(key, value, false)
}

// SetEncrypted is Set with authenticated encryption of the payload.
func (s *Store) SetEncrypted(key string, value any) error {
	return s.set(key, value, true)
}

func (s *Store) set(key string, value any, encrypt bool) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return s.fail("set", key, fmt.Errorf("encode value: %w", err))
	}

	rec := Record{
		Timestamp: s.clock.Now().UnixMilli(),
		Version:   s.version,
	}

	processed := string(payload)
	if s.codec.shouldCompress(payload) {
		processed = s.codec.compressValue(payload)
		rec.Compressed = true
	}
	if encrypt {
		processed, err = s.codec.encryptValue([]byte(processed))
		if err != nil {
			return s.fail("set", key, err)
		}
		rec.Encrypted = true
	}
	rec.Value = processed

	raw, err := json.Marshal(rec)
	if err != nil {
		return s.fail("set", key, fmt.Errorf("encode record: %w", err))
	}

	if err := s.medium.Set(key, string(raw)); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			s.recoverQuota()
			if retryErr := s.medium.Set(key, string(raw)); retryErr == nil {
				return nil
			}
		}
		return s.fail("set", key, err)
	}
	return nil
}

// Get reads key into out (a pointer). It returns false with no error when
// the key is absent or holds legacy data that cannot decode into out;
// malformed legacy data never surfaces as an error.
func (s *Store) Get(key string, out any) (bool, error) {
	return s.get(key, out, false)
}

// GetEncrypted reads a key written with SetEncrypted.
func (s *Store) GetEncrypted(key string, out any) (bool, error) {
	return s.get(key, out, true)
}

func (s *Store) get(key string, out any, expectEncrypted bool) (bool, error) {
	raw, ok := s.medium.Get(key)
	if !ok {
		return false, nil
	}

	parsed := ParseRecord(raw)
	switch parsed.Kind {
	case ParsedEnveloped:
		payload, err := s.unwrap(parsed.Record, expectEncrypted)
		if err != nil {
			return false, s.fail("get", key, err)
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return false, s.fail("get", key, fmt.Errorf("decode value: %w", err))
		}
		return true, nil

	case ParsedLegacy:
		if err := json.Unmarshal([]byte(parsed.Raw), out); err != nil {
			s.log.Debug().Str("key", key).Msg("legacy record does not decode into requested type")
			return false, nil
		}
		return true, nil

	default: // ParsedRaw
		if sp, ok := out.(*string); ok {
			*sp = parsed.Raw
			return true, nil
		}
		s.log.Debug().Str("key", key).Msg("raw record requested as non-string type")
		return false, nil
	}
}

func (s *Store) unwrap(rec Record, expectEncrypted bool) ([]byte, error) {
	value := rec.Value
	if rec.Encrypted {
		if !expectEncrypted {
			return nil, ErrEncryptedValue
		}
		plain, err := s.codec.decryptValue(value)
		if err != nil {
			return nil, err
		}
		value = string(plain)
	}
	if rec.Compressed {
		return s.codec.decompressValue(value)
	}
	return []byte(value), nil
}

func (s *Store) Remove(key string) error {
	if err := s.medium.Remove(key); err != nil {
		return s.fail("remove", key, err)
	}
	return nil
}

// Clear deletes every application key. With keepPreferences the theme,
// language, notification flag, and remembered email are read out first and
// written back through the normal set path afterwards.
func (s *Store) Clear(keepPreferences bool) error {
	preserved := make(map[string]any)
	if keepPreferences {
		for _, key := range preferenceKeys {
			var v any
			if found, err := s.Get(key, &v); err == nil && found {
				preserved[key] = v
			}
		}
	}

	var firstErr error
	for _, key := range appKeys {
		if err := s.Remove(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for key, v := range preserved {
		if err := s.Set(key, v); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Timestamp returns the envelope write time of key, if enveloped.
func (s *Store) Timestamp(key string) (time.Time, bool) {
	raw, ok := s.medium.Get(key)
	if !ok {
		return time.Time{}, false
	}
	parsed := ParseRecord(raw)
	if parsed.Kind != ParsedEnveloped || parsed.Record.Timestamp == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(parsed.Record.Timestamp), true
}

// recoverQuota frees space after a capacity failure: the analytics cache
// goes first, then any app key whose record is past the retention window.
func (s *Store) recoverQuota() {
	s.log.Warn().Msg("storage quota exceeded, attempting cleanup")

	if err := s.medium.Remove(KeyAnalyticsCache); err != nil {
		s.log.Error().Err(err).Msg("quota cleanup: drop analytics cache failed")
	}

	cutoff := s.clock.Now().Add(-retentionWindow)
	for _, key := range appKeys {
		if ts, ok := s.Timestamp(key); ok && ts.Before(cutoff) {
			if err := s.medium.Remove(key); err != nil {
				s.log.Error().Err(err).Str("key", key).Msg("quota cleanup: remove stale key failed")
			}
		}
	}
}

// fail logs the failure, publishes it on the error feed, and returns err
// so the caller's operation reports failure instead of throwing deeper.
func (s *Store) fail(op, key string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("key", key).Msg("storage operation failed")
	s.bus.StorageErrors.Publish(events.StorageError{Op: op, Key: key, Err: err})
	return err
}
