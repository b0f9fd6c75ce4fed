// Package datastore is the typed data access layer over the storage
// envelope: mood and journal entries keyed by calendar date, a read cache
// with TTL, analytics, search, import/export, and integrity checks.
package datastore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"journify/core/internal/config"
	"journify/core/internal/events"
	"journify/core/internal/ids"
	"journify/core/internal/models"
	"journify/core/internal/storage"
	"journify/core/internal/validate"
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrMoodRequired = errors.New("mood is required")
	ErrNotFound     = errors.New("no entry for that date")
)

// Entry kinds used in change events, search results, and reports.
const (
	KindMood    = "mood"
	KindJournal = "journal"
)

// UserSource yields the owner of the data, if anyone is logged in. The
// session manager satisfies it.
type UserSource interface {
	CurrentUser() *models.User
}

type Service struct {
	store *storage.Store
	bus   *events.Bus
	clock clockwork.Clock
	log   zerolog.Logger
	users UserSource
	ttl   config.CacheConfig

	mu         sync.Mutex
	moods      []models.MoodEntry
	moodsAt    time.Time
	journals   []models.JournalEntry
	journalsAt time.Time
	stats      *Statistics
	statsAt    time.Time
	loads      int64

	cancelStorage func()
	cancelAuth    func()
}

// New builds the data layer and subscribes it to cross-tab storage
// changes and auth transitions so the cache never serves another user's
// or another tab's stale view.
func New(store *storage.Store, bus *events.Bus, users UserSource, ttl config.CacheConfig, clock clockwork.Clock, logger zerolog.Logger) *Service {
	s := &Service{
		store: store,
		bus:   bus,
		clock: clock,
		log:   logger,
		users: users,
		ttl:   ttl,
	}
	s.cancelStorage = bus.StorageChanged.Subscribe(s.handleStorageChange)
	s.cancelAuth = bus.Auth.Subscribe(func(ev events.AuthChange) {
		if !ev.Authenticated {
			s.InvalidateCache()
		}
	})
	return s
}

// Close detaches the event subscriptions.
func (s *Service) Close() {
	if s.cancelStorage != nil {
		s.cancelStorage()
	}
	if s.cancelAuth != nil {
		s.cancelAuth()
	}
}

// Loads reports how many times entry slices were read from the store, as
// opposed to being served from cache.
func (s *Service) Loads() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// InvalidateCache drops every cached slice and the statistics snapshot.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.moods = nil
	s.journals = nil
	s.stats = nil
	s.mu.Unlock()
}

func (s *Service) handleStorageChange(ev events.StorageChange) {
	switch ev.Key {
	case storage.KeyMoodEntries:
		s.mu.Lock()
		s.moods = nil
		s.stats = nil
		s.mu.Unlock()
	case storage.KeyJournalEntries:
		s.mu.Lock()
		s.journals = nil
		s.stats = nil
		s.mu.Unlock()
	}
}

// fresh reports whether a cache slot filled at stamp is still usable.
// An entry aged exactly to the TTL is already stale.
func (s *Service) fresh(stamp time.Time) bool {
	return !stamp.IsZero() && s.clock.Since(stamp) < s.ttl.TTL
}

// loadMoodsLocked returns the mood slice, reading through on a cold or
// expired cache. Caller holds s.mu.
func (s *Service) loadMoodsLocked() ([]models.MoodEntry, error) {
	if s.moods != nil && s.fresh(s.moodsAt) {
		return s.moods, nil
	}

	raw, err := s.rawMoodsLocked()
	if err != nil {
		return nil, err
	}

	// Records with malformed dates are invisible to reads; Cleanup is the
	// path that actually removes them.
	entries := make([]models.MoodEntry, 0, len(raw))
	for _, e := range raw {
		if !validate.Date(e.Date) {
			continue
		}
		entries = append(entries, e)
	}
	if dropped := len(raw) - len(entries); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("ignoring mood records with malformed dates")
	}
	s.moods = entries
	s.moodsAt = s.clock.Now()
	return entries, nil
}

// rawMoodsLocked reads the stored collection unfiltered, for integrity
// scans and cleanup. Caller holds s.mu.
func (s *Service) rawMoodsLocked() ([]models.MoodEntry, error) {
	var entries []models.MoodEntry
	if _, err := s.store.Get(storage.KeyMoodEntries, &entries); err != nil {
		return nil, fmt.Errorf("load mood entries: %w", err)
	}
	s.loads++
	if entries == nil {
		entries = []models.MoodEntry{}
	}
	return entries, nil
}

func (s *Service) loadJournalsLocked() ([]models.JournalEntry, error) {
	if s.journals != nil && s.fresh(s.journalsAt) {
		return s.journals, nil
	}

	raw, err := s.rawJournalsLocked()
	if err != nil {
		return nil, err
	}

	entries := make([]models.JournalEntry, 0, len(raw))
	for _, e := range raw {
		if !validate.Date(e.Date) {
			continue
		}
		entries = append(entries, e)
	}
	if dropped := len(raw) - len(entries); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("ignoring journal records with malformed dates")
	}
	s.journals = entries
	s.journalsAt = s.clock.Now()
	return entries, nil
}

func (s *Service) rawJournalsLocked() ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	if _, err := s.store.Get(storage.KeyJournalEntries, &entries); err != nil {
		return nil, fmt.Errorf("load journal entries: %w", err)
	}
	s.loads++
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return entries, nil
}

func (s *Service) saveMoodsLocked(entries []models.MoodEntry) error {
	if err := s.store.Set(storage.KeyMoodEntries, entries); err != nil {
		return err
	}
	s.moods = entries
	s.moodsAt = s.clock.Now()
	s.stats = nil
	return nil
}

func (s *Service) saveJournalsLocked(entries []models.JournalEntry) error {
	if err := s.store.Set(storage.KeyJournalEntries, entries); err != nil {
		return err
	}
	s.journals = entries
	s.journalsAt = s.clock.Now()
	s.stats = nil
	return nil
}

func (s *Service) publishChange(kind, action, date string) {
	s.bus.Data.Publish(events.DataChange{
		Kind:      kind,
		Action:    action,
		Date:      date,
		Timestamp: s.clock.Now(),
	})
}

// Moods returns all mood entries sorted by date ascending.
func (s *Service) Moods() ([]models.MoodEntry, error) {
	s.mu.Lock()
	entries, err := s.loadMoodsLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.MoodEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// MoodByDate returns the entry for one date, or ErrNotFound.
func (s *Service) MoodByDate(date string) (*models.MoodEntry, error) {
	if !validate.Date(date) {
		return nil, ErrInvalidDate
	}
	s.mu.Lock()
	entries, err := s.loadMoodsLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Date == date {
			e := entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

// MoodsInRange returns entries with start <= date <= end, newest first.
func (s *Service) MoodsInRange(start, end string) ([]models.MoodEntry, error) {
	if !validate.Date(start) || !validate.Date(end) {
		return nil, ErrInvalidDate
	}
	all, err := s.Moods()
	if err != nil {
		return nil, err
	}
	out := make([]models.MoodEntry, 0)
	for _, e := range all {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// RecentMoods returns the newest n entries, newest first.
func (s *Service) RecentMoods(n int) ([]models.MoodEntry, error) {
	all, err := s.Moods()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// MoodInput is a save request. Date defaults to today when empty.
type MoodInput struct {
	Date     string
	Mood     string
	MoodNote string
}

// SaveMood upserts the mood entry for the given date. An existing entry
// keeps its ID and CreatedAt; only Mood, MoodNote, and UpdatedAt move.
func (s *Service) SaveMood(input MoodInput) (*models.MoodEntry, error) {
	if input.Date == "" {
		input.Date = s.today()
	}
	if !validate.Date(input.Date) {
		return nil, ErrInvalidDate
	}
	mood := strings.ToLower(strings.TrimSpace(input.Mood))
	if mood == "" {
		return nil, ErrMoodRequired
	}
	// The note is optional here; the required rule belongs to the entry
	// form. A provided note still obeys the shared length bounds.
	note := strings.TrimSpace(input.MoodNote)
	if note != "" {
		if res := validate.MoodNote(note); !res.IsValid {
			return nil, errors.New(res.Message())
		}
	}

	now := s.clock.Now().UTC()

	s.mu.Lock()
	entries, err := s.loadMoodsLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	updated := make([]models.MoodEntry, len(entries))
	copy(updated, entries)

	var saved models.MoodEntry
	found := false
	for i := range updated {
		if updated[i].Date == input.Date {
			updated[i].Mood = mood
			updated[i].MoodNote = note
			updated[i].Timestamp = now
			updated[i].UpdatedAt = now
			saved = updated[i]
			found = true
			break
		}
	}
	if !found {
		saved = models.MoodEntry{
			ID:        ids.NewEntryID(),
			Date:      input.Date,
			Mood:      mood,
			MoodNote:  note,
			Timestamp: now,
			CreatedAt: now,
			UpdatedAt: now,
			Version:   models.EntryVersion,
		}
		updated = append(updated, saved)
	}

	if err := s.saveMoodsLocked(updated); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.log.Debug().Str("date", saved.Date).Str("mood", saved.Mood).Msg("mood entry saved")
	s.publishChange(KindMood, "save", saved.Date)
	return &saved, nil
}

// DeleteMood removes the entry for date. Deleting an absent date returns
// ErrNotFound and changes nothing.
func (s *Service) DeleteMood(date string) error {
	if !validate.Date(date) {
		return ErrInvalidDate
	}

	s.mu.Lock()
	entries, err := s.loadMoodsLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	remaining := make([]models.MoodEntry, 0, len(entries))
	removed := false
	for _, e := range entries {
		if e.Date == date {
			removed = true
			continue
		}
		remaining = append(remaining, e)
	}
	if !removed {
		s.mu.Unlock()
		return ErrNotFound
	}
	if err := s.saveMoodsLocked(remaining); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publishChange(KindMood, "delete", date)
	return nil
}

// Journals returns all journal entries sorted by date ascending.
func (s *Service) Journals() ([]models.JournalEntry, error) {
	s.mu.Lock()
	entries, err := s.loadJournalsLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.JournalEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// JournalByDate returns the entry for one date, or ErrNotFound.
func (s *Service) JournalByDate(date string) (*models.JournalEntry, error) {
	if !validate.Date(date) {
		return nil, ErrInvalidDate
	}
	s.mu.Lock()
	entries, err := s.loadJournalsLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Date == date {
			e := entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

// JournalsInRange returns entries with start <= date <= end, newest first.
func (s *Service) JournalsInRange(start, end string) ([]models.JournalEntry, error) {
	if !validate.Date(start) || !validate.Date(end) {
		return nil, ErrInvalidDate
	}
	all, err := s.Journals()
	if err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0)
	for _, e := range all {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// RecentJournals returns the newest n entries, newest first.
func (s *Service) RecentJournals(n int) ([]models.JournalEntry, error) {
	all, err := s.Journals()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// JournalInput is a save request. Date defaults to today when empty.
type JournalInput struct {
	Date    string
	Journal models.JournalFields
}

// SaveJournal upserts the journal entry for the given date.
func (s *Service) SaveJournal(input JournalInput) (*models.JournalEntry, error) {
	if input.Date == "" {
		input.Date = s.today()
	}
	if !validate.Date(input.Date) {
		return nil, ErrInvalidDate
	}
	fields := []struct{ name, value string }{
		{"what went well", input.Journal.WentWell},
		{"what could improve", input.Journal.CouldImprove},
		{"tomorrow's goal", input.Journal.TomorrowGoal},
	}
	for _, f := range fields {
		if res := validate.JournalField(f.name, f.value); !res.IsValid {
			return nil, errors.New(res.Message())
		}
	}

	now := s.clock.Now().UTC()

	s.mu.Lock()
	entries, err := s.loadJournalsLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	updated := make([]models.JournalEntry, len(entries))
	copy(updated, entries)

	var saved models.JournalEntry
	found := false
	for i := range updated {
		if updated[i].Date == input.Date {
			updated[i].Journal = input.Journal
			updated[i].Timestamp = now
			updated[i].UpdatedAt = now
			saved = updated[i]
			found = true
			break
		}
	}
	if !found {
		saved = models.JournalEntry{
			ID:        ids.NewEntryID(),
			Date:      input.Date,
			Journal:   input.Journal,
			Timestamp: now,
			CreatedAt: now,
			UpdatedAt: now,
			Version:   models.EntryVersion,
		}
		updated = append(updated, saved)
	}

	if err := s.saveJournalsLocked(updated); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.log.Debug().Str("date", saved.Date).Msg("journal entry saved")
	s.publishChange(KindJournal, "save", saved.Date)
	return &saved, nil
}

// DeleteJournal removes the entry for date, or returns ErrNotFound.
func (s *Service) DeleteJournal(date string) error {
	if !validate.Date(date) {
		return ErrInvalidDate
	}

	s.mu.Lock()
	entries, err := s.loadJournalsLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	remaining := make([]models.JournalEntry, 0, len(entries))
	removed := false
	for _, e := range entries {
		if e.Date == date {
			removed = true
			continue
		}
		remaining = append(remaining, e)
	}
	if !removed {
		s.mu.Unlock()
		return ErrNotFound
	}
	if err := s.saveJournalsLocked(remaining); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publishChange(KindJournal, "delete", date)
	return nil
}

// today formats the injected clock's current date.
func (s *Service) today() string {
	return s.clock.Now().Format("2006-01-02")
}
