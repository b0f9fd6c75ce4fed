package datastore

import (
	"time"

	"journify/core/internal/models"
	"journify/core/internal/validate"
)

// UserSummary identifies the exporting account without credentials.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ExportMetadata describes the bundle contents.
type ExportMetadata struct {
	MoodEntryCount    int        `json:"moodEntryCount"`
	JournalEntryCount int        `json:"journalEntryCount"`
	DateRange         *DateRange `json:"dateRange,omitempty"`
}

// ExportBundle is the user-facing backup format, typed entries rather
// than raw storage records so it survives format changes.
type ExportBundle struct {
	Version        string                `json:"version"`
	ExportDate     time.Time             `json:"exportDate"`
	User           *UserSummary          `json:"user,omitempty"`
	MoodEntries    []models.MoodEntry    `json:"moodEntries"`
	JournalEntries []models.JournalEntry `json:"journalEntries"`
	Statistics     *Statistics           `json:"statistics,omitempty"`
	Metadata       ExportMetadata        `json:"metadata"`
}

// Export assembles the full backup bundle.
func (s *Service) Export() (*ExportBundle, error) {
	moods, err := s.Moods()
	if err != nil {
		return nil, err
	}
	journals, err := s.Journals()
	if err != nil {
		return nil, err
	}
	stats, err := s.Statistics()
	if err != nil {
		return nil, err
	}

	bundle := &ExportBundle{
		Version:        s.store.Version(),
		ExportDate:     s.clock.Now().UTC(),
		MoodEntries:    moods,
		JournalEntries: journals,
		Statistics:     stats,
		Metadata: ExportMetadata{
			MoodEntryCount:    len(moods),
			JournalEntryCount: len(journals),
		},
	}

	if user := s.users.CurrentUser(); user != nil {
		bundle.User = &UserSummary{ID: user.ID, Email: user.Email, Name: user.Name}
	}

	if r := entryDateRange(moods, journals); r != nil {
		bundle.Metadata.DateRange = r
	}
	return bundle, nil
}

func entryDateRange(moods []models.MoodEntry, journals []models.JournalEntry) *DateRange {
	var earliest, latest string
	observe := func(date string) {
		if earliest == "" || date < earliest {
			earliest = date
		}
		if latest == "" || date > latest {
			latest = date
		}
	}
	for _, e := range moods {
		observe(e.Date)
	}
	for _, e := range journals {
		observe(e.Date)
	}
	if earliest == "" {
		return nil
	}
	return &DateRange{Start: earliest, End: latest}
}

// ImportOptions selects the conflict policy. Merge keeps existing entries
// when dates collide; Overwrite replaces them. Merge wins if both are set.
type ImportOptions struct {
	Merge     bool
	Overwrite bool
}

// ImportCounts tallies one entry kind during import.
type ImportCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// ImportReport summarizes an import run.
type ImportReport struct {
	Mood    ImportCounts `json:"mood"`
	Journal ImportCounts `json:"journal"`
}

// Import loads a bundle entry by entry. A bad entry is counted and
// skipped rather than aborting the run; valid entries always land.
func (s *Service) Import(bundle *ExportBundle, opts ImportOptions) (*ImportReport, error) {
	if !opts.Merge && !opts.Overwrite {
		opts.Merge = true
	}

	report := &ImportReport{}

	existingMoods, err := s.Moods()
	if err != nil {
		return nil, err
	}
	moodDates := make(map[string]bool, len(existingMoods))
	for _, e := range existingMoods {
		moodDates[e.Date] = true
	}

	for _, e := range bundle.MoodEntries {
		if !validate.Date(e.Date) || e.Mood == "" {
			report.Mood.Errors++
			continue
		}
		if opts.Merge && moodDates[e.Date] {
			report.Mood.Skipped++
			continue
		}
		if _, err := s.SaveMood(MoodInput{Date: e.Date, Mood: e.Mood, MoodNote: e.MoodNote}); err != nil {
			s.log.Warn().Err(err).Str("date", e.Date).Msg("import: mood entry rejected")
			report.Mood.Errors++
			continue
		}
		moodDates[e.Date] = true
		report.Mood.Imported++
	}

	existingJournals, err := s.Journals()
	if err != nil {
		return nil, err
	}
	journalDates := make(map[string]bool, len(existingJournals))
	for _, e := range existingJournals {
		journalDates[e.Date] = true
	}

	for _, e := range bundle.JournalEntries {
		if !validate.Date(e.Date) {
			report.Journal.Errors++
			continue
		}
		if opts.Merge && journalDates[e.Date] {
			report.Journal.Skipped++
			continue
		}
		if _, err := s.SaveJournal(JournalInput{Date: e.Date, Journal: e.Journal}); err != nil {
			s.log.Warn().Err(err).Str("date", e.Date).Msg("import: journal entry rejected")
			report.Journal.Errors++
			continue
		}
		journalDates[e.Date] = true
		report.Journal.Imported++
	}

	s.log.Info().
		Int("moodImported", report.Mood.Imported).
		Int("journalImported", report.Journal.Imported).
		Msg("import complete")
	return report, nil
}
