package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journify/core/internal/models"
	"journify/core/internal/storage"
)

func seedMood(t *testing.T, f *fixture, date, mood string) {
	t.Helper()
	_, err := f.svc.SaveMood(MoodInput{Date: date, Mood: mood})
	require.NoError(t, err)
}

func seedJournal(t *testing.T, f *fixture, date string, fields models.JournalFields) {
	t.Helper()
	_, err := f.svc.SaveJournal(JournalInput{Date: date, Journal: fields})
	require.NoError(t, err)
}

func TestStatisticsDistributionAndCounts(t *testing.T) {
	f := newFixture(t) // today is 2025-01-10

	seedMood(t, f, "2025-01-08", "happy")
	seedMood(t, f, "2025-01-09", "happy")
	seedMood(t, f, "2025-01-10", "sad")
	seedMood(t, f, "2024-12-01", "calm") // outside both windows

	stats, err := f.svc.Statistics()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Mood.TotalEntries)
	assert.Equal(t, "happy", stats.Mood.MostCommonMood)
	assert.Equal(t, map[string]int{"happy": 2, "sad": 1, "calm": 1}, stats.Mood.Distribution)
	assert.Equal(t, 3, stats.Mood.WeeklyCount)
	assert.Equal(t, 3, stats.Mood.MonthlyCount)
}

func TestMostCommonMoodTieBreak(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-08", "sad")
	seedMood(t, f, "2025-01-09", "happy")

	stats, err := f.svc.Statistics()
	require.NoError(t, err)
	// Equal counts resolve to the lexicographically smallest label.
	assert.Equal(t, "happy", stats.Mood.MostCommonMood)
}

func TestJournalWordCounts(t *testing.T) {
	f := newFixture(t)

	seedJournal(t, f, "2025-01-09", models.JournalFields{
		WentWell:     "shipped the big feature",
		CouldImprove: "slept too little",
		TomorrowGoal: "rest",
	}) // 8 words
	seedJournal(t, f, "2025-01-10", models.JournalFields{
		WentWell: "quiet day",
	}) // 2 words

	stats, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Journal.TotalEntries)
	assert.Equal(t, 10, stats.Journal.TotalWords)
	assert.Equal(t, 5, stats.Journal.AverageWordCount)
	assert.Equal(t, 2, stats.Journal.WeeklyCount)
}

func TestStreaks(t *testing.T) {
	f := newFixture(t) // today is 2025-01-10

	for _, date := range []string{"2025-01-01", "2025-01-02", "2025-01-03"} {
		seedMood(t, f, date, "happy")
	}
	seedMood(t, f, "2025-01-09", "calm")
	seedJournal(t, f, "2025-01-10", models.JournalFields{WentWell: "kept going"})

	stats, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Streaks.Current) // 01-09 and 01-10
	assert.Equal(t, 3, stats.Streaks.Longest) // 01-01 through 01-03
	assert.Equal(t, 5, stats.Streaks.TotalDays)
}

func TestStreakBrokenWithoutTodayEntry(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-08", "happy")
	seedMood(t, f, "2025-01-09", "happy")

	stats, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Streaks.Current)
	assert.Equal(t, 2, stats.Streaks.Longest)
}

func TestOverallCompletion(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-08", "happy")
	seedMood(t, f, "2025-01-09", "happy")
	seedJournal(t, f, "2025-01-09", models.JournalFields{WentWell: "complete day"})
	seedJournal(t, f, "2025-01-10", models.JournalFields{WentWell: "journal only"})

	stats, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Overall.TotalDays)
	assert.Equal(t, 1, stats.Overall.CompleteDays)
	assert.Equal(t, 1, stats.Overall.MoodOnlyDays)
	assert.Equal(t, 1, stats.Overall.JournalOnlyDays)
	// 1 complete day over max(2 mood days, 2 journal days).
	assert.Equal(t, 50, stats.Overall.CompletionRate)
}

func TestStatisticsCached(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-10", "happy")

	first, err := f.svc.Statistics()
	require.NoError(t, err)
	loads := f.svc.Loads()

	second, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, loads, f.svc.Loads())

	// A write invalidates the snapshot.
	seedMood(t, f, "2025-01-09", "sad")
	third, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, third.Mood.TotalEntries)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SaveMood(MoodInput{Date: "2025-01-08", Mood: "happy", MoodNote: "long walk by the river"})
	require.NoError(t, err)
	_, err = f.svc.SaveMood(MoodInput{Date: "2025-01-09", Mood: "calm"})
	require.NoError(t, err)
	seedJournal(t, f, "2025-01-10", models.JournalFields{WentWell: "walked the River trail"})

	results, err := f.svc.Search("river", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "journal", results[0].Kind) // newest first
	assert.Equal(t, "2025-01-10", results[0].Date)
	assert.Equal(t, "mood", results[1].Kind)

	// Case-sensitive search only matches the exact casing.
	results, err = f.svc.Search("River", SearchOptions{CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "journal", results[0].Kind)

	// Kind and date filters narrow the scan.
	results, err = f.svc.Search("river", SearchOptions{SearchMood: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mood", results[0].Kind)

	results, err = f.svc.Search("river", SearchOptions{DateRange: &DateRange{Start: "2025-01-09"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2025-01-10", results[0].Date)

	results, err = f.svc.Search("   ", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExportBundle(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-08", "happy")
	seedMood(t, f, "2025-01-10", "calm")
	seedJournal(t, f, "2025-01-09", models.JournalFields{WentWell: "good"})

	bundle, err := f.svc.Export()
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", bundle.Version)
	require.NotNil(t, bundle.User)
	assert.Equal(t, "demo@journify.com", bundle.User.Email)
	assert.Len(t, bundle.MoodEntries, 2)
	assert.Len(t, bundle.JournalEntries, 1)
	assert.Equal(t, 2, bundle.Metadata.MoodEntryCount)
	require.NotNil(t, bundle.Metadata.DateRange)
	assert.Equal(t, "2025-01-08", bundle.Metadata.DateRange.Start)
	assert.Equal(t, "2025-01-10", bundle.Metadata.DateRange.End)
	require.NotNil(t, bundle.Statistics)
}

func TestImportMergeSkipsExistingDates(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-08", "happy")

	bundle := &ExportBundle{
		MoodEntries: []models.MoodEntry{
			{Date: "2025-01-08", Mood: "sad"},  // collides, must be skipped
			{Date: "2025-01-07", Mood: "calm"}, // new
			{Date: "garbage", Mood: "angry"},   // rejected
		},
	}

	report, err := f.svc.Import(bundle, ImportOptions{Merge: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mood.Imported)
	assert.Equal(t, 1, report.Mood.Skipped)
	assert.Equal(t, 1, report.Mood.Errors)

	existing, err := f.svc.MoodByDate("2025-01-08")
	require.NoError(t, err)
	assert.Equal(t, "happy", existing.Mood)
}

func TestImportOverwriteReplacesExistingDates(t *testing.T) {
	f := newFixture(t)

	seedMood(t, f, "2025-01-08", "happy")

	bundle := &ExportBundle{
		MoodEntries: []models.MoodEntry{{Date: "2025-01-08", Mood: "sad"}},
	}
	report, err := f.svc.Import(bundle, ImportOptions{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mood.Imported)

	replaced, err := f.svc.MoodByDate("2025-01-08")
	require.NoError(t, err)
	assert.Equal(t, "sad", replaced.Mood)
}

func TestExportImportRoundTrip(t *testing.T) {
	source := newFixture(t)
	seedMood(t, source, "2025-01-08", "happy")
	seedJournal(t, source, "2025-01-09", models.JournalFields{WentWell: "good", TomorrowGoal: "more"})

	bundle, err := source.svc.Export()
	require.NoError(t, err)

	target := newFixture(t)
	report, err := target.svc.Import(bundle, ImportOptions{Merge: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mood.Imported)
	assert.Equal(t, 1, report.Journal.Imported)

	mood, err := target.svc.MoodByDate("2025-01-08")
	require.NoError(t, err)
	assert.Equal(t, "happy", mood.Mood)

	journal, err := target.svc.JournalByDate("2025-01-09")
	require.NoError(t, err)
	assert.Equal(t, "good", journal.Journal.WentWell)
	assert.Equal(t, "more", journal.Journal.TomorrowGoal)
}

func TestVerifyIntegrityAndCleanup(t *testing.T) {
	f := newFixture(t)

	// Write a defective collection straight past the service layer:
	// a duplicate date, a bad date, and an empty mood label.
	now := f.clock.Now().UTC()
	bad := []models.MoodEntry{
		{ID: "entry_1", Date: "2025-01-05", Mood: "happy", CreatedAt: now, UpdatedAt: now, Version: models.EntryVersion},
		{ID: "entry_2", Date: "2025-01-05", Mood: "sad", CreatedAt: now, UpdatedAt: now, Version: models.EntryVersion},
		{ID: "entry_3", Date: "not-a-date", Mood: "calm", CreatedAt: now, UpdatedAt: now, Version: models.EntryVersion},
		{ID: "entry_4", Date: "2025-01-06", Mood: "", CreatedAt: now, UpdatedAt: now, Version: models.EntryVersion},
	}
	require.NoError(t, f.store.Set(storage.KeyMoodEntries, bad))
	f.svc.InvalidateCache()

	report, err := f.svc.VerifyIntegrity()
	require.NoError(t, err)
	assert.False(t, report.Healthy)
	assert.Len(t, report.Issues, 3)

	cleanup, err := f.svc.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 3, cleanup.MoodRemoved)

	all, err := f.svc.Moods()
	require.NoError(t, err)
	require.Len(t, all, 1)
	// The first occurrence of the duplicated date survives.
	assert.Equal(t, "entry_1", all[0].ID)
	assert.Equal(t, "happy", all[0].Mood)

	healthy, err := f.svc.VerifyIntegrity()
	require.NoError(t, err)
	assert.True(t, healthy.Healthy)
}
