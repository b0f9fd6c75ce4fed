package datastore

import (
	"math"
	"sort"
	"strings"
	"time"

	"journify/core/internal/models"
	"journify/core/internal/storage"
)

// MoodStats summarizes the mood log.
type MoodStats struct {
	TotalEntries   int            `json:"totalEntries"`
	MostCommonMood string         `json:"mostCommonMood"`
	Distribution   map[string]int `json:"distribution"`
	WeeklyCount    int            `json:"weeklyCount"`
	MonthlyCount   int            `json:"monthlyCount"`
}

// JournalStats summarizes the journal log.
type JournalStats struct {
	TotalEntries     int `json:"totalEntries"`
	TotalWords       int `json:"totalWords"`
	AverageWordCount int `json:"averageWordCount"`
	WeeklyCount      int `json:"weeklyCount"`
	MonthlyCount     int `json:"monthlyCount"`
}

// StreakStats tracks consecutive days with at least one entry of any kind.
type StreakStats struct {
	Current   int `json:"current"`
	Longest   int `json:"longest"`
	TotalDays int `json:"totalDays"`
}

// OverallStats relates the two logs to each other.
type OverallStats struct {
	TotalDays       int `json:"totalDays"`
	CompleteDays    int `json:"completeDays"`
	CompletionRate  int `json:"completionRate"`
	MoodOnlyDays    int `json:"moodOnlyDays"`
	JournalOnlyDays int `json:"journalOnlyDays"`
}

type Statistics struct {
	Mood    MoodStats    `json:"mood"`
	Journal JournalStats `json:"journal"`
	Streaks StreakStats  `json:"streaks"`
	Overall OverallStats `json:"overall"`
}

// Statistics computes the analytics snapshot, serving a cached copy while
// fresh. The snapshot is also written to the analytics cache key so quota
// recovery has a low-value record to evict first.
func (s *Service) Statistics() (*Statistics, error) {
	s.mu.Lock()
	if s.stats != nil && s.fresh(s.statsAt) {
		cached := *s.stats
		s.mu.Unlock()
		return &cached, nil
	}

	moods, err := s.loadMoodsLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	journals, err := s.loadJournalsLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	today := s.clock.Now().Format("2006-01-02")
	stats := computeStatistics(moods, journals, today)
	s.stats = stats
	s.statsAt = s.clock.Now()
	s.mu.Unlock()

	if err := s.store.Set(storage.KeyAnalyticsCache, stats); err != nil {
		s.log.Debug().Err(err).Msg("persisting analytics cache failed")
	}

	out := *stats
	return &out, nil
}

func computeStatistics(moods []models.MoodEntry, journals []models.JournalEntry, today string) *Statistics {
	stats := &Statistics{
		Mood: MoodStats{
			TotalEntries: len(moods),
			Distribution: make(map[string]int),
		},
		Journal: JournalStats{TotalEntries: len(journals)},
	}

	weekCutoff := shiftDate(today, -6)
	monthCutoff := shiftDate(today, -29)

	for _, e := range moods {
		stats.Mood.Distribution[e.Mood]++
		if e.Date >= weekCutoff && e.Date <= today {
			stats.Mood.WeeklyCount++
		}
		if e.Date >= monthCutoff && e.Date <= today {
			stats.Mood.MonthlyCount++
		}
	}
	stats.Mood.MostCommonMood = mostCommonMood(stats.Mood.Distribution)

	for _, e := range journals {
		words := countWords(e.Journal.Text())
		stats.Journal.TotalWords += words
		if e.Date >= weekCutoff && e.Date <= today {
			stats.Journal.WeeklyCount++
		}
		if e.Date >= monthCutoff && e.Date <= today {
			stats.Journal.MonthlyCount++
		}
	}
	if len(journals) > 0 {
		stats.Journal.AverageWordCount = int(math.Round(float64(stats.Journal.TotalWords) / float64(len(journals))))
	}

	moodDates := make(map[string]bool, len(moods))
	for _, e := range moods {
		moodDates[e.Date] = true
	}
	journalDates := make(map[string]bool, len(journals))
	for _, e := range journals {
		journalDates[e.Date] = true
	}

	allDates := make(map[string]bool, len(moodDates)+len(journalDates))
	for d := range moodDates {
		allDates[d] = true
	}
	for d := range journalDates {
		allDates[d] = true
	}
	stats.Streaks = computeStreaks(allDates, today)

	stats.Overall.TotalDays = len(allDates)
	for d := range allDates {
		switch {
		case moodDates[d] && journalDates[d]:
			stats.Overall.CompleteDays++
		case moodDates[d]:
			stats.Overall.MoodOnlyDays++
		default:
			stats.Overall.JournalOnlyDays++
		}
	}
	if denom := max(len(moodDates), len(journalDates)); denom > 0 {
		stats.Overall.CompletionRate = int(math.Round(100 * float64(stats.Overall.CompleteDays) / float64(denom)))
	}

	return stats
}

// mostCommonMood breaks count ties toward the lexicographically smallest
// label so the result is stable across runs.
func mostCommonMood(distribution map[string]int) string {
	best := ""
	bestCount := 0
	for mood, count := range distribution {
		if count > bestCount || (count == bestCount && count > 0 && (best == "" || mood < best)) {
			best = mood
			bestCount = count
		}
	}
	return best
}

// computeStreaks walks the unique entry dates. The current streak counts
// back day by day from today (a gap of even one day resets it to zero);
// the longest streak is the longest run of consecutive dates anywhere.
func computeStreaks(dates map[string]bool, today string) StreakStats {
	streaks := StreakStats{TotalDays: len(dates)}
	if len(dates) == 0 {
		return streaks
	}

	sorted := make([]time.Time, 0, len(dates))
	for d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	if len(sorted) == 0 {
		return streaks
	}

	run := 1
	streaks.Longest = 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > streaks.Longest {
			streaks.Longest = run
		}
	}

	day, err := time.Parse("2006-01-02", today)
	if err != nil {
		return streaks
	}
	for dates[day.Format("2006-01-02")] {
		streaks.Current++
		day = day.AddDate(0, 0, -1)
	}
	return streaks
}

// shiftDate moves a YYYY-MM-DD date by days, negative for the past.
func shiftDate(date string, days int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format("2006-01-02")
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
