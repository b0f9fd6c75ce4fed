package datastore

import (
	"journify/core/internal/models"
	"journify/core/internal/validate"
)

// IntegrityIssue names one defect found in the stored entries.
type IntegrityIssue struct {
	Kind    string `json:"kind"`
	Date    string `json:"date,omitempty"`
	ID      string `json:"id,omitempty"`
	Problem string `json:"problem"`
}

// IntegrityReport is the result of a verification pass. The pass only
// observes; Cleanup applies the fixes.
type IntegrityReport struct {
	Healthy bool             `json:"healthy"`
	Issues  []IntegrityIssue `json:"issues"`
}

// VerifyIntegrity scans both entry collections for malformed dates,
// missing required fields, and duplicate dates. It reads the stored
// collections unfiltered so it can report what normal reads hide.
func (s *Service) VerifyIntegrity() (*IntegrityReport, error) {
	s.mu.Lock()
	moods, err := s.rawMoodsLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	journals, err := s.rawJournalsLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{Issues: []IntegrityIssue{}}

	seen := make(map[string]bool)
	for _, e := range moods {
		switch {
		case !validate.Date(e.Date):
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: KindMood, Date: e.Date, ID: e.ID, Problem: "invalid date",
			})
		case e.Mood == "":
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: KindMood, Date: e.Date, ID: e.ID, Problem: "missing mood",
			})
		case seen[e.Date]:
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: KindMood, Date: e.Date, ID: e.ID, Problem: "duplicate date",
			})
		default:
			seen[e.Date] = true
		}
	}

	seen = make(map[string]bool)
	for _, e := range journals {
		switch {
		case !validate.Date(e.Date):
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: KindJournal, Date: e.Date, ID: e.ID, Problem: "invalid date",
			})
		case seen[e.Date]:
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: KindJournal, Date: e.Date, ID: e.ID, Problem: "duplicate date",
			})
		default:
			seen[e.Date] = true
		}
	}

	report.Healthy = len(report.Issues) == 0
	return report, nil
}

// CleanupReport counts the entries removed by a cleanup pass.
type CleanupReport struct {
	MoodRemoved    int `json:"moodRemoved"`
	JournalRemoved int `json:"journalRemoved"`
}

// Cleanup drops malformed entries and collapses duplicate dates, keeping
// the first occurrence of each date.
func (s *Service) Cleanup() (*CleanupReport, error) {
	report := &CleanupReport{}

	s.mu.Lock()
	defer s.mu.Unlock()

	moods, err := s.rawMoodsLocked()
	if err != nil {
		return nil, err
	}
	keptMoods := make([]models.MoodEntry, 0, len(moods))
	seen := make(map[string]bool)
	for _, e := range moods {
		if !validate.Date(e.Date) || e.Mood == "" || seen[e.Date] {
			report.MoodRemoved++
			continue
		}
		seen[e.Date] = true
		keptMoods = append(keptMoods, e)
	}

	journals, err := s.rawJournalsLocked()
	if err != nil {
		return nil, err
	}
	keptJournals := make([]models.JournalEntry, 0, len(journals))
	seen = make(map[string]bool)
	for _, e := range journals {
		if !validate.Date(e.Date) || seen[e.Date] {
			report.JournalRemoved++
			continue
		}
		seen[e.Date] = true
		keptJournals = append(keptJournals, e)
	}

	if report.MoodRemoved > 0 {
		if err := s.saveMoodsLocked(keptMoods); err != nil {
			return nil, err
		}
	}
	if report.JournalRemoved > 0 {
		if err := s.saveJournalsLocked(keptJournals); err != nil {
			return nil, err
		}
	}

	if report.MoodRemoved > 0 || report.JournalRemoved > 0 {
		s.log.Info().
			Int("moodRemoved", report.MoodRemoved).
			Int("journalRemoved", report.JournalRemoved).
			Msg("entry cleanup removed defective records")
	}
	return report, nil
}
