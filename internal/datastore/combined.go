package datastore

import (
	"journify/core/internal/models"
	"journify/core/internal/validate"
)

// DayEntry pairs the mood and journal entries of one date. Either side
// may be nil.
type DayEntry struct {
	Date    string               `json:"date"`
	Mood    *models.MoodEntry    `json:"mood,omitempty"`
	Journal *models.JournalEntry `json:"journal,omitempty"`
}

// CombinedByDate returns whatever exists for one date. A date with no
// entries of either kind yields ErrNotFound.
func (s *Service) CombinedByDate(date string) (*DayEntry, error) {
	if !validate.Date(date) {
		return nil, ErrInvalidDate
	}

	day := &DayEntry{Date: date}
	if mood, err := s.MoodByDate(date); err == nil {
		day.Mood = mood
	} else if err != ErrNotFound {
		return nil, err
	}
	if journal, err := s.JournalByDate(date); err == nil {
		day.Journal = journal
	} else if err != ErrNotFound {
		return nil, err
	}

	if day.Mood == nil && day.Journal == nil {
		return nil, ErrNotFound
	}
	return day, nil
}

// CombinedInput saves a mood and a journal entry for the same date in one
// call. Either side may be omitted.
type CombinedInput struct {
	Date    string
	Mood    *MoodInput
	Journal *JournalInput
}

// SaveCombined upserts both sides for the date. The journal side is not
// attempted if the mood side fails, so the caller sees the first error.
func (s *Service) SaveCombined(input CombinedInput) (*DayEntry, error) {
	if input.Date == "" {
		input.Date = s.today()
	}
	if !validate.Date(input.Date) {
		return nil, ErrInvalidDate
	}

	day := &DayEntry{Date: input.Date}
	if input.Mood != nil {
		in := *input.Mood
		in.Date = input.Date
		mood, err := s.SaveMood(in)
		if err != nil {
			return nil, err
		}
		day.Mood = mood
	}
	if input.Journal != nil {
		in := *input.Journal
		in.Date = input.Date
		journal, err := s.SaveJournal(in)
		if err != nil {
			return nil, err
		}
		day.Journal = journal
	}
	return day, nil
}

// BulkResult reports the per-item outcome of a bulk operation.
type BulkResult struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// BulkSaveMoods saves each input independently; one bad item does not
// stop the rest.
func (s *Service) BulkSaveMoods(inputs []MoodInput) *BulkResult {
	result := &BulkResult{}
	for _, in := range inputs {
		if _, err := s.SaveMood(in); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}

// BulkSaveJournals saves each input independently.
func (s *Service) BulkSaveJournals(inputs []JournalInput) *BulkResult {
	result := &BulkResult{}
	for _, in := range inputs {
		if _, err := s.SaveJournal(in); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}

// BulkDeleteMoods removes each date independently. Absent dates count as
// failures but do not stop the rest.
func (s *Service) BulkDeleteMoods(dates []string) *BulkResult {
	result := &BulkResult{}
	for _, date := range dates {
		if err := s.DeleteMood(date); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}

// BulkDeleteJournals removes each date independently.
func (s *Service) BulkDeleteJournals(dates []string) *BulkResult {
	result := &BulkResult{}
	for _, date := range dates {
		if err := s.DeleteJournal(date); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}
