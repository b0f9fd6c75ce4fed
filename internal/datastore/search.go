package datastore

import (
	"sort"
	"strings"

	"journify/core/internal/models"
)

// SearchOptions narrows a search. The zero value searches both kinds,
// case-insensitively, across all dates.
type SearchOptions struct {
	SearchMood    bool
	SearchJournal bool
	CaseSensitive bool
	DateRange     *DateRange
}

// DateRange is an inclusive date interval in YYYY-MM-DD form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r *DateRange) contains(date string) bool {
	if r == nil {
		return true
	}
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// SearchResult tags a matching entry with its kind. Exactly one of Mood
// and Journal is set.
type SearchResult struct {
	Kind    string               `json:"kind"`
	Date    string               `json:"date"`
	Mood    *models.MoodEntry    `json:"mood,omitempty"`
	Journal *models.JournalEntry `json:"journal,omitempty"`
}

// Search scans mood labels, mood notes, and journal text for the query.
// An empty query matches nothing. Results come back newest first.
func (s *Service) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	if !opts.SearchMood && !opts.SearchJournal {
		opts.SearchMood = true
		opts.SearchJournal = true
	}

	match := func(text string) bool {
		if opts.CaseSensitive {
			return strings.Contains(text, query)
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(query))
	}

	results := []SearchResult{}

	if opts.SearchMood {
		moods, err := s.Moods()
		if err != nil {
			return nil, err
		}
		for i := range moods {
			e := moods[i]
			if !opts.DateRange.contains(e.Date) {
				continue
			}
			if match(e.Mood) || match(e.MoodNote) {
				results = append(results, SearchResult{Kind: KindMood, Date: e.Date, Mood: &e})
			}
		}
	}

	if opts.SearchJournal {
		journals, err := s.Journals()
		if err != nil {
			return nil, err
		}
		for i := range journals {
			e := journals[i]
			if !opts.DateRange.contains(e.Date) {
				continue
			}
			if match(e.Journal.Text()) {
				results = append(results, SearchResult{Kind: KindJournal, Date: e.Date, Journal: &e})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Date > results[j].Date })
	return results, nil
}
