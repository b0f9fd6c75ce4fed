package models

import "time"

// EntryVersion is stamped onto every newly created entry record.
const EntryVersion = "1.0.0"

// MoodEntry records how the user felt on one calendar date.
// Date (YYYY-MM-DD) is the unique key; saves upsert by date.
type MoodEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Mood      string    `json:"mood"`
	MoodNote  string    `json:"moodNote"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   string    `json:"version"`
}

// JournalFields are the three reflection prompts of a daily journal.
type JournalFields struct {
	WentWell     string `json:"wentWell"`
	CouldImprove string `json:"couldImprove"`
	TomorrowGoal string `json:"tomorrowGoal"`
}

// Text joins the prompt answers for word counting and search.
func (f JournalFields) Text() string {
	return f.WentWell + " " + f.CouldImprove + " " + f.TomorrowGoal
}

// JournalEntry is the journal record for one calendar date, keyed and
// upserted by date independently of mood entries.
type JournalEntry struct {
	ID        string        `json:"id"`
	Date      string        `json:"date"`
	Journal   JournalFields `json:"journalEntry"`
	Timestamp time.Time     `json:"timestamp"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Version   string        `json:"version"`
}
