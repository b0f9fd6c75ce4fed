package models

import "time"

// Preferences holds the per-user settings that survive logout.
type Preferences struct {
	Theme          string `json:"theme"`
	MoodBasedTheme bool   `json:"moodBasedTheme"`
	Notifications  bool   `json:"notifications"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:          "light",
		MoodBasedTheme: true,
		Notifications:  true,
	}
}

// User is a registered account. PasswordHash never leaves the process:
// the persisted user record and every value handed to callers omit it.
type User struct {
	ID                     string      `json:"id"`
	Email                  string      `json:"email"`
	Name                   string      `json:"name"`
	PasswordHash           []byte      `json:"-"`
	CreatedAt              time.Time   `json:"createdAt"`
	HasCompletedOnboarding bool        `json:"hasCompletedOnboarding"`
	Preferences            Preferences `json:"preferences"`
}

// Public returns a copy with credential material stripped.
func (u User) Public() User {
	u.PasswordHash = nil
	return u
}
