package storage

// Application key space. Every persisted value lives under one of these
// keys; Clear and the change watcher only ever touch recognized keys.
const (
	KeyUserToken    = "journify_user_token"
	KeyUserData     = "journify_user_data"
	KeyRefreshToken = "journify_refresh_token"

	KeyRememberedEmail      = "journify_remembered_email"
	KeyTheme                = "journify_theme"
	KeyMoodBasedTheme       = "journify_mood_based_theme"
	KeyNotificationsEnabled = "journify_notifications_enabled"
	KeyLanguage             = "journify_language"

	KeyMoodEntries    = "journify_mood_entries"
	KeyJournalEntries = "journify_journal_entries"
	KeyAnalyticsCache = "journify_analytics_cache"

	KeyOnboardingCompleted = "journify_onboarding_completed"
	KeyLastSync            = "journify_last_sync"
	KeyAppVersion          = "journify_app_version"
)

// legacyEntriesKey predates the mood/journal split and is re-keyed on open.
const legacyEntriesKey = "journify_entries"

var appKeys = []string{
	KeyUserToken,
	KeyUserData,
	KeyRefreshToken,
	KeyRememberedEmail,
	KeyTheme,
	KeyMoodBasedTheme,
	KeyNotificationsEnabled,
	KeyLanguage,
	KeyMoodEntries,
	KeyJournalEntries,
	KeyAnalyticsCache,
	KeyOnboardingCompleted,
	KeyLastSync,
	KeyAppVersion,
}

// preferenceKeys survive Clear(keepPreferences=true).
var preferenceKeys = []string{
	KeyTheme,
	KeyLanguage,
	KeyNotificationsEnabled,
	KeyRememberedEmail,
}

// AppKeys returns the full application key space.
func AppKeys() []string {
	keys := make([]string, len(appKeys))
	copy(keys, appKeys)
	return keys
}

// IsAppKey reports whether key belongs to the application key space.
func IsAppKey(key string) bool {
	for _, k := range appKeys {
		if k == key {
			return true
		}
	}
	return false
}
