package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"test@example.com", true},
		{"Demo@Journify.COM", true},
		{"  padded@example.com  ", true},
		{"a@b", false}, // no dot in the domain
		{"a@b.c", true},
		{"", false},
		{"no-at-sign.com", false},
		{"two words@example.com", false},
		{strings.Repeat("x", 250) + "@a.co", false},
	}

	for _, tc := range tests {
		t.Run(tc.email, func(t *testing.T) {
			assert.Equal(t, tc.valid, Email(tc.email).IsValid)
		})
	}
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("test123").IsValid)
	assert.True(t, Password("secret").IsValid) // exactly the minimum
	assert.False(t, Password("12345").IsValid)
	assert.False(t, Password("").IsValid)
	assert.False(t, Password(strings.Repeat("x", 129)).IsValid)
}

func TestName(t *testing.T) {
	assert.True(t, Name("Demo User").IsValid)
	assert.True(t, Name("O'Brien-Smith").IsValid)
	assert.False(t, Name("X").IsValid)
	assert.False(t, Name("").IsValid)
	assert.False(t, Name("user42").IsValid)
	assert.False(t, Name(strings.Repeat("a", 51)).IsValid)
}

func TestMoodNote(t *testing.T) {
	assert.True(t, MoodNote("felt good today").IsValid)
	assert.True(t, MoodNote(strings.Repeat("x", 500)).IsValid)
	assert.False(t, MoodNote(strings.Repeat("x", 501)).IsValid)
	assert.False(t, MoodNote("ab").IsValid)
	assert.False(t, MoodNote("   ").IsValid)
}

func TestJournalField(t *testing.T) {
	assert.True(t, JournalField("what went well", "").IsValid) // optional
	assert.True(t, JournalField("what went well", strings.Repeat("x", 2000)).IsValid)

	res := JournalField("what went well", strings.Repeat("x", 2001))
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Message(), "what went well")
}

func TestDate(t *testing.T) {
	assert.True(t, Date("2025-01-10"))
	assert.True(t, Date("2024-02-29")) // leap day
	assert.False(t, Date("2025-02-29"))
	assert.False(t, Date("2025-13-01"))
	assert.False(t, Date("2025-1-1"))
	assert.False(t, Date("10-01-2025"))
	assert.False(t, Date("not a date"))
	assert.False(t, Date(""))
}
