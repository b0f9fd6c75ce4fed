// Package validate implements the field rules shared by the auth and data
// layers. Every validator returns a Result so callers can surface all
// problems with a field at once instead of failing on the first.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	EmailMinLength = 5
	EmailMaxLength = 254

	PasswordMinLength = 6
	PasswordMaxLength = 128

	NameMinLength = 2
	NameMaxLength = 50

	MoodNoteMinLength = 3
	MoodNoteMaxLength = 500

	JournalFieldMaxLength = 2000
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

type Result struct {
	IsValid bool
	Errors  []string
}

func (r Result) Message() string {
	return strings.Join(r.Errors, ", ")
}

func fail(errs ...string) Result {
	return Result{IsValid: false, Errors: errs}
}

func ok() Result {
	return Result{IsValid: true}
}

// Email checks the trimmed, lowercased address against the length and
// pattern rules. The pattern requires a dot in the domain, so "a@b" fails.
func Email(email string) Result {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fail("email is required")
	}

	var errs []string
	if len(email) < EmailMinLength {
		errs = append(errs, fmt.Sprintf("email must be at least %d characters long", EmailMinLength))
	}
	if len(email) > EmailMaxLength {
		errs = append(errs, fmt.Sprintf("email must be less than %d characters long", EmailMaxLength))
	}
	if !emailPattern.MatchString(email) {
		errs = append(errs, "please enter a valid email address")
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return ok()
}

func Password(password string) Result {
	if password == "" {
		return fail("password is required")
	}

	var errs []string
	if len(password) < PasswordMinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters long", PasswordMinLength))
	}
	if len(password) > PasswordMaxLength {
		errs = append(errs, fmt.Sprintf("password must be less than %d characters long", PasswordMaxLength))
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return ok()
}

func Name(name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return fail("name is required")
	}

	var errs []string
	if len(name) < NameMinLength {
		errs = append(errs, fmt.Sprintf("name must be at least %d characters long", NameMinLength))
	}
	if len(name) > NameMaxLength {
		errs = append(errs, fmt.Sprintf("name must be less than %d characters long", NameMaxLength))
	}
	if !namePattern.MatchString(name) {
		errs = append(errs, "name can only contain letters, spaces, hyphens, and apostrophes")
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return ok()
}

// MoodNote validates a required mood note. Length is counted in bytes;
// a note of exactly MoodNoteMaxLength passes.
func MoodNote(note string) Result {
	note = strings.TrimSpace(note)
	if note == "" {
		return fail("mood note is required")
	}

	var errs []string
	if len(note) < MoodNoteMinLength {
		errs = append(errs, fmt.Sprintf("mood note must be at least %d characters long", MoodNoteMinLength))
	}
	if len(note) > MoodNoteMaxLength {
		errs = append(errs, fmt.Sprintf("mood note cannot exceed %d characters", MoodNoteMaxLength))
	}
	if len(errs) > 0 {
		return fail(errs...)
	}
	return ok()
}

// JournalField validates one journal prompt answer. Fields are optional;
// only the maximum length is enforced.
func JournalField(field, value string) Result {
	if len(strings.TrimSpace(value)) > JournalFieldMaxLength {
		return fail(fmt.Sprintf("%s cannot exceed %d characters", field, JournalFieldMaxLength))
	}
	return ok()
}

// Date reports whether s is a well-formed YYYY-MM-DD string naming a real
// calendar date.
func Date(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
