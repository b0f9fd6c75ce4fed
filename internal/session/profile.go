package session

import (
	"fmt"

	"journify/core/internal/events"
	"journify/core/internal/models"
	"journify/core/internal/security"
	"journify/core/internal/storage"
	"journify/core/internal/validate"
)

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name                   *string
	Preferences            *models.Preferences
	HasCompletedOnboarding *bool
}

// UpdateProfile applies the update to the current user, persists the new
// profile, and returns the updated copy.
func (m *Manager) UpdateProfile(update ProfileUpdate) (*models.User, error) {
	if update.Name != nil {
		if res := validate.Name(*update.Name); !res.IsValid {
			return nil, &ValidationError{Errors: res.Errors}
		}
	}

	m.mu.Lock()
	if !m.isAuthenticatedLocked() {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if update.Name != nil {
		m.current.Name = *update.Name
	}
	if update.Preferences != nil {
		m.current.Preferences = *update.Preferences
	}
	if update.HasCompletedOnboarding != nil {
		m.current.HasCompletedOnboarding = *update.HasCompletedOnboarding
	}
	pub := m.current.Public()
	err := m.store.Set(storage.KeyUserData, pub)
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	m.log.Debug().Str("user", pub.ID).Msg("profile updated")
	m.bus.Auth.Publish(events.AuthChange{Authenticated: true, User: &pub})
	return &pub, nil
}

// ChangePassword verifies the current password before replacing it.
func (m *Manager) ChangePassword(current, next string) error {
	if res := validate.Password(next); !res.IsValid {
		return &ValidationError{Errors: res.Errors}
	}

	m.mu.Lock()
	if !m.isAuthenticatedLocked() {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	user := m.current
	m.mu.Unlock()

	match, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil || !match {
		return ErrInvalidPassword
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.PasswordHash = hash
	}
	m.mu.Unlock()
	m.log.Info().Str("user", user.ID).Msg("password changed")
	return nil
}

// DeleteAccount removes the account and every trace of its data,
// preferences included.
func (m *Manager) DeleteAccount() error {
	m.mu.Lock()
	if !m.isAuthenticatedLocked() {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	email := m.current.Email
	m.users.remove(email)
	m.current = nil
	m.authToken = ""
	m.refreshToken = ""
	m.stopTimerLocked()
	m.mu.Unlock()

	if err := m.store.Clear(false); err != nil {
		m.log.Error().Err(err).Msg("clearing storage after account deletion")
	}
	m.log.Info().Str("email", email).Msg("account deleted")
	m.bus.Auth.Publish(events.AuthChange{Authenticated: false})
	return nil
}

// RememberEmail stores the email for pre-filling the next login form.
func (m *Manager) RememberEmail(email string) error {
	return m.store.Set(storage.KeyRememberedEmail, normalizeEmail(email))
}

// RememberedEmail returns the stored login email, if any.
func (m *Manager) RememberedEmail() (string, bool) {
	var email string
	ok, err := m.store.Get(storage.KeyRememberedEmail, &email)
	if err != nil || !ok || email == "" {
		return "", false
	}
	return email, true
}

// ForgetEmail discards the remembered login email.
func (m *Manager) ForgetEmail() error {
	return m.store.Remove(storage.KeyRememberedEmail)
}
