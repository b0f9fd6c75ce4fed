package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"journify/core/internal/ids"
	"journify/core/internal/models"
	"journify/core/internal/security"
)

// Registry is the in-process user database standing in for a real backend
// authentication service. Accounts live for the process lifetime only;
// the two demo users give a fresh install something to log in to.
type Registry struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
}

func NewRegistry() *Registry {
	return &Registry{byEmail: make(map[string]*models.User)}
}

// SeedUser describes an account created ahead of any signup.
type SeedUser struct {
	Name                   string
	Email                  string
	Password               string
	HasCompletedOnboarding bool
	Preferences            models.Preferences
}

// DemoUsers returns the accounts seeded by the application entry point.
func DemoUsers() []SeedUser {
	return []SeedUser{
		{
			Name:                   "Demo User",
			Email:                  "demo@journify.com",
			Password:               "password123",
			HasCompletedOnboarding: true,
			Preferences:            models.DefaultPreferences(),
		},
		{
			Name:     "Test User",
			Email:    "test@example.com",
			Password: "test123",
			Preferences: models.Preferences{
				Theme:          "dark",
				MoodBasedTheme: false,
				Notifications:  false,
			},
		},
	}
}

// Seed registers users with hashed passwords, skipping existing emails.
func (r *Registry) Seed(users []SeedUser) error {
	for _, su := range users {
		hash, err := security.HashPassword(su.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		r.add(&models.User{
			ID:                     ids.NewUserID(),
			Email:                  normalizeEmail(su.Email),
			Name:                   su.Name,
			PasswordHash:           hash,
			CreatedAt:              time.Now().UTC(),
			HasCompletedOnboarding: su.HasCompletedOnboarding,
			Preferences:            su.Preferences,
		})
	}
	return nil
}

func (r *Registry) add(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[u.Email]; exists {
		return
	}
	r.byEmail[u.Email] = u
}

func (r *Registry) findByEmail(email string) (*models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	return u, ok
}

func (r *Registry) exists(email string) bool {
	_, ok := r.findByEmail(email)
	return ok
}

func (r *Registry) remove(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
}

// Len reports the number of registered accounts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
