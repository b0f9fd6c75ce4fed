// Package session owns the current-user state and token lifecycle. One
// Manager is constructed at application start and shared by reference;
// there is no package-level singleton.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"journify/core/internal/config"
	"journify/core/internal/events"
	"journify/core/internal/ids"
	"journify/core/internal/models"
	"journify/core/internal/security"
	"journify/core/internal/storage"
	"journify/core/internal/validate"
)

type Manager struct {
	cfg    config.SecurityConfig
	users  *Registry
	store  *storage.Store
	bus    *events.Bus
	clock  clockwork.Clock
	log    zerolog.Logger
	tokens *security.TokenIssuer

	mu           sync.Mutex
	current      *models.User
	authToken    string
	refreshToken string
	timer        clockwork.Timer

	cancelSync func()
}

// NewManager wires the session layer and restores any stored session. A
// stored token that no longer verifies is discarded silently; the process
// starts anonymous in that case.
func NewManager(cfg config.SecurityConfig, users *Registry, store *storage.Store, bus *events.Bus, clock clockwork.Clock, logger zerolog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		users:  users,
		store:  store,
		bus:    bus,
		clock:  clock,
		log:    logger,
		tokens: security.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, clock),
	}
	m.restoreSession()
	m.cancelSync = bus.StorageChanged.Subscribe(m.handleStorageChange)
	return m
}

// Close stops the refresh timer and the cross-tab subscription.
func (m *Manager) Close() {
	if m.cancelSync != nil {
		m.cancelSync()
	}
	m.mu.Lock()
	m.stopTimerLocked()
	m.mu.Unlock()
}

// Login authenticates email/password against the user registry and
// establishes an authenticated session on success.
func (m *Manager) Login(email, password string) (*models.User, error) {
	var errs []string
	if res := validate.Email(email); !res.IsValid {
		errs = append(errs, res.Errors...)
	}
	if res := validate.Password(password); !res.IsValid {
		errs = append(errs, res.Errors...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	email = normalizeEmail(email)
	user, ok := m.users.findByEmail(email)
	if !ok {
		m.log.Debug().Str("email", email).Msg("login: unknown email")
		return nil, ErrUserNotFound
	}

	match, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		m.log.Debug().Str("email", email).Msg("login: password mismatch")
		return nil, ErrInvalidPassword
	}

	if err := m.establishSession(user); err != nil {
		return nil, err
	}
	m.log.Info().Str("email", email).Msg("login successful")
	pub := user.Public()
	return &pub, nil
}

// SignupInput is the registration form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup validates the input, registers the account, and logs it in.
func (m *Manager) Signup(input SignupInput) (*models.User, error) {
	var errs []string
	if res := validate.Name(input.Name); !res.IsValid {
		errs = append(errs, res.Errors...)
	}
	if res := validate.Email(input.Email); !res.IsValid {
		errs = append(errs, res.Errors...)
	}
	if res := validate.Password(input.Password); !res.IsValid {
		errs = append(errs, res.Errors...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	email := normalizeEmail(input.Email)
	if m.users.exists(email) {
		return nil, ErrEmailExists
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           ids.NewUserID(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: hash,
		CreatedAt:    m.clock.Now().UTC(),
		Preferences:  models.DefaultPreferences(),
	}
	m.users.add(user)

	if err := m.establishSession(user); err != nil {
		return nil, err
	}
	m.log.Info().Str("email", email).Msg("signup successful")
	pub := user.Public()
	return &pub, nil
}

// Logout clears the session unconditionally. It never fails from the
// caller's perspective: storage cleanup errors are logged and swallowed.
func (m *Manager) Logout() {
	m.mu.Lock()
	email := ""
	if m.current != nil {
		email = m.current.Email
	}
	m.clearSessionLocked()
	m.mu.Unlock()

	m.log.Info().Str("email", email).Msg("logged out")
	m.bus.Auth.Publish(events.AuthChange{Authenticated: false})
}

// Refresh exchanges the refresh token for a new token pair and restarts
// the expiry timer. Any failure clears the session.
func (m *Manager) Refresh() error {
	m.mu.Lock()

	if m.refreshToken == "" {
		m.clearSessionLocked()
		m.mu.Unlock()
		m.bus.Auth.Publish(events.AuthChange{Authenticated: false})
		return ErrNoRefreshToken
	}

	claims, err := m.tokens.Parse(m.refreshToken)
	if err != nil || !claims.IsRefresh() || m.current == nil {
		m.clearSessionLocked()
		m.mu.Unlock()
		m.log.Warn().Msg("refresh token rejected, session cleared")
		m.bus.Auth.Publish(events.AuthChange{Authenticated: false})
		return ErrSessionExpired
	}

	pair, err := m.tokens.IssuePair(m.current)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("issue tokens: %w", err)
	}
	if err := m.persistTokensLocked(pair); err != nil {
		m.mu.Unlock()
		return err
	}
	m.armTimerLocked()
	m.mu.Unlock()

	m.log.Debug().Msg("session tokens refreshed")
	return nil
}

// IsAuthenticated reports whether a user is logged in with a token that
// verifies and has not expired.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isAuthenticatedLocked()
}

func (m *Manager) isAuthenticatedLocked() bool {
	return m.current != nil && m.authToken != "" && m.tokens.Valid(m.authToken)
}

// ShouldRefresh reports whether the auth token is inside the refresh-soon
// window. An unparseable token counts as needing refresh.
func (m *Manager) ShouldRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.authToken == "" {
		return false
	}
	remaining, ok := m.tokens.TimeToExpiry(m.authToken)
	if !ok {
		return true
	}
	return remaining < m.cfg.RefreshSoon
}

// ValidateSession is the foreground-visibility hook: it refreshes a
// near-expiry token and reports whether the session remains usable.
func (m *Manager) ValidateSession() bool {
	if !m.IsAuthenticated() {
		return false
	}
	if m.ShouldRefresh() {
		return m.Refresh() == nil
	}
	return true
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	pub := m.current.Public()
	return &pub
}

// establishSession issues tokens, persists session state, arms the
// refresh timer, and broadcasts the auth transition.
func (m *Manager) establishSession(user *models.User) error {
	pair, err := m.tokens.IssuePair(user)
	if err != nil {
		return fmt.Errorf("issue tokens: %w", err)
	}

	m.mu.Lock()
	m.current = user
	if err := m.persistTokensLocked(pair); err != nil {
		m.clearSessionLocked()
		m.mu.Unlock()
		return err
	}
	if err := m.store.Set(storage.KeyUserData, user.Public()); err != nil {
		m.clearSessionLocked()
		m.mu.Unlock()
		return err
	}
	m.armTimerLocked()
	m.mu.Unlock()

	pub := user.Public()
	m.bus.Auth.Publish(events.AuthChange{Authenticated: true, User: &pub})
	return nil
}

// persistTokensLocked stores the pair and adopts it as current state.
func (m *Manager) persistTokensLocked(pair security.TokenPair) error {
	if err := m.store.SetEncrypted(storage.KeyUserToken, pair.AuthToken); err != nil {
		return err
	}
	if err := m.store.SetEncrypted(storage.KeyRefreshToken, pair.RefreshToken); err != nil {
		return err
	}
	m.authToken = pair.AuthToken
	m.refreshToken = pair.RefreshToken
	return nil
}

func (m *Manager) clearSessionLocked() {
	m.current = nil
	m.authToken = ""
	m.refreshToken = ""
	m.stopTimerLocked()

	// Cleanup failures are already logged by the store; logout stays
	// infallible for the caller.
	_ = m.store.Remove(storage.KeyUserToken)
	_ = m.store.Remove(storage.KeyUserData)
	_ = m.store.Remove(storage.KeyRefreshToken)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// armTimerLocked schedules a background refresh RefreshLead ahead of the
// current token's actual expiry, so a session restored mid-lifetime still
// refreshes in time. Rearming on every issue keeps exactly one timer alive.
func (m *Manager) armTimerLocked() {
	m.stopTimerLocked()
	lead := m.cfg.AccessTTL - m.cfg.RefreshLead
	if remaining, ok := m.tokens.TimeToExpiry(m.authToken); ok {
		lead = remaining - m.cfg.RefreshLead
	}
	if lead <= 0 {
		lead = time.Second
	}
	m.timer = m.clock.AfterFunc(lead, func() {
		if err := m.Refresh(); err != nil {
			m.log.Warn().Err(err).Msg("scheduled token refresh failed")
		}
	})
}

// restoreSession reconstructs the session from stored tokens at startup.
func (m *Manager) restoreSession() {
	var token, refresh string
	var user models.User

	haveToken, err := m.store.GetEncrypted(storage.KeyUserToken, &token)
	if err != nil || !haveToken {
		return
	}
	haveUser, err := m.store.Get(storage.KeyUserData, &user)
	if err != nil || !haveUser {
		return
	}
	if found, err := m.store.GetEncrypted(storage.KeyRefreshToken, &refresh); err != nil || !found {
		refresh = ""
	}

	if !m.tokens.Valid(token) {
		m.log.Debug().Msg("stored token expired, clearing session")
		m.mu.Lock()
		m.clearSessionLocked()
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.current = &user
	m.authToken = token
	m.refreshToken = refresh
	m.armTimerLocked()
	m.mu.Unlock()
	m.log.Info().Str("email", user.Email).Msg("session restored from storage")
}

// handleStorageChange reacts to the auth-token key changing in another
// tab: a new token reloads the session, a removed token clears it.
func (m *Manager) handleStorageChange(ev events.StorageChange) {
	if ev.Key != storage.KeyUserToken {
		return
	}

	if ev.NewValue == "" {
		m.mu.Lock()
		wasAuthenticated := m.current != nil
		m.current = nil
		m.authToken = ""
		m.refreshToken = ""
		m.stopTimerLocked()
		m.mu.Unlock()

		if wasAuthenticated {
			m.log.Info().Msg("session cleared by another tab")
			m.bus.Auth.Publish(events.AuthChange{Authenticated: false})
		}
		return
	}

	m.restoreSession()
	if user := m.CurrentUser(); user != nil {
		m.log.Info().Msg("session adopted from another tab")
		m.bus.Auth.Publish(events.AuthChange{Authenticated: true, User: user})
	}
}
