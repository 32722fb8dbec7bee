// Package session owns the bearer credential gating every call to the
// processing service. It holds at most one valid token at a time and
// collapses all identity failures to boolean outcomes; nothing in here
// terminates the application.
package session

import (
	"context"
	"log"
	"sync"

	"github.com/tomtuamnuq/speak2see-go/internal/auth"
	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// IdentityProvider abstracts the identity service. The manager only cares
// about "a token is available or not"; the actual login protocol lives
// behind this interface.
type IdentityProvider interface {
	// FetchSession returns the token of an existing valid session, or an
	// empty string when there is none.
	FetchSession(ctx context.Context) (string, error)
	// SignIn authenticates with credentials and returns a fresh token.
	SignIn(ctx context.Context, username, password string) (string, error)
	// SignOut invalidates the remote session.
	SignOut(ctx context.Context) error
	// CurrentUsername returns the login name of the authenticated user.
	CurrentUsername(ctx context.Context) (string, error)
}

// Manager is the session token holder.
type Manager struct {
	identity IdentityProvider

	mu          sync.Mutex
	token       string
	currentUser *models.UserInfo
}

func NewManager(identity IdentityProvider) *Manager {
	return &Manager{identity: identity}
}

// HasValidToken reports whether a token is currently held.
func (m *Manager) HasValidToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// IsAuthorized returns true when a token is held, adopting the token of an
// existing remote session if one is found. Safe to call repeatedly.
func (m *Manager) IsAuthorized(ctx context.Context) bool {
	if m.HasValidToken() {
		return true
	}
	token, err := m.identity.FetchSession(ctx)
	if err != nil || token == "" {
		return false
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return true
}

// Login authenticates with the identity provider. A repeat login while a
// token is already held is a no-op success. All failures, including
// transport errors, collapse to false and leave no token behind.
func (m *Manager) Login(ctx context.Context, username, password string) bool {
	if m.HasValidToken() {
		return true
	}
	token, err := m.identity.SignIn(ctx, username, password)
	if err != nil {
		log.Printf("Login failed: %v", err)
		return false
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	// Profile info is fetched eagerly but is not required for the login
	// to count as successful.
	m.FetchUserInfo(ctx)
	return true
}

// Logout invalidates the held token and cached profile unconditionally.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.identity.SignOut(ctx); err != nil {
		log.Printf("Sign-out failed: %v", err)
	}
	m.mu.Lock()
	m.token = ""
	m.currentUser = nil
	m.mu.Unlock()
}

// FetchUserInfo resolves the profile of the authenticated user. The email
// is read from the token's claims; a parse failure yields a nil profile
// rather than an error.
func (m *Manager) FetchUserInfo(ctx context.Context) *models.UserInfo {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == "" {
		return nil
	}

	username, err := m.identity.CurrentUsername(ctx)
	if err != nil {
		log.Printf("Error fetching user info: %v", err)
		return nil
	}
	email, err := auth.DecodeEmailClaim(token)
	if err != nil {
		log.Printf("Error fetching user info: %v", err)
		return nil
	}

	info := &models.UserInfo{Username: username, Email: email}
	m.mu.Lock()
	m.currentUser = info
	m.mu.Unlock()
	return info
}

// CurrentUserInfo returns the cached profile, nil when none was fetched.
func (m *Manager) CurrentUserInfo() *models.UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentUser
}

// AuthorizationHeader implements backend.TokenSource. It is the single gate
// every backend call passes through.
func (m *Manager) AuthorizationHeader() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", backend.ErrUnauthenticated
	}
	return "Bearer " + m.token, nil
}
