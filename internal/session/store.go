package session

import (
	"errors"
	"sync"
	"time"

	"github.com/fjod/fischer-storefront/internal/bundle"
	"github.com/fjod/fischer-storefront/internal/checkout"
)

// Common errors returned by the store
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Store keeps each visitor's in-progress checkout and bundle configurations.
type Store interface {
	// Create starts a new session with a fresh id
	Create() *Session

	// Get returns a live session and extends its lifetime
	Get(id string) (*Session, error)

	// Delete drops a session and everything it holds
	Delete(id string)

	// Close shuts down the store and any background processes
	Close() error
}

// Session is the server-side state behind one visitor cookie.
type Session struct {
	ID string

	mu         sync.Mutex
	wizard     *checkout.Wizard
	wizardUser int64 // 0 for guests
	bundles    map[string]*bundle.Configurator
	expiresAt  time.Time
}

func newSession(id string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		bundles:   make(map[string]*bundle.Configurator),
		expiresAt: expiresAt,
	}
}

// Wizard returns the session's checkout for userID (0 for a guest), creating it
// with create on first use. The checkout is replaced only when a different
// customer signs in or the customer signs out.
func (s *Session) Wizard(userID int64, create func() *checkout.Wizard) *checkout.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wizard == nil || s.wizardUser != userID {
		s.wizard = create()
		s.wizardUser = userID
	}
	return s.wizard
}

// ResetWizard discards the checkout, e.g. after the order was placed.
func (s *Session) ResetWizard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizard = nil
}

// Configurator returns the bundle configurator for slug, creating it on first use.
// create runs without the session lock; when two requests race, the first stored
// configurator wins.
func (s *Session) Configurator(slug string, create func() (*bundle.Configurator, error)) (*bundle.Configurator, error) {
	s.mu.Lock()
	c, ok := s.bundles[slug]
	s.mu.Unlock()
	if ok {
		return c, nil
	}

	created, err := create()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.bundles[slug]; ok {
		return c, nil
	}
	s.bundles[slug] = created
	return created, nil
}

func (s *Session) DropConfigurator(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, slug)
}

func (s *Session) isExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

func (s *Session) extend(until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = until
}
