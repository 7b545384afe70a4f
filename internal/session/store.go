package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned by Resolve when neither a live session
// nor a usable bearer token is present on the request.
var ErrUnauthenticated = errors.New("session: authentication required")

// Store keeps sessions in a process-wide map. Handlers receive copies;
// mutations go through Update so concurrent requests for the same
// session stay last-write-wins instead of racing.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session

	validator     Validator
	defaultRegion string
	now           func() time.Time
}

// NewStore creates an empty store. The validator decides whether a bearer
// token presented without a session is acceptable.
func NewStore(validator Validator, defaultRegion string) *Store {
	if validator == nil {
		validator = AcceptAll{}
	}
	return &Store{
		sessions:      map[string]Session{},
		validator:     validator,
		defaultRegion: strings.TrimSpace(defaultRegion),
		now:           time.Now,
	}
}

// Create inserts a new session for the given token and returns its ID.
// IDs are random; collisions are not specially handled.
func (s *Store) Create(token, region string) string {
	now := s.now()
	sess := Session{
		ID:           uuid.NewString(),
		Token:        CleanToken(token),
		Region:       s.regionOrDefault(region),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess.ID
}

// Get returns a copy of the session, if present. Expiry is not checked
// here; Resolve owns the expiry policy.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	return sess, ok
}

// Touch updates the session's last-activity timestamp.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = s.now()
		s.sessions[id] = sess
	}
	s.mu.Unlock()
}

// Update applies fn to the session under the store lock and writes the
// result back. Returns false when the session does not exist.
func (s *Store) Update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(&sess)
	sess.ID = id
	s.sessions[id] = sess
	return true
}

// Delete removes the session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// IDs lists all live session IDs (debug surface).
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Resolve produces an authenticated session from request credentials:
//
//  1. A session ID that maps to a live, non-expired session wins; its
//     activity timestamp is updated. Expired sessions get their token
//     re-validated and are deleted when the check fails.
//  2. Otherwise a bearer token, if the validator accepts it, creates a
//     brand-new session. isNew signals the caller to emit a cookie.
//  3. Neither resolves: ErrUnauthenticated.
func (s *Store) Resolve(ctx context.Context, creds Credentials) (sess Session, isNew bool, err error) {
	now := s.now()

	if id := strings.TrimSpace(creds.SessionID); id != "" {
		if existing, ok := s.Get(id); ok {
			if existing.Expired(now) {
				log.Printf("[Session] %s older than %s, re-validating token", id, TTL)
				if verr := s.validator.Validate(ctx, existing.Token, existing.Region); verr != nil {
					log.Printf("[Session] token invalid for expired session %s: %v", id, verr)
					s.Delete(id)
				} else {
					s.Touch(id)
					existing.LastActivity = now
					return existing, false, nil
				}
			} else {
				s.Touch(id)
				existing.LastActivity = now
				return existing, false, nil
			}
		}
	}

	if token := CleanToken(creds.Token); token != "" {
		region := s.regionOrDefault(creds.Region)
		if verr := s.validator.Validate(ctx, token, region); verr != nil {
			return Session{}, false, verr
		}
		id := s.Create(token, region)
		created, _ := s.Get(id)
		log.Printf("[Session] created new session %s from direct token", id)
		return created, true, nil
	}

	return Session{}, false, ErrUnauthenticated
}

func (s *Store) regionOrDefault(region string) string {
	region = strings.TrimSpace(region)
	if region != "" {
		return region
	}
	return s.defaultRegion
}

// CleanToken strips a leading "Bearer " transport prefix, if present.
func CleanToken(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "Bearer ") {
		return token[len("Bearer "):]
	}
	return token
}
