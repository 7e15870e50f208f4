// Package session persists the signed-in identity for a workspace: the
// bearer token, the cached user record, and the active organization.
// It replaces ambient global state with an explicit store handed to the
// transport at construction, so tests can swap in fakes.
package session

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pactline/internal/domain"
)

// Storage keys, fixed for compatibility with other clients of the API.
const (
	keyAuthToken = "auth_token"
	keyUserData  = "user_data"
	keyActiveOrg = "active_org"
)

// Store is the workspace-scoped session. All reads are served from
// memory; writes go through to SQLite so the session survives the
// process.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	token string
	user  *domain.User
	org   *domain.OrganizationContext

	Now func() time.Time
}

// Open loads (or initializes) the session store under workspace.
func Open(workspace string) (*Store, error) {
	conn, err := openDB(workspace)
	if err != nil {
		return nil, err
	}
	s := &Store{db: conn, Now: time.Now}
	if err := s.load(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Token returns the stored bearer token, or "" when signed out or when
// the token's exp claim has passed. An expired token is as good as no
// token; the server would only answer 401.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return ""
	}
	if exp, ok := tokenExpiry(s.token); ok && !s.Now().Before(exp) {
		return ""
	}
	return s.token
}

// Invalidate clears the token and cached identity. It is the 401
// teardown hook for the transport; persistence errors are swallowed
// because there is no caller positioned to handle them mid-request.
func (s *Store) Invalidate() {
	_ = s.Clear()
}

// SignIn stores the token and the user it authenticates.
func (s *Store) SignIn(token string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(keyAuthToken, token); err != nil {
		return err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.put(keyUserData, string(data)); err != nil {
		return err
	}
	s.token = token
	s.user = &user
	return nil
}

// Clear removes token, user data, and organization context.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.org = nil
	_, err := s.db.Exec(`DELETE FROM kv WHERE key IN (?,?,?)`, keyAuthToken, keyUserData, keyActiveOrg)
	return err
}

// User returns the cached user record, if signed in.
func (s *Store) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// SetActiveOrganization records the organization context after a
// switch, and updates the cached user's current organization.
func (s *Store) SetActiveOrganization(octx domain.OrganizationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(octx)
	if err != nil {
		return err
	}
	if err := s.put(keyActiveOrg, string(data)); err != nil {
		return err
	}
	s.org = &octx
	if s.user != nil {
		s.user.CurrentOrganizationID = octx.Organization.ID
		userData, err := json.Marshal(*s.user)
		if err != nil {
			return err
		}
		return s.put(keyUserData, string(userData))
	}
	return nil
}

// ActiveOrganization returns the last stored organization context.
func (s *Store) ActiveOrganization() (domain.OrganizationContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.org == nil {
		return domain.OrganizationContext{}, false
	}
	return *s.org, true
}

// ExpiresAt reports when the stored token expires, if one is stored
// and carries an exp claim.
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(s.token)
}

// SignedIn reports whether a usable token is stored.
func (s *Store) SignedIn() bool {
	return s.Token() != ""
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT key, value FROM kv WHERE key IN (?,?,?)`, keyAuthToken, keyUserData, keyActiveOrg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		switch key {
		case keyAuthToken:
			s.token = value
		case keyUserData:
			var u domain.User
			if err := json.Unmarshal([]byte(value), &u); err == nil {
				s.user = &u
			}
		case keyActiveOrg:
			var o domain.OrganizationContext
			if err := json.Unmarshal([]byte(value), &o); err == nil {
				s.org = &o
			}
		}
	}
	return rows.Err()
}

// put upserts a kv row. Caller holds the lock.
func (s *Store) put(key, value string) error {
	now := s.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO kv(key,value,updated_at) VALUES (?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, now)
	return err
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client cannot verify tokens, only the server can.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
