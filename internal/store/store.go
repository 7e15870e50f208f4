// Package store is the cache-aware data-access layer: each resource
// store wraps its API service with staleness-window reads and the
// invalidation rules mutations demand. Views (the CLI) talk to stores,
// never to services directly.
package store

import (
	"time"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

// Staleness windows by resource volatility. Search results go stale
// fastest, organization data slowest.
const (
	windowSearch = 30 * time.Second
	windowList   = time.Minute
	windowDetail = 2 * time.Minute
	windowStats  = 5 * time.Minute
	windowOrg    = 10 * time.Minute
)

// Cache resource names; these prefix every cache key.
const (
	resAgreements    = "agreements"
	resDocuments     = "documents"
	resNegotiations  = "negotiations"
	resRounds        = "rounds"
	resMessages      = "messages"
	resActivity      = "activity"
	resUsers         = "users"
	resInvitations   = "invitations"
	resOrganizations = "organizations"
	resOrgUsers      = "org_users"
	resStats         = "stats"
)

// Store aggregates the per-resource stores over one client and one
// shared cache.
type Store struct {
	cache *query.Cache

	Agreements    *AgreementStore
	Documents     *DocumentStore
	Negotiations  *NegotiationStore
	Users         *UserStore
	Organizations *OrganizationStore
	Auth          *AuthStore
}

// SessionState is what the auth store needs from the session besides
// what the transport already uses.
type SessionState interface {
	api.Session
	SignIn(token string, user domain.User) error
	SetActiveOrganization(octx domain.OrganizationContext) error
	Clear() error
}

func New(client *api.Client, sess SessionState) *Store {
	cache := query.NewCache()
	s := &Store{cache: cache}
	s.Agreements = &AgreementStore{api: client.Agreements, cache: cache}
	s.Documents = &DocumentStore{api: client.Documents, cache: cache}
	s.Negotiations = &NegotiationStore{api: client.Negotiations, cache: cache}
	s.Users = &UserStore{api: client.Users, cache: cache}
	s.Organizations = &OrganizationStore{api: client.Organizations, cache: cache}
	s.Auth = &AuthStore{api: client.Auth, cache: cache, session: sess}
	return s
}

// Cache exposes the shared cache for tests and callers that need a
// manual flush.
func (s *Store) Cache() *query.Cache {
	return s.cache
}
