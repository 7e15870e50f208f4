package store

import (
	"context"
	"time"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

const searchDebounce = 300 * time.Millisecond

// UserStore caches user lookups and invitation management. Search
// results age out fast; directory listings a little slower.
type UserStore struct {
	api   *api.UsersService
	cache *query.Cache
}

type searchFilter struct {
	Query          string `json:"query"`
	ExcludeCurrent bool   `json:"exclude_current,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// Search looks up users by name or email. Queries shorter than two
// characters are not sent; callers get query.ErrSkipped and should
// treat the result as empty.
func (s *UserStore) Search(ctx context.Context, q string, excludeCurrent bool, limit int) ([]domain.UserListEntry, error) {
	if len(q) < 2 {
		return nil, query.ErrSkipped
	}
	key := query.ListKey(resUsers, searchFilter{Query: q, ExcludeCurrent: excludeCurrent, Limit: limit})
	return query.Fetch(ctx, s.cache, key, windowSearch, func(ctx context.Context) ([]domain.UserListEntry, error) {
		return s.api.Search(ctx, q, excludeCurrent, limit)
	})
}

func (s *UserStore) List(ctx context.Context, filter domain.UserFilter) ([]domain.UserListEntry, error) {
	key := query.ListKey(resUsers, filter)
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.UserListEntry, error) {
		return s.api.List(ctx, filter)
	})
}

func (s *UserStore) Get(ctx context.Context, id string) (domain.UserListEntry, error) {
	if id == "" {
		return domain.UserListEntry{}, query.ErrSkipped
	}
	key := query.DetailKey(resUsers, id)
	return query.Fetch(ctx, s.cache, key, windowDetail, func(ctx context.Context) (domain.UserListEntry, error) {
		return s.api.Get(ctx, id)
	})
}

func (s *UserStore) CreateInvitation(ctx context.Context, in domain.InvitationCreate) (domain.Invitation, error) {
	inv, err := s.api.CreateInvitation(ctx, in)
	if err != nil {
		return domain.Invitation{}, err
	}
	s.cache.InvalidateLists(resInvitations)
	return inv, nil
}

func (s *UserStore) ListInvitations(ctx context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error) {
	key := query.ListKey(resInvitations, filter)
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.Invitation, error) {
		return s.api.ListInvitations(ctx, filter)
	})
}

func (s *UserStore) AcceptInvitation(ctx context.Context, token string) error {
	if err := s.api.AcceptInvitation(ctx, token); err != nil {
		return err
	}
	s.cache.InvalidateLists(resInvitations)
	s.cache.InvalidateResource(resOrgUsers)
	return nil
}

func (s *UserStore) DeclineInvitation(ctx context.Context, token string) error {
	if err := s.api.DeclineInvitation(ctx, token); err != nil {
		return err
	}
	s.cache.InvalidateLists(resInvitations)
	return nil
}

// Typeahead wraps Search behind a debounce so that interactive input
// only hits the API once typing settles. Results arrive via the
// callback on a timer goroutine; callers synchronize their own state.
type Typeahead struct {
	store    *UserStore
	debounce *query.Debouncer
}

func (s *UserStore) NewTypeahead() *Typeahead {
	return &Typeahead{
		store:    s,
		debounce: query.NewDebouncer(searchDebounce),
	}
}

// Search schedules a lookup for q. Calls made before the debounce
// window elapses supersede earlier ones. Sub-two-character queries
// cancel any pending lookup and deliver an empty result immediately.
func (t *Typeahead) Search(ctx context.Context, q string, deliver func([]domain.UserListEntry, error)) {
	if len(q) < 2 {
		t.debounce.Cancel()
		deliver(nil, nil)
		return
	}
	t.debounce.Debounce(func() {
		users, err := t.store.Search(ctx, q, true, 10)
		deliver(users, err)
	})
}

// Close stops any pending lookup.
func (t *Typeahead) Close() {
	t.debounce.Cancel()
}
