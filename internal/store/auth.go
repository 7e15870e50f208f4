package store

import (
	"context"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

// AuthStore is the only store that writes to the session. Every change
// of identity or organization context empties the cache outright: data
// fetched under one principal must never be served to another.
type AuthStore struct {
	api     *api.AuthService
	cache   *query.Cache
	session SessionState
}

func (s *AuthStore) SignUp(ctx context.Context, in domain.SignUpRequest) (domain.SignUpResult, error) {
	return s.api.SignUp(ctx, in)
}

func (s *AuthStore) SignIn(ctx context.Context, in domain.SignInRequest) (domain.AuthTokens, error) {
	tokens, err := s.api.SignIn(ctx, in)
	if err != nil {
		return domain.AuthTokens{}, err
	}
	if err := s.session.SignIn(tokens.AccessToken, tokens.User); err != nil {
		return domain.AuthTokens{}, err
	}
	s.cache.InvalidateAll()
	return tokens, nil
}

func (s *AuthStore) SignOut() error {
	s.cache.InvalidateAll()
	return s.session.Clear()
}

func (s *AuthStore) SwitchOrganization(ctx context.Context, organizationID string) (domain.OrganizationContext, error) {
	octx, err := s.api.SwitchOrganization(ctx, organizationID)
	if err != nil {
		return domain.OrganizationContext{}, err
	}
	if err := s.session.SetActiveOrganization(octx); err != nil {
		return domain.OrganizationContext{}, err
	}
	s.cache.InvalidateAll()
	return octx, nil
}

func (s *AuthStore) CurrentOrganization(ctx context.Context) (domain.OrganizationContext, error) {
	key := query.DetailKey(resOrganizations, "context")
	return query.Fetch(ctx, s.cache, key, windowOrg, func(ctx context.Context) (domain.OrganizationContext, error) {
		return s.api.CurrentOrganization(ctx)
	})
}

func (s *AuthStore) MyOrganizations(ctx context.Context) ([]domain.OrganizationRole, error) {
	key := query.ListKey(resOrganizations, struct {
		Scope string `json:"scope"`
	}{Scope: "mine"})
	return query.Fetch(ctx, s.cache, key, windowOrg, func(ctx context.Context) ([]domain.OrganizationRole, error) {
		return s.api.MyOrganizations(ctx)
	})
}

func (s *AuthStore) OrganizationUsers(ctx context.Context) ([]domain.UserWithOrganizations, error) {
	key := query.ListKey(resOrgUsers, struct{}{})
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.UserWithOrganizations, error) {
		return s.api.OrganizationUsers(ctx)
	})
}

func (s *AuthStore) RemoveUser(ctx context.Context, userID string) error {
	if err := s.api.RemoveUser(ctx, userID); err != nil {
		return err
	}
	s.cache.InvalidateResource(resOrgUsers)
	return nil
}

func (s *AuthStore) UpdateUserRole(ctx context.Context, userID, role string) error {
	if err := s.api.UpdateUserRole(ctx, userID, role); err != nil {
		return err
	}
	s.cache.InvalidateResource(resOrgUsers)
	return nil
}

func (s *AuthStore) CreateInvitation(ctx context.Context, in domain.InvitationCreate) (domain.Invitation, error) {
	inv, err := s.api.CreateInvitation(ctx, in)
	if err != nil {
		return domain.Invitation{}, err
	}
	s.cache.InvalidateLists(resInvitations)
	return inv, nil
}

func (s *AuthStore) AcceptInvitation(ctx context.Context, in domain.AcceptInvitationRequest) error {
	if err := s.api.AcceptInvitation(ctx, in); err != nil {
		return err
	}
	s.cache.InvalidateLists(resInvitations)
	s.cache.InvalidateResource(resOrganizations)
	return nil
}
