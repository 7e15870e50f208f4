package api

import (
	"context"
	"fmt"
	"net/url"

	"pactline/internal/domain"
)

const authPath = "/api/v1/auth"

// AuthService handles account and organization-membership operations.
// Storing the returned token is the caller's job (the session store);
// this service never touches persistent state.
type AuthService struct {
	c *Client
}

func (s *AuthService) SignUp(ctx context.Context, in domain.SignUpRequest) (domain.SignUpResult, error) {
	var out domain.SignUpResult
	err := s.c.Post(ctx, authPath+"/signup", in, &out)
	return out, err
}

func (s *AuthService) SignIn(ctx context.Context, in domain.SignInRequest) (domain.AuthTokens, error) {
	var out domain.AuthTokens
	err := s.c.Post(ctx, authPath+"/signin", in, &out)
	return out, err
}

func (s *AuthService) CreateInvitation(ctx context.Context, in domain.InvitationCreate) (domain.Invitation, error) {
	var out domain.Invitation
	err := s.c.Post(ctx, authPath+"/invitations", in, &out)
	return out, err
}

func (s *AuthService) AcceptInvitation(ctx context.Context, in domain.AcceptInvitationRequest) error {
	var out struct {
		Message          string `json:"message"`
		OrganizationName string `json:"organization_name"`
	}
	return s.c.Post(ctx, authPath+"/invitations/accept", in, &out)
}

func (s *AuthService) SwitchOrganization(ctx context.Context, organizationID string) (domain.OrganizationContext, error) {
	var out domain.OrganizationContext
	body := map[string]string{"organization_id": organizationID}
	err := s.c.Post(ctx, authPath+"/organizations/switch", body, &out)
	return out, err
}

func (s *AuthService) CurrentOrganization(ctx context.Context) (domain.OrganizationContext, error) {
	var out domain.OrganizationContext
	err := s.c.Get(ctx, authPath+"/organizations/current", nil, &out)
	return out, err
}

func (s *AuthService) MyOrganizations(ctx context.Context) ([]domain.OrganizationRole, error) {
	var out domain.Page[domain.OrganizationRole]
	err := s.c.Get(ctx, authPath+"/organizations", nil, &out)
	return out.Items, err
}

func (s *AuthService) OrganizationUsers(ctx context.Context) ([]domain.UserWithOrganizations, error) {
	var out domain.Page[domain.UserWithOrganizations]
	err := s.c.Get(ctx, authPath+"/users", nil, &out)
	return out.Items, err
}

func (s *AuthService) RemoveUser(ctx context.Context, userID string) error {
	var out struct {
		Message string `json:"message"`
	}
	return s.c.Delete(ctx, fmt.Sprintf("%s/users/%s", authPath, url.PathEscape(userID)), nil, &out)
}

func (s *AuthService) UpdateUserRole(ctx context.Context, userID, role string) error {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("%s/users/%s/role", authPath, url.PathEscape(userID))
	return s.c.Put(ctx, path, map[string]string{"role": role}, &out)
}
