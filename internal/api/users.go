package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"pactline/internal/domain"
)

const usersPath = "/api/v1/users"

// UsersService covers the user directory and team invitations.
type UsersService struct {
	c *Client
}

// Search backs the invite-user typeahead. Debouncing and the minimum
// query length live in the store layer, not here.
func (s *UsersService) Search(ctx context.Context, query string, excludeCurrent bool, limit int) ([]domain.UserListEntry, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("exclude_current", strconv.FormatBool(excludeCurrent))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out domain.Page[domain.UserListEntry]
	err := s.c.Get(ctx, usersPath+"/search", q, &out)
	return out.Items, err
}

func (s *UsersService) List(ctx context.Context, filter domain.UserFilter) ([]domain.UserListEntry, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.OrganizationID != "" {
		q.Set("organization_id", filter.OrganizationID)
	}
	if filter.Skip > 0 {
		q.Set("skip", strconv.Itoa(filter.Skip))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out domain.Page[domain.UserListEntry]
	err := s.c.Get(ctx, usersPath, q, &out)
	return out.Items, err
}

func (s *UsersService) Get(ctx context.Context, id string) (domain.UserListEntry, error) {
	var out domain.UserListEntry
	err := s.c.Get(ctx, fmt.Sprintf("%s/%s", usersPath, url.PathEscape(id)), nil, &out)
	return out, err
}

func (s *UsersService) CreateInvitation(ctx context.Context, in domain.InvitationCreate) (domain.Invitation, error) {
	var out domain.Invitation
	err := s.c.Post(ctx, usersPath+"/invitations", in, &out)
	return out, err
}

func (s *UsersService) ListInvitations(ctx context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.SentByMe {
		q.Set("sent_by_me", "true")
	}
	if filter.ReceivedByMe {
		q.Set("received_by_me", "true")
	}
	var out domain.Page[domain.Invitation]
	err := s.c.Get(ctx, usersPath+"/invitations", q, &out)
	return out.Items, err
}

func (s *UsersService) AcceptInvitation(ctx context.Context, token string) error {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("%s/invitations/%s/accept", usersPath, url.PathEscape(token))
	return s.c.Post(ctx, path, nil, &out)
}

func (s *UsersService) DeclineInvitation(ctx context.Context, token string) error {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("%s/invitations/%s/decline", usersPath, url.PathEscape(token))
	return s.c.Post(ctx, path, nil, &out)
}
