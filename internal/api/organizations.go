package api

import (
	"context"

	"pactline/internal/domain"
)

const organizationsPath = "/api/v1/organizations"

// OrganizationsService manages the caller's current organization.
type OrganizationsService struct {
	c *Client
}

func (s *OrganizationsService) Current(ctx context.Context) (domain.Organization, error) {
	var out domain.Organization
	err := s.c.Get(ctx, organizationsPath+"/current", nil, &out)
	return out, err
}

func (s *OrganizationsService) Update(ctx context.Context, name string) (domain.Organization, error) {
	var out domain.Organization
	err := s.c.Put(ctx, organizationsPath+"/current", map[string]string{"name": name}, &out)
	return out, err
}

func (s *OrganizationsService) Stats(ctx context.Context) (domain.OrganizationStats, error) {
	var out domain.OrganizationStats
	err := s.c.Get(ctx, organizationsPath+"/current/stats", nil, &out)
	return out, err
}

func (s *OrganizationsService) Create(ctx context.Context, name string) (domain.Organization, error) {
	var out domain.Organization
	err := s.c.Post(ctx, organizationsPath+"/create", map[string]string{"name": name}, &out)
	return out, err
}

func (s *OrganizationsService) Delete(ctx context.Context) error {
	var out struct {
		Message string `json:"message"`
	}
	return s.c.Delete(ctx, organizationsPath+"/current", nil, &out)
}
