package store

import (
	"context"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

// OrganizationStore caches the current organization and its stats.
// Organization data changes rarely, so it gets the longest window.
type OrganizationStore struct {
	api   *api.OrganizationsService
	cache *query.Cache
}

func (s *OrganizationStore) Current(ctx context.Context) (domain.Organization, error) {
	key := query.DetailKey(resOrganizations, "current")
	return query.Fetch(ctx, s.cache, key, windowOrg, func(ctx context.Context) (domain.Organization, error) {
		return s.api.Current(ctx)
	})
}

func (s *OrganizationStore) Stats(ctx context.Context) (domain.OrganizationStats, error) {
	key := query.DetailKey(resStats, "organization")
	return query.Fetch(ctx, s.cache, key, windowStats, func(ctx context.Context) (domain.OrganizationStats, error) {
		return s.api.Stats(ctx)
	})
}

func (s *OrganizationStore) Update(ctx context.Context, name string) (domain.Organization, error) {
	org, err := s.api.Update(ctx, name)
	if err != nil {
		return domain.Organization{}, err
	}
	s.cache.Put(query.DetailKey(resOrganizations, "current"), org)
	return org, nil
}

func (s *OrganizationStore) Create(ctx context.Context, name string) (domain.Organization, error) {
	org, err := s.api.Create(ctx, name)
	if err != nil {
		return domain.Organization{}, err
	}
	s.cache.InvalidateResource(resOrganizations)
	return org, nil
}

func (s *OrganizationStore) Delete(ctx context.Context) error {
	if err := s.api.Delete(ctx); err != nil {
		return err
	}
	s.cache.InvalidateResource(resOrganizations)
	s.cache.InvalidateResource(resStats)
	return nil
}
