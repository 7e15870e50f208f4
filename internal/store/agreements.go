package store

import (
	"context"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

// AgreementStore serves agreement reads from cache within their
// staleness windows and keeps list/detail slots consistent across
// mutations: updates are written through to the detail slot, deletes
// evict it, and every mutation marks all agreement lists stale.
type AgreementStore struct {
	api   *api.AgreementsService
	cache *query.Cache
}

func (s *AgreementStore) List(ctx context.Context, filter domain.AgreementFilter) (domain.Page[domain.Agreement], error) {
	key := query.ListKey(resAgreements, filter)
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) (domain.Page[domain.Agreement], error) {
		return s.api.List(ctx, filter)
	})
}

func (s *AgreementStore) Get(ctx context.Context, id string) (domain.AgreementDetail, error) {
	if id == "" {
		return domain.AgreementDetail{}, query.ErrSkipped
	}
	key := query.DetailKey(resAgreements, id)
	return query.Fetch(ctx, s.cache, key, windowDetail, func(ctx context.Context) (domain.AgreementDetail, error) {
		return s.api.Get(ctx, id)
	})
}

func (s *AgreementStore) Create(ctx context.Context, in domain.AgreementCreate) (domain.Agreement, error) {
	created, err := s.api.Create(ctx, in)
	if err != nil {
		return domain.Agreement{}, err
	}
	s.cache.Put(query.DetailKey(resAgreements, created.ID), domain.AgreementDetail{Agreement: created})
	s.cache.InvalidateLists(resAgreements)
	return created, nil
}

func (s *AgreementStore) Update(ctx context.Context, id string, in domain.AgreementUpdate) (domain.Agreement, error) {
	updated, err := s.api.Update(ctx, id, in)
	if err != nil {
		return domain.Agreement{}, err
	}
	// The response payload becomes the detail slot; the next detail
	// read needs no network call.
	s.cache.Put(query.DetailKey(resAgreements, id), domain.AgreementDetail{Agreement: updated})
	s.cache.InvalidateLists(resAgreements)
	return updated, nil
}

func (s *AgreementStore) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(query.DetailKey(resAgreements, id))
	s.cache.InvalidateLists(resAgreements)
	return nil
}

func (s *AgreementStore) ApprovalStatus(ctx context.Context, id string) (domain.ApprovalStatus, error) {
	if id == "" {
		return domain.ApprovalStatus{}, query.ErrSkipped
	}
	key := query.DetailKey(resAgreements+"/approval", id)
	return query.Fetch(ctx, s.cache, key, windowDetail, func(ctx context.Context) (domain.ApprovalStatus, error) {
		return s.api.ApprovalStatus(ctx, id)
	})
}
