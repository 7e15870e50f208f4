package store

import (
	"context"
	"io"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

// DocumentStore caches per-agreement document listings. Documents have
// no detail slot: they are immutable after upload, so the list is the
// only cacheable view, and downloads always go to the network.
type DocumentStore struct {
	api   *api.DocumentsService
	cache *query.Cache
}

type documentFilter struct {
	AgreementID string `json:"agreement_id"`
}

func (s *DocumentStore) List(ctx context.Context, agreementID string) ([]domain.Document, error) {
	if agreementID == "" {
		return nil, query.ErrSkipped
	}
	key := query.ListKey(resDocuments, documentFilter{AgreementID: agreementID})
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.Document, error) {
		return s.api.List(ctx, agreementID)
	})
}

func (s *DocumentStore) Upload(ctx context.Context, agreementID, fileName string, r io.Reader) (domain.Document, error) {
	doc, err := s.api.Upload(ctx, agreementID, fileName, r)
	if err != nil {
		return domain.Document{}, err
	}
	s.cache.InvalidateLists(resDocuments)
	return doc, nil
}

func (s *DocumentStore) Download(ctx context.Context, documentID, fallbackName string, w io.Writer) (string, error) {
	return s.api.Download(ctx, documentID, fallbackName, w)
}

func (s *DocumentStore) Delete(ctx context.Context, documentID string) error {
	if err := s.api.Delete(ctx, documentID); err != nil {
		return err
	}
	s.cache.InvalidateLists(resDocuments)
	return nil
}
