package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"pactline/internal/domain"
)

const (
	agreementsPath = "/api/v1/agreements"
	contractsPath  = "/api/v1/contracts"
)

// AgreementsService maps agreement operations to endpoints one to one.
type AgreementsService struct {
	c    *Client
	base string
}

func (s *AgreementsService) path() string {
	if s.base != "" {
		return s.base
	}
	return agreementsPath
}

func (s *AgreementsService) Create(ctx context.Context, in domain.AgreementCreate) (domain.Agreement, error) {
	var out domain.Agreement
	err := s.c.Post(ctx, s.path(), in, &out)
	return out, err
}

func (s *AgreementsService) List(ctx context.Context, filter domain.AgreementFilter) (domain.Page[domain.Agreement], error) {
	var out domain.Page[domain.Agreement]
	err := s.c.Get(ctx, s.path(), agreementQuery(filter), &out)
	return out, err
}

func (s *AgreementsService) Get(ctx context.Context, id string) (domain.AgreementDetail, error) {
	var out domain.AgreementDetail
	err := s.c.Get(ctx, fmt.Sprintf("%s/%s", s.path(), url.PathEscape(id)), nil, &out)
	return out, err
}

func (s *AgreementsService) Update(ctx context.Context, id string, in domain.AgreementUpdate) (domain.Agreement, error) {
	var out domain.Agreement
	err := s.c.Put(ctx, fmt.Sprintf("%s/%s", s.path(), url.PathEscape(id)), in, &out)
	return out, err
}

func (s *AgreementsService) Delete(ctx context.Context, id string) error {
	var out struct {
		Message string `json:"message"`
	}
	return s.c.Delete(ctx, fmt.Sprintf("%s/%s", s.path(), url.PathEscape(id)), nil, &out)
}

func (s *AgreementsService) ApprovalStatus(ctx context.Context, id string) (domain.ApprovalStatus, error) {
	var out struct {
		AgreementID    string                `json:"agreement_id"`
		ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
	}
	err := s.c.Get(ctx, fmt.Sprintf("%s/%s/approval-status", s.path(), url.PathEscape(id)), nil, &out)
	return out.ApprovalStatus, err
}

func agreementQuery(f domain.AgreementFilter) url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ContractsService is a deprecated alias for the legacy /contracts
// endpoint group, which serves the same resource under its old name.
// It shares the agreement DTOs; new callers should use Agreements.
type ContractsService struct {
	AgreementsService
}
