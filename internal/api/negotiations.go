package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"pactline/internal/domain"
)

const negotiationsPath = "/api/v1/negotiations"

// NegotiationsService is the largest service: negotiations themselves
// plus participants, rounds, messages, the activity feed, lifecycle
// actions, and organization-wide stats.
type NegotiationsService struct {
	c *Client
}

func (s *NegotiationsService) Create(ctx context.Context, in domain.NegotiationCreate) (domain.Negotiation, error) {
	var out domain.Negotiation
	err := s.c.Post(ctx, negotiationsPath, in, &out)
	return out, err
}

func (s *NegotiationsService) List(ctx context.Context, filter domain.NegotiationFilter) ([]domain.NegotiationSummary, error) {
	q := url.Values{}
	if filter.Skip > 0 {
		q.Set("skip", strconv.Itoa(filter.Skip))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.AgreementID != "" {
		q.Set("agreement_id", filter.AgreementID)
	}
	var out domain.Page[domain.NegotiationSummary]
	err := s.c.Get(ctx, negotiationsPath, q, &out)
	return out.Items, err
}

func (s *NegotiationsService) Get(ctx context.Context, id string) (domain.NegotiationDetail, error) {
	var out domain.NegotiationDetail
	err := s.c.Get(ctx, s.itemPath(id), nil, &out)
	return out, err
}

func (s *NegotiationsService) Update(ctx context.Context, id string, in domain.NegotiationUpdate) (domain.Negotiation, error) {
	var out domain.Negotiation
	err := s.c.Put(ctx, s.itemPath(id), in, &out)
	return out, err
}

func (s *NegotiationsService) AddParticipant(ctx context.Context, id string, in domain.ParticipantCreate) (domain.Participant, error) {
	var out domain.Participant
	err := s.c.Post(ctx, s.itemPath(id)+"/participants", in, &out)
	return out, err
}

func (s *NegotiationsService) CreateRound(ctx context.Context, id string, in domain.RoundCreate) (domain.Round, error) {
	var out domain.Round
	err := s.c.Post(ctx, s.itemPath(id)+"/rounds", in, &out)
	return out, err
}

func (s *NegotiationsService) ListRounds(ctx context.Context, id string, skip, limit int) ([]domain.Round, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out domain.Page[domain.Round]
	err := s.c.Get(ctx, s.itemPath(id)+"/rounds", q, &out)
	return out.Items, err
}

// SubmitRound moves a draft round to submitted.
func (s *NegotiationsService) SubmitRound(ctx context.Context, id, roundID string) (domain.RoundOutcome, error) {
	var out domain.RoundOutcome
	path := fmt.Sprintf("%s/rounds/%s/submit", s.itemPath(id), url.PathEscape(roundID))
	err := s.c.Put(ctx, path, nil, &out)
	return out, err
}

// RespondToRound accepts or rejects a submitted round. status must be
// "accepted" or "rejected"; anything else is rejected server-side.
func (s *NegotiationsService) RespondToRound(ctx context.Context, id, roundID, status, notes string) (domain.RoundOutcome, error) {
	body := map[string]any{"status": status}
	if notes != "" {
		body["response_notes"] = notes
	}
	var out domain.RoundOutcome
	path := fmt.Sprintf("%s/rounds/%s/respond", s.itemPath(id), url.PathEscape(roundID))
	err := s.c.Put(ctx, path, body, &out)
	return out, err
}

func (s *NegotiationsService) CreateMessage(ctx context.Context, id string, in domain.MessageCreate) (domain.Message, error) {
	var out domain.Message
	err := s.c.Post(ctx, s.itemPath(id)+"/messages", in, &out)
	return out, err
}

func (s *NegotiationsService) ListMessages(ctx context.Context, id, roundID string, skip, limit int) ([]domain.Message, error) {
	q := url.Values{}
	if roundID != "" {
		q.Set("round_id", roundID)
	}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out domain.Page[domain.Message]
	err := s.c.Get(ctx, s.itemPath(id)+"/messages", q, &out)
	return out.Items, err
}

func (s *NegotiationsService) Activity(ctx context.Context, id string, skip, limit int) ([]domain.Activity, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out domain.Page[domain.Activity]
	err := s.c.Get(ctx, s.itemPath(id)+"/activity", q, &out)
	return out.Items, err
}

func (s *NegotiationsService) Pause(ctx context.Context, id string) error {
	var out struct {
		Message string `json:"message"`
	}
	return s.c.Post(ctx, s.itemPath(id)+"/pause", nil, &out)
}

func (s *NegotiationsService) Resume(ctx context.Context, id string) error {
	var out struct {
		Message string `json:"message"`
	}
	return s.c.Post(ctx, s.itemPath(id)+"/resume", nil, &out)
}

// Abandon ends a negotiation. The reason travels in the DELETE body.
func (s *NegotiationsService) Abandon(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	var out struct {
		Message string `json:"message"`
	}
	return s.c.Delete(ctx, s.itemPath(id), body, &out)
}

func (s *NegotiationsService) OrganizationStats(ctx context.Context) (domain.NegotiationStats, error) {
	var out domain.NegotiationStats
	err := s.c.Get(ctx, negotiationsPath+"/stats/organization", nil, &out)
	return out, err
}

func (s *NegotiationsService) itemPath(id string) string {
	return fmt.Sprintf("%s/%s", negotiationsPath, url.PathEscape(id))
}
