package store

import (
	"context"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
)

// NegotiationStore orchestrates the negotiation caches: the
// negotiation itself plus its rounds, messages, and activity feed.
// Round and message mutations also dirty the parent negotiation's
// detail slot, since counters (total_rounds, last_activity_at) live
// there.
type NegotiationStore struct {
	api   *api.NegotiationsService
	cache *query.Cache
}

type roundFilter struct {
	NegotiationID string `json:"negotiation_id"`
	Skip          int    `json:"skip,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

type messageFilter struct {
	NegotiationID string `json:"negotiation_id"`
	RoundID       string `json:"round_id,omitempty"`
	Skip          int    `json:"skip,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

func (s *NegotiationStore) List(ctx context.Context, filter domain.NegotiationFilter) ([]domain.NegotiationSummary, error) {
	key := query.ListKey(resNegotiations, filter)
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.NegotiationSummary, error) {
		return s.api.List(ctx, filter)
	})
}

func (s *NegotiationStore) Get(ctx context.Context, id string) (domain.NegotiationDetail, error) {
	if id == "" {
		return domain.NegotiationDetail{}, query.ErrSkipped
	}
	key := query.DetailKey(resNegotiations, id)
	return query.Fetch(ctx, s.cache, key, windowDetail, func(ctx context.Context) (domain.NegotiationDetail, error) {
		return s.api.Get(ctx, id)
	})
}

func (s *NegotiationStore) Create(ctx context.Context, in domain.NegotiationCreate) (domain.Negotiation, error) {
	created, err := s.api.Create(ctx, in)
	if err != nil {
		return domain.Negotiation{}, err
	}
	s.cache.InvalidateLists(resNegotiations)
	return created, nil
}

func (s *NegotiationStore) Update(ctx context.Context, id string, in domain.NegotiationUpdate) (domain.Negotiation, error) {
	updated, err := s.api.Update(ctx, id, in)
	if err != nil {
		return domain.Negotiation{}, err
	}
	s.invalidateNegotiation(id)
	return updated, nil
}

func (s *NegotiationStore) AddParticipant(ctx context.Context, id string, in domain.ParticipantCreate) (domain.Participant, error) {
	p, err := s.api.AddParticipant(ctx, id, in)
	if err != nil {
		return domain.Participant{}, err
	}
	s.cache.Evict(query.DetailKey(resNegotiations, id))
	return p, nil
}

func (s *NegotiationStore) ListRounds(ctx context.Context, id string, skip, limit int) ([]domain.Round, error) {
	if id == "" {
		return nil, query.ErrSkipped
	}
	key := query.ListKey(resRounds, roundFilter{NegotiationID: id, Skip: skip, Limit: limit})
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.Round, error) {
		return s.api.ListRounds(ctx, id, skip, limit)
	})
}

func (s *NegotiationStore) CreateRound(ctx context.Context, id string, in domain.RoundCreate) (domain.Round, error) {
	round, err := s.api.CreateRound(ctx, id, in)
	if err != nil {
		return domain.Round{}, err
	}
	s.invalidateRounds(id)
	return round, nil
}

func (s *NegotiationStore) SubmitRound(ctx context.Context, id, roundID string) (domain.RoundOutcome, error) {
	out, err := s.api.SubmitRound(ctx, id, roundID)
	if err != nil {
		return domain.RoundOutcome{}, err
	}
	s.invalidateRounds(id)
	return out, nil
}

func (s *NegotiationStore) RespondToRound(ctx context.Context, id, roundID, status, notes string) (domain.RoundOutcome, error) {
	out, err := s.api.RespondToRound(ctx, id, roundID, status, notes)
	if err != nil {
		return domain.RoundOutcome{}, err
	}
	s.invalidateRounds(id)
	return out, nil
}

func (s *NegotiationStore) ListMessages(ctx context.Context, id, roundID string, skip, limit int) ([]domain.Message, error) {
	if id == "" {
		return nil, query.ErrSkipped
	}
	key := query.ListKey(resMessages, messageFilter{NegotiationID: id, RoundID: roundID, Skip: skip, Limit: limit})
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.Message, error) {
		return s.api.ListMessages(ctx, id, roundID, skip, limit)
	})
}

func (s *NegotiationStore) CreateMessage(ctx context.Context, id string, in domain.MessageCreate) (domain.Message, error) {
	msg, err := s.api.CreateMessage(ctx, id, in)
	if err != nil {
		return domain.Message{}, err
	}
	s.cache.InvalidateLists(resMessages)
	s.cache.Evict(query.DetailKey(resNegotiations, id))
	return msg, nil
}

func (s *NegotiationStore) Activity(ctx context.Context, id string, skip, limit int) ([]domain.Activity, error) {
	if id == "" {
		return nil, query.ErrSkipped
	}
	key := query.ListKey(resActivity, roundFilter{NegotiationID: id, Skip: skip, Limit: limit})
	return query.Fetch(ctx, s.cache, key, windowList, func(ctx context.Context) ([]domain.Activity, error) {
		return s.api.Activity(ctx, id, skip, limit)
	})
}

func (s *NegotiationStore) Pause(ctx context.Context, id string) error {
	if err := s.api.Pause(ctx, id); err != nil {
		return err
	}
	s.invalidateNegotiation(id)
	return nil
}

func (s *NegotiationStore) Resume(ctx context.Context, id string) error {
	if err := s.api.Resume(ctx, id); err != nil {
		return err
	}
	s.invalidateNegotiation(id)
	return nil
}

func (s *NegotiationStore) Abandon(ctx context.Context, id, reason string) error {
	if err := s.api.Abandon(ctx, id, reason); err != nil {
		return err
	}
	s.invalidateNegotiation(id)
	return nil
}

func (s *NegotiationStore) OrganizationStats(ctx context.Context) (domain.NegotiationStats, error) {
	key := query.DetailKey(resStats, "negotiations")
	return query.Fetch(ctx, s.cache, key, windowStats, func(ctx context.Context) (domain.NegotiationStats, error) {
		return s.api.OrganizationStats(ctx)
	})
}

func (s *NegotiationStore) invalidateNegotiation(id string) {
	s.cache.Evict(query.DetailKey(resNegotiations, id))
	s.cache.InvalidateLists(resNegotiations)
}

func (s *NegotiationStore) invalidateRounds(id string) {
	s.cache.InvalidateLists(resRounds)
	s.cache.Evict(query.DetailKey(resNegotiations, id))
	s.cache.InvalidateLists(resNegotiations)
}
