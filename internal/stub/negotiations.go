package stub

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"pactline/internal/domain"
)

func registerNegotiations(api huma.API, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-negotiation",
		Method:        http.MethodPost,
		Path:          "/negotiations",
		Summary:       "Start a negotiation on an agreement",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body domain.NegotiationCreate
	}) (*struct {
		Body domain.Negotiation
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Title == "" {
			return nil, badRequest("title is required")
		}
		a, authErr := d.agreementForCaller(ctx, input.Body.AgreementID)
		if authErr != nil {
			return nil, authErr
		}
		n := &domain.Negotiation{
			ID:             newID(),
			AgreementID:    a.ID,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			Deadline:       input.Body.Deadline,
			Settings:       input.Body.Settings,
			Status:         domain.NegotiationInitiated,
			CreatedBy:      acct.ID,
			Version:        1,
			LastActivityAt: d.now(),
			CreatedAt:      d.now(),
			UpdatedAt:      d.now(),
		}
		d.negotiations[n.ID] = n
		d.participants[n.ID] = []domain.Participant{d.newParticipant(n.ID, acct.ID, domain.RoleInitiator, acct.ID)}
		for _, pc := range input.Body.Participants {
			if pc.UserID == acct.ID {
				continue
			}
			d.participants[n.ID] = append(d.participants[n.ID], d.newParticipant(n.ID, pc.UserID, pc.Role, acct.ID))
			if pc.Role == domain.RoleCounterparty {
				n.Status = domain.NegotiationActive
			}
		}
		d.recordActivity(n.ID, "negotiation_created", "Negotiation started", acct.ID)
		return &struct {
			Body domain.Negotiation
		}{Body: *n}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-negotiations",
		Method:      http.MethodGet,
		Path:        "/negotiations",
		Summary:     "List negotiations",
	}, func(ctx context.Context, input *struct {
		Skip        int    `query:"skip"`
		Limit       int    `query:"limit"`
		Status      string `query:"status"`
		AgreementID string `query:"agreement_id"`
	}) (*struct {
		Body page[domain.NegotiationSummary]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.NegotiationSummary
		for _, n := range d.negotiations {
			a := d.agreements[n.AgreementID]
			if a == nil || a.OrganizationID != orgID {
				continue
			}
			if input.Status != "" && n.Status != input.Status {
				continue
			}
			if input.AgreementID != "" && n.AgreementID != input.AgreementID {
				continue
			}
			out = append(out, d.summarize(n))
		}
		total := len(out)
		return &struct {
			Body page[domain.NegotiationSummary]
		}{Body: listBody(paginate(out, input.Skip, input.Limit), total)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-negotiation",
		Method:      http.MethodGet,
		Path:        "/negotiations/{negotiation_id}",
		Summary:     "Get negotiation",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
	}) (*struct {
		Body domain.NegotiationDetail
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		role := d.participantRole(n.ID, acct.ID)
		return &struct {
			Body domain.NegotiationDetail
		}{Body: domain.NegotiationDetail{
			Negotiation:     *n,
			Participants:    d.participants[n.ID],
			CurrentUserRole: role,
			CanEdit:         role == domain.RoleInitiator,
			CanRespond:      role == domain.RoleCounterparty || role == domain.RoleDelegate,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-negotiation",
		Method:      http.MethodPut,
		Path:        "/negotiations/{negotiation_id}",
		Summary:     "Update negotiation",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Body          domain.NegotiationUpdate
	}) (*struct {
		Body domain.Negotiation
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		if terminal(n.Status) {
			return nil, conflict("Negotiation is " + n.Status)
		}
		if input.Body.Title != nil {
			n.Title = *input.Body.Title
		}
		if input.Body.Description != nil {
			n.Description = *input.Body.Description
		}
		if input.Body.Deadline != nil {
			n.Deadline = *input.Body.Deadline
		}
		if input.Body.Settings != nil {
			n.Settings = input.Body.Settings
		}
		d.touchNegotiation(n)
		return &struct {
			Body domain.Negotiation
		}{Body: *n}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-participant",
		Method:        http.MethodPost,
		Path:          "/negotiations/{negotiation_id}/participants",
		Summary:       "Add a participant",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Body          domain.ParticipantCreate
	}) (*struct {
		Body domain.Participant
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		if terminal(n.Status) {
			return nil, conflict("Negotiation is " + n.Status)
		}
		for _, p := range d.participants[n.ID] {
			if p.UserID == input.Body.UserID && p.IsActive {
				return nil, conflict("User is already a participant")
			}
		}
		p := d.newParticipant(n.ID, input.Body.UserID, input.Body.Role, acct.ID)
		d.participants[n.ID] = append(d.participants[n.ID], p)
		if input.Body.Role == domain.RoleCounterparty && n.Status == domain.NegotiationInitiated {
			n.Status = domain.NegotiationActive
		}
		d.touchNegotiation(n)
		d.recordActivity(n.ID, "participant_added", "Participant added as "+input.Body.Role, acct.ID)
		return &struct {
			Body domain.Participant
		}{Body: p}, nil
	})

	registerRounds(api, d)
	registerMessages(api, d)
	registerLifecycle(api, d)
}

func registerRounds(api huma.API, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-round",
		Method:        http.MethodPost,
		Path:          "/negotiations/{negotiation_id}/rounds",
		Summary:       "Draft a proposal round",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Body          domain.RoundCreate
	}) (*struct {
		Body domain.Round
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		if terminal(n.Status) || n.Status == domain.NegotiationPaused {
			return nil, conflict("Negotiation is " + n.Status)
		}
		if input.Body.Title == "" {
			return nil, badRequest("title is required")
		}
		var parentID string
		for _, r := range d.rounds[n.ID] {
			switch r.Status {
			case domain.RoundDraft:
				return nil, conflict("A draft round is already open")
			case domain.RoundSubmitted, domain.RoundUnderReview:
				r.Status = domain.RoundSuperseded
				r.UpdatedAt = d.now()
				parentID = r.ID
			}
		}
		round := &domain.Round{
			ID:             newID(),
			NegotiationID:  n.ID,
			RoundNumber:    len(d.rounds[n.ID]) + 1,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			ProposalData:   input.Body.ProposalData,
			ChangesSummary: input.Body.ChangesSummary,
			Deadline:       input.Body.Deadline,
			Status:         domain.RoundDraft,
			CreatedBy:      acct.ID,
			ParentRoundID:  parentID,
			Version:        1,
			CreatedAt:      d.now(),
			UpdatedAt:      d.now(),
		}
		d.rounds[n.ID] = append(d.rounds[n.ID], round)
		n.TotalRounds = len(d.rounds[n.ID])
		n.CurrentRound = round.RoundNumber
		d.touchNegotiation(n)
		d.recordActivity(n.ID, "round_created", "Round drafted", acct.ID)
		return &struct {
			Body domain.Round
		}{Body: *round}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rounds",
		Method:      http.MethodGet,
		Path:        "/negotiations/{negotiation_id}/rounds",
		Summary:     "List rounds",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Skip          int    `query:"skip"`
		Limit         int    `query:"limit"`
	}) (*struct {
		Body page[domain.Round]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		rounds := d.rounds[n.ID]
		out := make([]domain.Round, 0, len(rounds))
		for _, r := range rounds {
			out = append(out, *r)
		}
		return &struct {
			Body page[domain.Round]
		}{Body: listBody(paginate(out, input.Skip, input.Limit), len(rounds))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-round",
		Method:      http.MethodPut,
		Path:        "/negotiations/{negotiation_id}/rounds/{round_id}/submit",
		Summary:     "Submit a draft round",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		RoundID       string `path:"round_id"`
	}) (*struct {
		Body domain.RoundOutcome
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, round, authErr := d.roundForCaller(ctx, input.NegotiationID, input.RoundID)
		if authErr != nil {
			return nil, authErr
		}
		if round.Status != domain.RoundDraft {
			return nil, conflict("Only draft rounds can be submitted")
		}
		round.Status = domain.RoundSubmitted
		round.Version++
		round.UpdatedAt = d.now()
		d.touchNegotiation(n)
		d.recordActivity(n.ID, "round_submitted", "Round submitted for review", acct.ID)
		return &struct {
			Body domain.RoundOutcome
		}{Body: domain.RoundOutcome{Message: "Round submitted", Round: *round}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-to-round",
		Method:      http.MethodPut,
		Path:        "/negotiations/{negotiation_id}/rounds/{round_id}/respond",
		Summary:     "Accept or reject a submitted round",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		RoundID       string `path:"round_id"`
		Body          struct {
			Status        string `json:"status" enum:"accepted,rejected"`
			ResponseNotes string `json:"response_notes,omitempty"`
		}
	}) (*struct {
		Body domain.RoundOutcome
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, round, authErr := d.roundForCaller(ctx, input.NegotiationID, input.RoundID)
		if authErr != nil {
			return nil, authErr
		}
		if round.Status != domain.RoundSubmitted && round.Status != domain.RoundUnderReview {
			return nil, conflict("Round is not awaiting a response")
		}
		round.Status = input.Body.Status
		round.ResponseNotes = input.Body.ResponseNotes
		round.RespondedAt = d.now()
		round.Version++
		round.UpdatedAt = d.now()
		if input.Body.Status == domain.RoundAccepted {
			n.Status = domain.NegotiationCompleted
		}
		d.touchNegotiation(n)
		d.recordActivity(n.ID, "round_"+input.Body.Status, "Round "+input.Body.Status, acct.ID)
		return &struct {
			Body domain.RoundOutcome
		}{Body: domain.RoundOutcome{Message: "Round " + input.Body.Status, Round: *round}}, nil
	})
}

func registerMessages(api huma.API, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-message",
		Method:        http.MethodPost,
		Path:          "/negotiations/{negotiation_id}/messages",
		Summary:       "Post a message",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Body          domain.MessageCreate
	}) (*struct {
		Body domain.Message
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Content == "" {
			return nil, badRequest("content is required")
		}
		messageType := input.Body.MessageType
		if messageType == "" {
			messageType = domain.MessageComment
		}
		msg := domain.Message{
			ID:              newID(),
			NegotiationID:   n.ID,
			RoundID:         input.Body.RoundID,
			ParentMessageID: input.Body.ParentMessageID,
			Content:         input.Body.Content,
			MessageType:     messageType,
			Metadata:        input.Body.Metadata,
			IsPrivate:       input.Body.IsPrivate || messageType == domain.MessagePrivateNote,
			CreatedBy:       acct.ID,
			MentionedUsers:  input.Body.MentionedUsers,
			CreatedAt:       d.now(),
			UpdatedAt:       d.now(),
		}
		d.messages[n.ID] = append(d.messages[n.ID], msg)
		d.touchNegotiation(n)
		d.recordActivity(n.ID, "message_posted", "Message posted", acct.ID)
		return &struct {
			Body domain.Message
		}{Body: msg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/negotiations/{negotiation_id}/messages",
		Summary:     "List messages",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		RoundID       string `query:"round_id"`
		Skip          int    `query:"skip"`
		Limit         int    `query:"limit"`
	}) (*struct {
		Body page[domain.Message]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.Message
		for _, m := range d.messages[n.ID] {
			if input.RoundID != "" && m.RoundID != input.RoundID {
				continue
			}
			if m.IsPrivate && m.CreatedBy != acct.ID {
				continue
			}
			out = append(out, m)
		}
		total := len(out)
		return &struct {
			Body page[domain.Message]
		}{Body: listBody(paginate(out, input.Skip, input.Limit), total)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "negotiation-activity",
		Method:      http.MethodGet,
		Path:        "/negotiations/{negotiation_id}/activity",
		Summary:     "Activity feed",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Skip          int    `query:"skip"`
		Limit         int    `query:"limit"`
	}) (*struct {
		Body page[domain.Activity]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		feed := d.activity[n.ID]
		return &struct {
			Body page[domain.Activity]
		}{Body: listBody(paginate(feed, input.Skip, input.Limit), len(feed))}, nil
	})
}

func registerLifecycle(api huma.API, d *Dataset) {
	transition := func(opID, path, from, to, message, activityType string) {
		huma.Register(api, huma.Operation{
			OperationID: opID,
			Method:      http.MethodPost,
			Path:        path,
			Summary:     message,
		}, func(ctx context.Context, input *struct {
			NegotiationID string `path:"negotiation_id"`
		}) (*struct {
			Body messageBody
		}, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			acct, _, authErr := caller(ctx, d)
			if authErr != nil {
				return nil, authErr
			}
			n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
			if authErr != nil {
				return nil, authErr
			}
			if n.Status != from {
				return nil, conflict("Negotiation is " + n.Status)
			}
			n.Status = to
			d.touchNegotiation(n)
			d.recordActivity(n.ID, activityType, message, acct.ID)
			return &struct {
				Body messageBody
			}{Body: messageBody{Message: message}}, nil
		})
	}
	transition("pause-negotiation", "/negotiations/{negotiation_id}/pause",
		domain.NegotiationActive, domain.NegotiationPaused, "Negotiation paused", "negotiation_paused")
	transition("resume-negotiation", "/negotiations/{negotiation_id}/resume",
		domain.NegotiationPaused, domain.NegotiationActive, "Negotiation resumed", "negotiation_resumed")

	huma.Register(api, huma.Operation{
		OperationID: "abandon-negotiation",
		Method:      http.MethodDelete,
		Path:        "/negotiations/{negotiation_id}",
		Summary:     "Abandon a negotiation",
	}, func(ctx context.Context, input *struct {
		NegotiationID string `path:"negotiation_id"`
		Body          struct {
			Reason string `json:"reason,omitempty"`
		}
	}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		n, authErr := d.negotiationForCaller(ctx, input.NegotiationID)
		if authErr != nil {
			return nil, authErr
		}
		if terminal(n.Status) {
			return nil, conflict("Negotiation is " + n.Status)
		}
		n.Status = domain.NegotiationAbandoned
		d.touchNegotiation(n)
		desc := "Negotiation abandoned"
		if input.Body.Reason != "" {
			desc += ": " + input.Body.Reason
		}
		d.recordActivity(n.ID, "negotiation_abandoned", desc, acct.ID)
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "Negotiation abandoned"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "negotiation-org-stats",
		Method:      http.MethodGet,
		Path:        "/negotiations/stats/organization",
		Summary:     "Negotiation stats for the caller's organization",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.NegotiationStats
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var stats domain.NegotiationStats
		var roundTotal int
		for _, n := range d.negotiations {
			a := d.agreements[n.AgreementID]
			if a == nil || a.OrganizationID != orgID {
				continue
			}
			stats.TotalNegotiations++
			roundTotal += n.TotalRounds
			switch n.Status {
			case domain.NegotiationActive, domain.NegotiationInitiated, domain.NegotiationPaused:
				stats.ActiveNegotiations++
			case domain.NegotiationCompleted:
				stats.CompletedNegotiations++
			}
		}
		if stats.TotalNegotiations > 0 {
			stats.AverageRoundsPerNegotiation = float64(roundTotal) / float64(stats.TotalNegotiations)
			stats.SuccessRate = float64(stats.CompletedNegotiations) / float64(stats.TotalNegotiations)
		}
		return &struct {
			Body domain.NegotiationStats
		}{Body: stats}, nil
	})
}

func terminal(status string) bool {
	switch status {
	case domain.NegotiationCompleted, domain.NegotiationAbandoned, domain.NegotiationExpired:
		return true
	}
	return false
}

func (d *Dataset) newParticipant(negotiationID, userID, role, invitedBy string) domain.Participant {
	p := domain.Participant{
		ID:            newID(),
		NegotiationID: negotiationID,
		UserID:        userID,
		Role:          role,
		IsActive:      true,
		InvitedBy:     invitedBy,
		JoinedAt:      d.now(),
		CreatedAt:     d.now(),
	}
	if acct, ok := d.users[userID]; ok {
		p.UserName = acct.FullName
		p.UserEmail = acct.Email
		p.OrganizationID = acct.CurrentOrganizationID
		if org := d.organizations[acct.CurrentOrganizationID]; org != nil {
			p.OrganizationName = org.Name
		}
	}
	return p
}

func (d *Dataset) participantRole(negotiationID, userID string) string {
	for _, p := range d.participants[negotiationID] {
		if p.UserID == userID && p.IsActive {
			return p.Role
		}
	}
	return ""
}

func (d *Dataset) negotiationForCaller(ctx context.Context, id string) (*domain.Negotiation, huma.StatusError) {
	_, orgID, authErr := caller(ctx, d)
	if authErr != nil {
		return nil, authErr
	}
	n, ok := d.negotiations[id]
	if !ok {
		return nil, notFound("Negotiation not found")
	}
	a := d.agreements[n.AgreementID]
	if a == nil || a.OrganizationID != orgID {
		return nil, notFound("Negotiation not found")
	}
	return n, nil
}

func (d *Dataset) roundForCaller(ctx context.Context, negotiationID, roundID string) (*domain.Negotiation, *domain.Round, huma.StatusError) {
	n, authErr := d.negotiationForCaller(ctx, negotiationID)
	if authErr != nil {
		return nil, nil, authErr
	}
	for _, r := range d.rounds[n.ID] {
		if r.ID == roundID {
			return n, r, nil
		}
	}
	return nil, nil, notFound("Round not found")
}

func (d *Dataset) summarize(n *domain.Negotiation) domain.NegotiationSummary {
	active := 0
	for _, p := range d.participants[n.ID] {
		if p.IsActive {
			active++
		}
	}
	days := 0
	if created, err := time.Parse(time.RFC3339, n.CreatedAt); err == nil {
		days = int(d.Now().UTC().Sub(created).Hours() / 24)
	}
	return domain.NegotiationSummary{
		NegotiationID:      n.ID,
		Title:              n.Title,
		Status:             n.Status,
		TotalRounds:        n.TotalRounds,
		ActiveParticipants: active,
		LastActivity:       n.LastActivityAt,
		DaysActive:         days,
		CreatedAt:          n.CreatedAt,
	}
}
