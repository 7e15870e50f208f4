package stub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pactline/internal/domain"
)

// Dataset is the in-memory state behind the stub API. One mutex guards
// everything; the stub trades concurrency for simplicity.
type Dataset struct {
	mu sync.Mutex

	users         map[string]*account
	organizations map[string]*domain.Organization
	memberships   map[string]map[string]string // userID -> orgID -> role
	agreements    map[string]*domain.Agreement
	documents     map[string]*domain.Document
	files         map[string][]byte
	negotiations  map[string]*domain.Negotiation
	participants  map[string][]domain.Participant // negotiationID -> participants
	rounds        map[string][]*domain.Round      // negotiationID -> rounds
	messages      map[string][]domain.Message     // negotiationID -> messages
	activity      map[string][]domain.Activity    // negotiationID -> feed
	invitations   map[string]*domain.Invitation

	Now func() time.Time
}

type account struct {
	domain.User
	Password string
}

func NewDataset() *Dataset {
	return &Dataset{
		users:         map[string]*account{},
		organizations: map[string]*domain.Organization{},
		memberships:   map[string]map[string]string{},
		agreements:    map[string]*domain.Agreement{},
		documents:     map[string]*domain.Document{},
		files:         map[string][]byte{},
		negotiations:  map[string]*domain.Negotiation{},
		participants:  map[string][]domain.Participant{},
		rounds:        map[string][]*domain.Round{},
		messages:      map[string][]domain.Message{},
		activity:      map[string][]domain.Activity{},
		invitations:   map[string]*domain.Invitation{},
		Now:           time.Now,
	}
}

func (d *Dataset) now() string {
	return d.Now().UTC().Format(time.RFC3339)
}

func newID() string {
	return uuid.NewString()
}

// Seed creates an organization with one admin account and returns the
// account's user id. Handy for tests and `pactline stub serve --seed`.
func (d *Dataset) Seed(email, password, fullName, orgName string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	org := &domain.Organization{
		ID:        newID(),
		Name:      orgName,
		CreatedAt: d.now(),
		UpdatedAt: d.now(),
	}
	d.organizations[org.ID] = org
	acct := &account{
		User: domain.User{
			ID:                    newID(),
			Email:                 email,
			FullName:              fullName,
			CurrentOrganizationID: org.ID,
		},
		Password: password,
	}
	d.users[acct.ID] = acct
	d.memberships[acct.ID] = map[string]string{org.ID: "admin"}
	return acct.ID
}

func (d *Dataset) accountByEmail(email string) (*account, bool) {
	for _, a := range d.users {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return nil, false
}

func (d *Dataset) role(userID, orgID string) string {
	if m, ok := d.memberships[userID]; ok {
		return m[orgID]
	}
	return ""
}

func (d *Dataset) nextAgreementNumber() string {
	return fmt.Sprintf("AGR-%04d", len(d.agreements)+1)
}

// agreementTransitions is the legal status graph. Any edge not listed
// is rejected with a conflict.
var agreementTransitions = map[string][]string{
	domain.AgreementDraft:      {domain.AgreementInReview},
	domain.AgreementInReview:   {domain.AgreementApproved, domain.AgreementRejected, domain.AgreementNegotiated},
	domain.AgreementNegotiated: {domain.AgreementInReview, domain.AgreementApproved, domain.AgreementRejected},
	domain.AgreementApproved:   {domain.AgreementExecuted, domain.AgreementExpired},
	domain.AgreementRejected:   {domain.AgreementDraft},
	domain.AgreementExecuted:   {domain.AgreementExpired},
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range agreementTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (d *Dataset) sortedAgreements(orgID string) []*domain.Agreement {
	out := make([]*domain.Agreement, 0, len(d.agreements))
	for _, a := range d.agreements {
		if a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func (d *Dataset) recordActivity(negotiationID, activityType, description, userID string) {
	d.activity[negotiationID] = append(d.activity[negotiationID], domain.Activity{
		ID:            newID(),
		NegotiationID: negotiationID,
		ActivityType:  activityType,
		Description:   description,
		UserID:        userID,
		CreatedAt:     d.now(),
	})
}

func (d *Dataset) touchNegotiation(n *domain.Negotiation) {
	n.LastActivityAt = d.now()
	n.UpdatedAt = d.now()
	n.Version++
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
