package store

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactline/internal/api"
	"pactline/internal/domain"
	"pactline/internal/query"
	"pactline/internal/stub"
)

// memSession is an in-memory SessionState for tests; the real one is
// backed by SQLite.
type memSession struct {
	mu    sync.Mutex
	token string
	user  *domain.User
	org   *domain.OrganizationContext
}

func (s *memSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *memSession) Invalidate() {
	_ = s.Clear()
}

func (s *memSession) SignIn(token string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
	return nil
}

func (s *memSession) SetActiveOrganization(octx domain.OrganizationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = &octx
	return nil
}

func (s *memSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.org = nil
	return nil
}

// countingHandler records how often each method+path was hit, so tests
// can tell a cache hit from a refetch.
type countingHandler struct {
	inner http.Handler

	mu     sync.Mutex
	counts map[string]int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.counts == nil {
		h.counts = map[string]int{}
	}
	h.counts[r.Method+" "+r.URL.Path]++
	h.mu.Unlock()
	h.inner.ServeHTTP(w, r)
}

func (h *countingHandler) count(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[key]
}

func newTestStore(t *testing.T) (*Store, *countingHandler, *memSession) {
	t.Helper()
	handler, err := stub.New(stub.Config{JWTSecret: "test-secret", Data: stub.NewDataset()})
	require.NoError(t, err)
	counting := &countingHandler{inner: handler}
	srv := httptest.NewServer(counting)
	t.Cleanup(srv.Close)

	sess := &memSession{}
	client := api.New(srv.URL, sess, zerolog.Nop())
	return New(client, sess), counting, sess
}

func signedInStore(t *testing.T) (*Store, *countingHandler, *memSession) {
	t.Helper()
	s, counts, sess := newTestStore(t)
	ctx := context.Background()
	_, err := s.Auth.SignUp(ctx, domain.SignUpRequest{
		Email:            "ana@example.com",
		Password:         "secret-pass",
		FullName:         "Ana Doe",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)
	_, err = s.Auth.SignIn(ctx, domain.SignInRequest{Email: "ana@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token())
	return s, counts, sess
}

func TestAgreementListServedFromCache(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	_, err := s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	_, err = s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.count("GET /api/v1/agreements"), "second list must be a cache hit")

	// A different filter is a different slot.
	_, err = s.Agreements.List(ctx, domain.AgreementFilter{Status: "draft"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts.count("GET /api/v1/agreements"))
}

func TestAgreementCreateInvalidatesLists(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	page, err := s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	created, err := s.Agreements.Create(ctx, domain.AgreementCreate{Title: "Service Deal"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	page, err = s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "list must refetch after a create")
	assert.Equal(t, 2, counts.count("GET /api/v1/agreements"))
}

func TestAgreementCreateWritesThroughDetail(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	created, err := s.Agreements.Create(ctx, domain.AgreementCreate{Title: "Service Deal"})
	require.NoError(t, err)

	got, err := s.Agreements.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Zero(t, counts.count("GET /api/v1/agreements/"+created.ID),
		"detail must be served from the write-through entry")
}

func TestAgreementStatusWorkflow(t *testing.T) {
	s, _, _ := signedInStore(t)
	ctx := context.Background()

	created, err := s.Agreements.Create(ctx, domain.AgreementCreate{Title: "Service Deal"})
	require.NoError(t, err)
	assert.Equal(t, "draft", created.Status)

	review := "in_review"
	updated, err := s.Agreements.Update(ctx, created.ID, domain.AgreementUpdate{Status: &review})
	require.NoError(t, err)
	assert.Equal(t, "in_review", updated.Status)

	approved := "approved"
	updated, err = s.Agreements.Update(ctx, created.ID, domain.AgreementUpdate{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, "approved", updated.Status)

	draft := "draft"
	_, err = s.Agreements.Update(ctx, created.ID, domain.AgreementUpdate{Status: &draft})
	var ae *api.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusConflict, ae.StatusCode)
}

func TestAgreementDeleteRemovesFromList(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	created, err := s.Agreements.Create(ctx, domain.AgreementCreate{
		Title:           "Service Deal",
		AgreementNumber: "SD-1",
	})
	require.NoError(t, err)

	page, err := s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "SD-1", page.Items[0].AgreementNumber)

	require.NoError(t, s.Agreements.Delete(ctx, created.ID))

	page, err = s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "deleted agreement must drop out of the refetched list")
	assert.Equal(t, 2, counts.count("GET /api/v1/agreements"))

	// The detail slot is evicted too; the read goes to the network and
	// comes back not-found.
	_, err = s.Agreements.Get(ctx, created.ID)
	var ae *api.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)

	// Deleting again is a normalized 404, not a crash.
	err = s.Agreements.Delete(ctx, created.ID)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)
	assert.True(t, api.IsNotFound(err))
}

func TestGetWithEmptyIDIsSkipped(t *testing.T) {
	s, counts, _ := signedInStore(t)
	_, err := s.Agreements.Get(context.Background(), "")
	assert.ErrorIs(t, err, query.ErrSkipped)
	assert.Zero(t, counts.count("GET /api/v1/agreements/"))
}

func TestNegotiationRoundFlow(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	agr, err := s.Agreements.Create(ctx, domain.AgreementCreate{Title: "Service Deal"})
	require.NoError(t, err)
	neg, err := s.Negotiations.Create(ctx, domain.NegotiationCreate{AgreementID: agr.ID, Title: "Pricing"})
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationInitiated, neg.Status)

	detail, err := s.Negotiations.Get(ctx, neg.ID)
	require.NoError(t, err)
	assert.True(t, detail.CanEdit, "creator is the initiator")
	detailPath := "GET /api/v1/negotiations/" + neg.ID

	summaries, err := s.Negotiations.List(ctx, domain.NegotiationFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].ActiveParticipants, "creator is the only participant")

	round, err := s.Negotiations.CreateRound(ctx, neg.ID, domain.RoundCreate{
		Title:        "Initial terms",
		ProposalData: map[string]any{"price": 100},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoundDraft, round.Status)

	// Round mutations dirty the parent negotiation.
	detail, err = s.Negotiations.Get(ctx, neg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.TotalRounds)
	assert.Equal(t, 2, counts.count(detailPath))

	outcome, err := s.Negotiations.SubmitRound(ctx, neg.ID, round.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundSubmitted, outcome.Round.Status)

	outcome, err = s.Negotiations.RespondToRound(ctx, neg.ID, round.ID, domain.RoundAccepted, "works for us")
	require.NoError(t, err)
	assert.Equal(t, domain.RoundAccepted, outcome.Round.Status)

	detail, err = s.Negotiations.Get(ctx, neg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationCompleted, detail.Status)
}

func TestSearchShortQuerySkipped(t *testing.T) {
	s, counts, _ := signedInStore(t)
	_, err := s.Users.Search(context.Background(), "a", true, 10)
	assert.ErrorIs(t, err, query.ErrSkipped)
	assert.Zero(t, counts.count("GET /api/v1/users/search"))
}

func TestSearchCachedPerQuery(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	_, err := s.Users.Search(ctx, "ana", false, 10)
	require.NoError(t, err)
	_, err = s.Users.Search(ctx, "ana", false, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.count("GET /api/v1/users/search"))

	_, err = s.Users.Search(ctx, "bob", false, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.count("GET /api/v1/users/search"))
}

func TestTypeaheadCoalescesKeystrokes(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	tp := s.Users.NewTypeahead()
	defer tp.Close()

	var (
		mu      sync.Mutex
		results []domain.UserListEntry
		called  int
	)
	deliver := func(users []domain.UserListEntry, err error) {
		require.NoError(t, err)
		mu.Lock()
		results = users
		called++
		mu.Unlock()
	}

	// Simulated keystrokes; only the settled query reaches the API.
	tp.Search(ctx, "an", deliver)
	tp.Search(ctx, "ana", deliver)
	tp.Search(ctx, "ana ", deliver)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return called == 1
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	require.Len(t, results, 0, "exclude_current filters out the caller")
	mu.Unlock()
	assert.Equal(t, 1, counts.count("GET /api/v1/users/search"))
}

func TestTypeaheadShortQueryDeliversNothing(t *testing.T) {
	s, counts, _ := signedInStore(t)
	tp := s.Users.NewTypeahead()
	defer tp.Close()

	delivered := false
	tp.Search(context.Background(), "a", func(users []domain.UserListEntry, err error) {
		require.NoError(t, err)
		assert.Nil(t, users)
		delivered = true
	})
	assert.True(t, delivered, "short queries resolve synchronously")
	assert.Zero(t, counts.count("GET /api/v1/users/search"))
}

func TestSignOutClearsSessionAndCache(t *testing.T) {
	s, _, sess := signedInStore(t)
	ctx := context.Background()

	_, err := s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	require.NotZero(t, s.Cache().Len())

	require.NoError(t, s.Auth.SignOut())
	assert.Empty(t, sess.Token())
	assert.Zero(t, s.Cache().Len())
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	s, _, sess := signedInStore(t)
	sess.token = "tampered-token"

	_, err := s.Agreements.List(context.Background(), domain.AgreementFilter{})
	var ae *api.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
	assert.Empty(t, sess.Token(), "a 401 anywhere signs the session out")
}

func TestSwitchOrganizationPurgesCache(t *testing.T) {
	s, _, sess := signedInStore(t)
	ctx := context.Background()

	orgs, err := s.Auth.MyOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)

	_, err = s.Agreements.List(ctx, domain.AgreementFilter{})
	require.NoError(t, err)
	require.NotZero(t, s.Cache().Len())

	octx, err := s.Auth.SwitchOrganization(ctx, orgs[0].OrganizationID)
	require.NoError(t, err)
	assert.Equal(t, orgs[0].OrganizationID, octx.Organization.ID)
	assert.Zero(t, s.Cache().Len(), "organization scope change drops everything cached")
	require.NotNil(t, sess.org)
}

func TestDocumentRoundTrip(t *testing.T) {
	s, counts, _ := signedInStore(t)
	ctx := context.Background()

	agr, err := s.Agreements.Create(ctx, domain.AgreementCreate{Title: "Service Deal"})
	require.NoError(t, err)

	doc, err := s.Documents.Upload(ctx, agr.ID, "contract.pdf", bytes.NewReader([]byte("pdf-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", doc.FileName)

	docs, err := s.Documents.List(ctx, agr.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	var buf bytes.Buffer
	name, err := s.Documents.Download(ctx, doc.ID, "fallback.pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", name)
	assert.Equal(t, "pdf-bytes", buf.String())

	require.NoError(t, s.Documents.Delete(ctx, doc.ID))
	docs, err = s.Documents.List(ctx, agr.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 2, counts.count("GET /api/v1/agreements/"+agr.ID+"/documents"),
		"delete must invalidate the cached document list")
}
