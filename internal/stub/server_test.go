package stub

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactline/internal/domain"
)

const testSecret = "test-secret"

type testServer struct {
	t     *testing.T
	url   string
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	handler, err := New(Config{JWTSecret: testSecret, Data: NewDataset()})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{t: t, url: srv.URL}
}

// doJSON issues a request with the stored bearer token and decodes the
// response body into out when the pointer is non-nil.
func (s *testServer) doJSON(method, path string, body, out any) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.url+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if out != nil && len(data) > 0 {
		require.NoError(s.t, json.Unmarshal(data, out), "body: %s", data)
	}
	return resp.StatusCode
}

func (s *testServer) signup(email, password, fullName, orgName string) {
	s.t.Helper()
	status := s.doJSON(http.MethodPost, "/api/v1/auth/signup", domain.SignUpRequest{
		Email:            email,
		Password:         password,
		FullName:         fullName,
		OrganizationName: orgName,
	}, nil)
	require.Equal(s.t, http.StatusCreated, status)
}

func (s *testServer) signin(email, password string) domain.AuthTokens {
	s.t.Helper()
	var tokens domain.AuthTokens
	status := s.doJSON(http.MethodPost, "/api/v1/auth/signin", domain.SignInRequest{
		Email:    email,
		Password: password,
	}, &tokens)
	require.Equal(s.t, http.StatusOK, status)
	s.token = tokens.AccessToken
	return tokens
}

func TestSignupSigninRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.signup("ana@example.com", "secret-pass", "Ana Doe", "Acme")
	tokens := s.signin("ana@example.com", "secret-pass")
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "ana@example.com", tokens.User.Email)
	assert.NotEmpty(t, tokens.User.CurrentOrganizationID)
}

func TestSigninWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.signup("ana@example.com", "secret-pass", "Ana Doe", "Acme")
	var errBody struct {
		Detail     string `json:"detail"`
		StatusCode int    `json:"status_code"`
	}
	status := s.doJSON(http.MethodPost, "/api/v1/auth/signin", domain.SignInRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect email or password", errBody.Detail)
	assert.Equal(t, http.StatusUnauthorized, errBody.StatusCode)
}

func TestDuplicateSignupConflicts(t *testing.T) {
	s := newTestServer(t)
	s.signup("ana@example.com", "secret-pass", "Ana Doe", "Acme")
	status := s.doJSON(http.MethodPost, "/api/v1/auth/signup", domain.SignUpRequest{
		Email:    "ana@example.com",
		Password: "other",
		FullName: "Ana Again",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	s := newTestServer(t)
	var errBody struct {
		Detail     string `json:"detail"`
		StatusCode int    `json:"status_code"`
	}
	status := s.doJSON(http.MethodGet, "/api/v1/agreements", nil, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", errBody.Detail)
	assert.Equal(t, http.StatusUnauthorized, errBody.StatusCode)
}

func signedInServer(t *testing.T) *testServer {
	t.Helper()
	s := newTestServer(t)
	s.signup("ana@example.com", "secret-pass", "Ana Doe", "Acme")
	s.signin("ana@example.com", "secret-pass")
	return s
}

func TestAgreementCreateAndList(t *testing.T) {
	s := signedInServer(t)

	var created domain.Agreement
	status := s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{
		Title:           "Service Deal",
		AgreementNumber: "AGR-9001",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, "AGR-9001", created.AgreementNumber)
	assert.Equal(t, "USD", created.Currency)

	var listed struct {
		Data  []domain.Agreement `json:"data"`
		Total int                `json:"total"`
	}
	status = s.doJSON(http.MethodGet, "/api/v1/agreements", nil, &listed)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, listed.Total)
	assert.Equal(t, created.ID, listed.Data[0].ID)
}

func TestAgreementNumberIsGeneratedWhenOmitted(t *testing.T) {
	s := signedInServer(t)
	var created domain.Agreement
	status := s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "NDA"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Regexp(t, `^AGR-\d{4}$`, created.AgreementNumber)
}

func TestAgreementStatusTransitions(t *testing.T) {
	s := signedInServer(t)
	var created domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "Deal"}, &created))

	review := "in_review"
	var updated domain.Agreement
	status := s.doJSON(http.MethodPut, "/api/v1/agreements/"+created.ID, domain.AgreementUpdate{Status: &review}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "in_review", updated.Status)

	// draft -> executed skips the workflow and must be refused.
	executed := "executed"
	var errBody struct {
		Detail     string `json:"detail"`
		StatusCode int    `json:"status_code"`
	}
	status = s.doJSON(http.MethodPut, "/api/v1/agreements/"+created.ID, domain.AgreementUpdate{Status: &executed}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Cannot transition agreement from in_review to executed", errBody.Detail)
	assert.Equal(t, http.StatusConflict, errBody.StatusCode)
}

func TestContractsAliasServesAgreements(t *testing.T) {
	s := signedInServer(t)
	var created domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/contracts", domain.AgreementCreate{Title: "Legacy"}, &created))

	var got domain.AgreementDetail
	status := s.doJSON(http.MethodGet, "/api/v1/agreements/"+created.ID, nil, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Legacy", got.Title)
}

func TestDocumentUploadListDownload(t *testing.T) {
	s := signedInServer(t)
	var agr domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "Deal"}, &agr))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	part.Write([]byte("pdf-bytes"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.url+"/api/v1/agreements/"+agr.ID+"/documents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var doc domain.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "contract.pdf", doc.FileName)
	assert.Equal(t, int64(9), doc.FileSize)

	var listed struct {
		Data []domain.Document `json:"data"`
	}
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/agreements/"+agr.ID+"/documents", nil, &listed))
	require.Len(t, listed.Data, 1)

	dlReq, err := http.NewRequest(http.MethodGet, s.url+"/api/v1/agreements/documents/"+doc.ID+"/download", nil)
	require.NoError(t, err)
	dlReq.Header.Set("Authorization", "Bearer "+s.token)
	dlResp, err := http.DefaultClient.Do(dlReq)
	require.NoError(t, err)
	defer dlResp.Body.Close()
	require.Equal(t, http.StatusOK, dlResp.StatusCode)
	body, err := io.ReadAll(dlResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(body))
	assert.Contains(t, dlResp.Header.Get("Content-Disposition"), `filename="contract.pdf"`)
}

func TestNegotiationLifecycle(t *testing.T) {
	s := signedInServer(t)
	var agr domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "Deal"}, &agr))

	var neg domain.Negotiation
	status := s.doJSON(http.MethodPost, "/api/v1/negotiations", domain.NegotiationCreate{
		AgreementID: agr.ID,
		Title:       "Pricing",
	}, &neg)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, domain.NegotiationInitiated, neg.Status)

	var round domain.Round
	status = s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/rounds", domain.RoundCreate{
		Title:        "Initial terms",
		ProposalData: map[string]any{"price": 100},
	}, &round)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, round.RoundNumber)
	assert.Equal(t, domain.RoundDraft, round.Status)

	var outcome domain.RoundOutcome
	status = s.doJSON(http.MethodPut, "/api/v1/negotiations/"+neg.ID+"/rounds/"+round.ID+"/submit", nil, &outcome)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.RoundSubmitted, outcome.Round.Status)

	status = s.doJSON(http.MethodPut, "/api/v1/negotiations/"+neg.ID+"/rounds/"+round.ID+"/respond", map[string]any{
		"status":         domain.RoundAccepted,
		"response_notes": "works for us",
	}, &outcome)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.RoundAccepted, outcome.Round.Status)

	var detail domain.NegotiationDetail
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/negotiations/"+neg.ID, nil, &detail))
	assert.Equal(t, domain.NegotiationCompleted, detail.Status)
}

func TestRoundCreationSupersedesSubmitted(t *testing.T) {
	s := signedInServer(t)
	var agr domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "Deal"}, &agr))
	var neg domain.Negotiation
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/negotiations", domain.NegotiationCreate{AgreementID: agr.ID, Title: "Terms"}, &neg))

	var first domain.Round
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/rounds", domain.RoundCreate{Title: "v1"}, &first))
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodPut, "/api/v1/negotiations/"+neg.ID+"/rounds/"+first.ID+"/submit", nil, nil))

	var second domain.Round
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/rounds", domain.RoundCreate{Title: "v2"}, &second))
	assert.Equal(t, 2, second.RoundNumber)
	assert.Equal(t, first.ID, second.ParentRoundID)

	var rounds struct {
		Data []domain.Round `json:"data"`
	}
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/negotiations/"+neg.ID+"/rounds", nil, &rounds))
	require.Len(t, rounds.Data, 2)
	for _, r := range rounds.Data {
		if r.ID == first.ID {
			assert.Equal(t, domain.RoundSuperseded, r.Status)
		}
	}
}

func TestOnlyOneOpenDraftRound(t *testing.T) {
	s := signedInServer(t)
	var agr domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "Deal"}, &agr))
	var neg domain.Negotiation
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/negotiations", domain.NegotiationCreate{AgreementID: agr.ID, Title: "Terms"}, &neg))

	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/rounds", domain.RoundCreate{Title: "v1"}, nil))
	status := s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/rounds", domain.RoundCreate{Title: "v2"}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestPauseResumeAbandon(t *testing.T) {
	s := signedInServer(t)
	var agr domain.Agreement
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/agreements", domain.AgreementCreate{Title: "Deal"}, &agr))
	var neg domain.Negotiation
	require.Equal(t, http.StatusCreated, s.doJSON(http.MethodPost, "/api/v1/negotiations", domain.NegotiationCreate{AgreementID: agr.ID, Title: "Terms"}, &neg))

	// Joining counterparty activates the negotiation.
	s2 := &testServer{t: t, url: s.url}
	s2.signup("bob@example.com", "secret-pass", "Bob Roe", "Beta Corp")
	tokens := s2.signin("bob@example.com", "secret-pass")
	var p domain.Participant
	status := s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/participants", domain.ParticipantCreate{
		UserID: tokens.User.ID,
		Role:   domain.RoleCounterparty,
	}, &p)
	require.Equal(t, http.StatusCreated, status)

	var detail domain.NegotiationDetail
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/negotiations/"+neg.ID, nil, &detail))
	assert.Equal(t, domain.NegotiationActive, detail.Status)

	require.Equal(t, http.StatusOK, s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/pause", nil, nil))
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/negotiations/"+neg.ID, nil, &detail))
	assert.Equal(t, domain.NegotiationPaused, detail.Status)

	require.Equal(t, http.StatusOK, s.doJSON(http.MethodPost, "/api/v1/negotiations/"+neg.ID+"/resume", nil, nil))
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/negotiations/"+neg.ID, nil, &detail))
	assert.Equal(t, domain.NegotiationActive, detail.Status)

	require.Equal(t, http.StatusOK, s.doJSON(http.MethodDelete, "/api/v1/negotiations/"+neg.ID, map[string]string{"reason": "deal fell through"}, nil))
	require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1/negotiations/"+neg.ID, nil, &detail))
	assert.Equal(t, domain.NegotiationAbandoned, detail.Status)
}

func TestUserSearchScopedAndFiltered(t *testing.T) {
	s := signedInServer(t)
	var results struct {
		Data []domain.UserListEntry `json:"data"`
	}
	status := s.doJSON(http.MethodGet, "/api/v1/users/search?q=ana&exclude_current=true", nil, &results)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, results.Data, "the only matching user is the caller")

	status = s.doJSON(http.MethodGet, "/api/v1/users/search?q=ana", nil, &results)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, results.Data, 1)
	assert.Equal(t, "ana@example.com", results.Data[0].Email)
}

func TestInvitationAcceptGrantsMembership(t *testing.T) {
	s := signedInServer(t)
	var inv domain.Invitation
	status := s.doJSON(http.MethodPost, "/api/v1/auth/invitations", domain.InvitationCreate{
		Email: "bob@example.com",
		Role:  "user",
	}, &inv)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, inv.Token)
	assert.Equal(t, domain.InvitationPending, inv.Status)

	s2 := &testServer{t: t, url: s.url}
	s2.signup("bob@example.com", "secret-pass", "Bob Roe", "Beta Corp")
	s2.signin("bob@example.com", "secret-pass")
	status = s2.doJSON(http.MethodPost, "/api/v1/auth/invitations/accept", domain.AcceptInvitationRequest{Token: inv.Token}, nil)
	require.Equal(t, http.StatusOK, status)

	var orgs struct {
		Data []domain.OrganizationRole `json:"data"`
	}
	require.Equal(t, http.StatusOK, s2.doJSON(http.MethodGet, "/api/v1/auth/organizations", nil, &orgs))
	assert.Len(t, orgs.Data, 2)
}

func TestOrganizationSwitchRequiresMembership(t *testing.T) {
	s := signedInServer(t)
	var errBody struct {
		Detail string `json:"detail"`
	}
	status := s.doJSON(http.MethodPost, "/api/v1/auth/organizations/switch", map[string]string{
		"organization_id": "not-my-org",
	}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You are not a member of this organization", errBody.Detail)
}
