package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactline/internal/domain"
)

type fakeSession struct {
	token       string
	invalidated int
}

func (s *fakeSession) Token() string { return s.token }
func (s *fakeSession) Invalidate()   { s.invalidated++ }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeSession) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sess := &fakeSession{token: "test-token"}
	return New(srv.URL, sess, zerolog.Nop()), sess
}

func TestBearerAndRequestIDHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`{}`))
	})
	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/api/v1/agreements/a1", nil, &out))
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestNoAuthHeaderWhenSignedOut(t *testing.T) {
	var gotAuth string
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})
	sess.token = ""
	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/api/v1/agreements", nil, &out))
	assert.Empty(t, gotAuth)
}

func TestErrorNormalizationPrefersDetail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Agreement not found","message":"ignored"}`))
	})
	_, err := c.Agreements.Get(context.Background(), "missing")
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Agreement not found", ae.Detail)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)
	assert.True(t, IsNotFound(err))
}

func TestErrorNormalizationFallsBackToMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"number taken"}`))
	})
	_, err := c.Agreements.Create(context.Background(), domain.AgreementCreate{Title: "t"})
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "number taken", ae.Detail)
	assert.Equal(t, http.StatusConflict, ae.StatusCode)
}

func TestErrorNormalizationGenericBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	})
	err := c.Get(context.Background(), "/api/v1/agreements", nil, nil)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "An error occurred", ae.Detail)
	assert.Equal(t, http.StatusBadGateway, ae.StatusCode)
}

func TestConnectivityFailure(t *testing.T) {
	sess := &fakeSession{token: "t"}
	c := New("http://127.0.0.1:1", sess, zerolog.Nop())
	err := c.Get(context.Background(), "/api/v1/agreements", nil, nil)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, ae.StatusCode)
	assert.Equal(t, ErrConnectivity, ae.Detail)
	assert.True(t, IsConnectivity(err))
	assert.Zero(t, sess.invalidated, "connectivity failures must not tear down the session")
}

func TestUnauthorizedTearsDownSessionOnce(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})
	_, err := c.Agreements.Get(context.Background(), "a1")
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
	assert.Equal(t, 1, sess.invalidated)
}

func TestOtherErrorsDoNotTearDown(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"forbidden"}`))
	})
	_ = c.Get(context.Background(), "/api/v1/organizations/current", nil, nil)
	assert.Zero(t, sess.invalidated)
}

func TestUploadSendsMultipartFileField(t *testing.T) {
	var fileName, content string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		var buf bytes.Buffer
		buf.ReadFrom(f)
		fileName = fh.Filename
		content = buf.String()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"d1","file_name":"contract.pdf"}`))
	})
	doc, err := c.Documents.Upload(context.Background(), "a1", "contract.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", fileName)
	assert.Equal(t, "pdf-bytes", content)
	assert.Equal(t, "d1", doc.ID)
}

func TestDownloadUsesContentDisposition(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="signed.pdf"`)
		w.Write([]byte("payload"))
	})
	var buf bytes.Buffer
	name, err := c.Documents.Download(context.Background(), "d1", "fallback.pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, "signed.pdf", name)
	assert.Equal(t, "payload", buf.String())
}

func TestDownloadFallbackName(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	})
	var buf bytes.Buffer
	name, err := c.Documents.Download(context.Background(), "d1", "fallback.pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, "fallback.pdf", name)
}

func TestListDecodesBareArray(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"n1","negotiation_id":"n1","title":"T","status":"active"}]`))
	})
	items, err := c.Negotiations.List(context.Background(), domain.NegotiationFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].NegotiationID)
}

func TestListDecodesEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"a1","title":"T","status":"draft"}],"total":7,"page":2}`))
	})
	page, err := c.Agreements.List(context.Background(), domain.AgreementFilter{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 2, page.Page)
}

func TestContractsAliasHitsLegacyPath(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":[],"total":0}`))
	})
	_, err := c.Contracts.List(context.Background(), domain.AgreementFilter{})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/contracts", gotPath)
}
