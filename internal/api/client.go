// Package api is the typed client for the CLM REST API: one transport
// wrapper owning auth-header injection and error normalization, and one
// thin service per resource mapping methods to endpoints one to one.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Session supplies the bearer token for outgoing requests and absorbs
// the global teardown triggered by a 401 anywhere.
type Session interface {
	// Token returns the current bearer token, or "" when signed out.
	Token() string
	// Invalidate clears the stored token and cached identity. Called at
	// most once per failing request, for any 401 regardless of endpoint.
	Invalidate()
}

// Client is the single point of outbound HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    Session
	Logger     zerolog.Logger

	Agreements    *AgreementsService
	Contracts     *ContractsService
	Documents     *DocumentsService
	Negotiations  *NegotiationsService
	Organizations *OrganizationsService
	Users         *UsersService
	Auth          *AuthService
}

// New creates a client with the default 30s timeout. The session may be
// nil for unauthenticated use (signup/signin).
func New(baseURL string, sess Session, logger zerolog.Logger) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Session:    sess,
		Logger:     logger,
	}
	c.Agreements = &AgreementsService{c: c}
	c.Contracts = &ContractsService{AgreementsService{c: c, base: contractsPath}}
	c.Documents = &DocumentsService{c: c}
	c.Negotiations = &NegotiationsService{c: c}
	c.Organizations = &OrganizationsService{c: c}
	c.Users = &UsersService{c: c}
	c.Auth = &AuthService{c: c}
	return c
}

// Get issues a GET with optional query parameters and decodes into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, "", out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, "", out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, "", out)
}

// Delete issues a DELETE; body may be nil (the abandon endpoint sends a
// reason body with DELETE).
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, body, "", out)
}

// Upload posts a single file as multipart form data under the "file"
// field and decodes the JSON response into out.
func (c *Client) Upload(ctx context.Context, path, fileName string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return normalizeTransport(err, true)
	}
	if _, err := io.Copy(part, r); err != nil {
		return normalizeTransport(err, true)
	}
	if err := mw.Close(); err != nil {
		return normalizeTransport(err, true)
	}
	return c.do(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), out)
}

// Download streams a GET response body into w and returns the filename
// suggested by the Content-Disposition header, falling back to fallback.
func (c *Client) Download(ctx context.Context, path, fallback string, w io.Writer) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return "", normalizeTransport(err, true)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", normalizeTransport(err, false)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		c.teardown()
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", normalizeResponse(resp.StatusCode, body)
	}
	name := fallback
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	if name == "" {
		name = "download"
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", normalizeTransport(err, true)
	}
	return name, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, contentType string, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return normalizeTransport(err, true)
	}
	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.Logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return normalizeTransport(err, false)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return normalizeTransport(err, true)
	}
	c.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", req.Header.Get("X-Request-Id")).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")
	if c.Logger.GetLevel() <= zerolog.TraceLevel {
		c.Logger.Trace().Str("path", path).RawJSON("response", normalizeJSON(data)).Msg("response payload")
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Trust revocation is global, not scoped to this call.
		c.teardown()
	}
	if resp.StatusCode >= 300 {
		return normalizeResponse(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return normalizeTransport(fmt.Errorf("decode response: %w", err), true)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any, contentType string) (*http.Request, error) {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case *bytes.Buffer:
		reader = b
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			return nil, err
		}
		reader = &buf
		if contentType == "" {
			contentType = "application/json"
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.Session != nil {
		if token := c.Session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return c.HTTPClient
}

func (c *Client) teardown() {
	if c.Session != nil {
		c.Session.Invalidate()
	}
}

// normalizeJSON keeps trace logging valid when the body is not JSON.
func normalizeJSON(data []byte) []byte {
	if json.Valid(data) {
		return data
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}
