// Package stub is an in-memory rendition of the agreements API, used
// by the CLI's `stub serve` command and by the integration tests. It
// speaks the same wire shapes as the real service, including the
// {detail,status_code} error envelope, but holds everything in memory.
package stub

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"pactline/internal/domain"
)

const basePath = "/api/v1"

type Config struct {
	JWTSecret string
	Data      *Dataset
}

// apiError models the service's error envelope.
type apiError struct {
	status     int
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Detail }

func newAPIError(status int, detail string) huma.StatusError {
	return &apiError{status: status, Detail: detail, StatusCode: status}
}

func badRequest(detail string) huma.StatusError { return newAPIError(http.StatusBadRequest, detail) }
func notFound(detail string) huma.StatusError   { return newAPIError(http.StatusNotFound, detail) }
func conflict(detail string) huma.StatusError   { return newAPIError(http.StatusConflict, detail) }
func unauthorized(detail string) huma.StatusError {
	return newAPIError(http.StatusUnauthorized, detail)
}
func forbidden(detail string) huma.StatusError { return newAPIError(http.StatusForbidden, detail) }

// New returns an HTTP handler exposing the stub API.
func New(cfg Config) (http.Handler, error) {
	data := cfg.Data
	if data == nil {
		data = NewDataset()
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the service envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.JWTSecret, data))
	hcfg := huma.DefaultConfig("Pactline Stub API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerAuth(group, cfg.JWTSecret, data)
	registerAgreements(group, data)
	registerDocuments(group, data)
	registerNegotiations(group, data)
	registerUsers(group, data)
	registerOrganizations(group, data)

	return router, nil
}

// page wraps list responses in the {data,total} envelope.
type page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func listBody[T any](items []T, total int) page[T] {
	if items == nil {
		items = []T{}
	}
	return page[T]{Data: items, Total: total}
}

type messageBody struct {
	Message string `json:"message"`
}

// caller resolves the authenticated account from the request context;
// every handler behind the middleware can rely on it being present.
func caller(ctx context.Context, d *Dataset) (*account, string, huma.StatusError) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return nil, "", unauthorized("Not authenticated")
	}
	acct, ok := d.users[p.UserID]
	if !ok {
		return nil, "", unauthorized("Not authenticated")
	}
	return acct, acct.CurrentOrganizationID, nil
}

func matchesSearch(a *domain.Agreement, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(a.Title), search) ||
		strings.Contains(strings.ToLower(a.AgreementNumber), search)
}
