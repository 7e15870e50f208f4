package stub

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"pactline/internal/domain"
)

func registerOrganizations(api huma.API, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID: "current-organization",
		Method:      http.MethodGet,
		Path:        "/organizations/current",
		Summary:     "Current organization",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.Organization
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		org := d.organizations[orgID]
		if org == nil {
			return nil, notFound("Organization not found")
		}
		return &struct {
			Body domain.Organization
		}{Body: *org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-organization",
		Method:      http.MethodPut,
		Path:        "/organizations/current",
		Summary:     "Rename the current organization",
	}, func(ctx context.Context, input *struct {
		Body struct {
			Name string `json:"name"`
		}
	}) (*struct {
		Body domain.Organization
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if d.role(acct.ID, orgID) != "admin" {
			return nil, forbidden("Only admins can update the organization")
		}
		if input.Body.Name == "" {
			return nil, badRequest("name is required")
		}
		org := d.organizations[orgID]
		if org == nil {
			return nil, notFound("Organization not found")
		}
		org.Name = input.Body.Name
		org.UpdatedAt = d.now()
		return &struct {
			Body domain.Organization
		}{Body: *org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "organization-stats",
		Method:      http.MethodGet,
		Path:        "/organizations/current/stats",
		Summary:     "Organization dashboard stats",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.OrganizationStats
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var stats domain.OrganizationStats
		for _, a := range d.agreements {
			if a.OrganizationID != orgID {
				continue
			}
			stats.TotalAgreements++
			switch a.Status {
			case domain.AgreementApproved, domain.AgreementExecuted:
				stats.ActiveAgreements++
			case domain.AgreementInReview:
				stats.PendingApprovals++
			}
			for _, doc := range d.documents {
				if doc.AgreementID == a.ID {
					stats.TotalDocuments++
				}
			}
		}
		for userID := range d.users {
			if d.role(userID, orgID) != "" {
				stats.TotalUsers++
			}
		}
		return &struct {
			Body domain.OrganizationStats
		}{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-organization",
		Method:        http.MethodPost,
		Path:          "/organizations/create",
		Summary:       "Create an organization",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body struct {
			Name string `json:"name"`
		}
	}) (*struct {
		Body domain.Organization
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Name == "" {
			return nil, badRequest("name is required")
		}
		org := &domain.Organization{
			ID:        newID(),
			Name:      input.Body.Name,
			CreatedAt: d.now(),
			UpdatedAt: d.now(),
		}
		d.organizations[org.ID] = org
		if d.memberships[acct.ID] == nil {
			d.memberships[acct.ID] = map[string]string{}
		}
		d.memberships[acct.ID][org.ID] = "admin"
		return &struct {
			Body domain.Organization
		}{Body: *org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-organization",
		Method:      http.MethodDelete,
		Path:        "/organizations/current",
		Summary:     "Delete the current organization",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if d.role(acct.ID, orgID) != "admin" {
			return nil, forbidden("Only admins can delete the organization")
		}
		delete(d.organizations, orgID)
		for _, m := range d.memberships {
			delete(m, orgID)
		}
		for id, a := range d.agreements {
			if a.OrganizationID == orgID {
				delete(d.agreements, id)
			}
		}
		acct.CurrentOrganizationID = ""
		for id := range d.memberships[acct.ID] {
			acct.CurrentOrganizationID = id
			break
		}
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "Organization deleted"}}, nil
	})
}
