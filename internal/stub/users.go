package stub

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"pactline/internal/domain"
)

func registerUsers(api huma.API, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID: "search-users",
		Method:      http.MethodGet,
		Path:        "/users/search",
		Summary:     "Search users by name or email",
	}, func(ctx context.Context, input *struct {
		Q              string `query:"q"`
		ExcludeCurrent bool   `query:"exclude_current"`
		Limit          int    `query:"limit"`
	}) (*struct {
		Body page[domain.UserListEntry]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		q := strings.ToLower(input.Q)
		var out []domain.UserListEntry
		for _, a := range d.users {
			if input.ExcludeCurrent && a.ID == acct.ID {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(a.FullName), q) &&
				!strings.Contains(strings.ToLower(a.Email), q) {
				continue
			}
			out = append(out, d.userEntry(a))
			if input.Limit > 0 && len(out) == input.Limit {
				break
			}
		}
		return &struct {
			Body page[domain.UserListEntry]
		}{Body: listBody(out, len(out))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, input *struct {
		Search         string `query:"search"`
		OrganizationID string `query:"organization_id"`
		Skip           int    `query:"skip"`
		Limit          int    `query:"limit"`
	}) (*struct {
		Body page[domain.UserListEntry]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if input.OrganizationID != "" {
			orgID = input.OrganizationID
		}
		search := strings.ToLower(input.Search)
		var out []domain.UserListEntry
		for _, a := range d.users {
			if d.role(a.ID, orgID) == "" {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(a.FullName), search) &&
				!strings.Contains(strings.ToLower(a.Email), search) {
				continue
			}
			out = append(out, d.userEntry(a))
		}
		total := len(out)
		return &struct {
			Body page[domain.UserListEntry]
		}{Body: listBody(paginate(out, input.Skip, input.Limit), total)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}",
		Summary:     "Get a user profile",
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body domain.UserListEntry
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, _, authErr := caller(ctx, d); authErr != nil {
			return nil, authErr
		}
		a, ok := d.users[input.UserID]
		if !ok {
			return nil, notFound("User not found")
		}
		return &struct {
			Body domain.UserListEntry
		}{Body: d.userEntry(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-invitation",
		Method:        http.MethodPost,
		Path:          "/users/invitations",
		Summary:       "Create an invitation",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body domain.InvitationCreate
	}) (*struct {
		Body domain.Invitation
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		inv, err := d.createInvitation(acct, orgID, input.Body)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body domain.Invitation
		}{Body: *inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invitations",
		Method:      http.MethodGet,
		Path:        "/users/invitations",
		Summary:     "List invitations",
	}, func(ctx context.Context, input *struct {
		Status       string `query:"status"`
		SentByMe     bool   `query:"sent_by_me"`
		ReceivedByMe bool   `query:"received_by_me"`
	}) (*struct {
		Body page[domain.Invitation]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.Invitation
		for _, inv := range d.invitations {
			if input.Status != "" && inv.Status != input.Status {
				continue
			}
			if input.SentByMe && inv.InvitedBy != acct.ID {
				continue
			}
			if input.ReceivedByMe && !strings.EqualFold(inv.Email, acct.Email) {
				continue
			}
			out = append(out, *inv)
		}
		return &struct {
			Body page[domain.Invitation]
		}{Body: listBody(out, len(out))}, nil
	})

	respond := func(opID, action string, handle func(*account, string) huma.StatusError) {
		huma.Register(api, huma.Operation{
			OperationID: opID,
			Method:      http.MethodPost,
			Path:        "/users/invitations/{token}/" + action,
			Summary:     "Respond to an invitation (" + action + ")",
		}, func(ctx context.Context, input *struct {
			Token string `path:"token"`
		}) (*struct {
			Body messageBody
		}, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			acct, _, authErr := caller(ctx, d)
			if authErr != nil {
				return nil, authErr
			}
			if err := handle(acct, input.Token); err != nil {
				return nil, err
			}
			return &struct {
				Body messageBody
			}{Body: messageBody{Message: "Invitation " + action + "ed"}}, nil
		})
	}
	respond("accept-invitation", "accept", d.acceptInvitation)
	respond("decline-invitation", "decline", func(acct *account, token string) huma.StatusError {
		inv := d.invitationByToken(token)
		if inv == nil {
			return notFound("Invitation not found")
		}
		if inv.Status != domain.InvitationPending {
			return conflict("Invitation already " + inv.Status)
		}
		inv.Status = domain.InvitationDeclined
		inv.RespondedAt = d.now()
		return nil
	})
}

func (d *Dataset) userEntry(a *account) domain.UserListEntry {
	var orgs []domain.UserMembership
	for id, role := range d.memberships[a.ID] {
		org := d.organizations[id]
		if org == nil {
			continue
		}
		orgs = append(orgs, domain.UserMembership{ID: id, Name: org.Name, Role: role})
	}
	return domain.UserListEntry{
		ID:            a.ID,
		Email:         a.Email,
		FullName:      a.FullName,
		Organizations: orgs,
	}
}
