package stub

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"pactline/internal/domain"
)

type Principal struct {
	UserID string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func issueToken(secret, userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func authenticate(token, secret string) (Principal, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return Principal{}, jwt.ErrTokenUnverifiable
	}
	return Principal{UserID: claims.Subject}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// open paths that never require a token.
func openPath(p string) bool {
	switch p {
	case basePath + "/auth/signin", basePath + "/auth/signup":
		return true
	}
	return !strings.HasPrefix(p, basePath)
}

func newAuthMiddleware(secret string, d *Dataset) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if openPath(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}
			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			token, ok := bearerToken(authz)
			if !ok {
				respondStatusError(w, unauthorized("Not authenticated"))
				return
			}
			principal, err := authenticate(token, secret)
			if err != nil {
				respondStatusError(w, unauthorized("Could not validate credentials"))
				return
			}
			d.mu.Lock()
			_, known := d.users[principal.UserID]
			d.mu.Unlock()
			if !known {
				respondStatusError(w, unauthorized("Could not validate credentials"))
				return
			}
			next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}

func registerAuth(api huma.API, secret string, d *Dataset) {
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/auth/signup",
		Summary:       "Create an account",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body domain.SignUpRequest
	}) (*struct {
		Body domain.SignUpResult
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if input.Body.Email == "" || input.Body.Password == "" {
			return nil, badRequest("email and password are required")
		}
		if _, exists := d.accountByEmail(input.Body.Email); exists {
			return nil, conflict("Email already registered")
		}
		org := &domain.Organization{
			ID:        newID(),
			Name:      input.Body.OrganizationName,
			CreatedAt: d.now(),
			UpdatedAt: d.now(),
		}
		if org.Name == "" {
			org.Name = input.Body.FullName
		}
		d.organizations[org.ID] = org
		acct := &account{
			User: domain.User{
				ID:                    newID(),
				Email:                 input.Body.Email,
				FullName:              input.Body.FullName,
				CurrentOrganizationID: org.ID,
			},
			Password: input.Body.Password,
		}
		d.users[acct.ID] = acct
		d.memberships[acct.ID] = map[string]string{org.ID: "admin"}
		return &struct {
			Body domain.SignUpResult
		}{Body: domain.SignUpResult{UserID: acct.ID, OrganizationID: org.ID}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "signin",
		Method:      http.MethodPost,
		Path:        "/auth/signin",
		Summary:     "Exchange credentials for a bearer token",
	}, func(ctx context.Context, input *struct {
		Body domain.SignInRequest
	}) (*struct {
		Body domain.AuthTokens
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, ok := d.accountByEmail(input.Body.Email)
		if !ok || acct.Password != input.Body.Password {
			return nil, unauthorized("Incorrect email or password")
		}
		token, err := issueToken(secret, acct.ID, d.Now())
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "could not issue token")
		}
		return &struct {
			Body domain.AuthTokens
		}{Body: domain.AuthTokens{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   3600,
			User:        acct.User,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "switch-organization",
		Method:      http.MethodPost,
		Path:        "/auth/organizations/switch",
		Summary:     "Switch the caller's active organization",
	}, func(ctx context.Context, input *struct {
		Body struct {
			OrganizationID string `json:"organization_id"`
		}
	}) (*struct {
		Body domain.OrganizationContext
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		role := d.role(acct.ID, input.Body.OrganizationID)
		if role == "" {
			return nil, forbidden("You are not a member of this organization")
		}
		org := d.organizations[input.Body.OrganizationID]
		if org == nil {
			return nil, notFound("Organization not found")
		}
		acct.CurrentOrganizationID = org.ID
		return &struct {
			Body domain.OrganizationContext
		}{Body: domain.OrganizationContext{
			Organization: *org,
			Role:         role,
			Message:      "Switched to " + org.Name,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "current-organization-context",
		Method:      http.MethodGet,
		Path:        "/auth/organizations/current",
		Summary:     "Current organization context",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.OrganizationContext
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		org := d.organizations[orgID]
		if org == nil {
			return nil, notFound("Organization not found")
		}
		return &struct {
			Body domain.OrganizationContext
		}{Body: domain.OrganizationContext{
			Organization: *org,
			Role:         d.role(acct.ID, orgID),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "my-organizations",
		Method:      http.MethodGet,
		Path:        "/auth/organizations",
		Summary:     "Organizations the caller belongs to",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body page[domain.OrganizationRole]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.OrganizationRole
		for id, role := range d.memberships[acct.ID] {
			org := d.organizations[id]
			if org == nil {
				continue
			}
			out = append(out, domain.OrganizationRole{
				OrganizationID:   id,
				OrganizationName: org.Name,
				Role:             role,
				IsActive:         id == orgID,
			})
		}
		return &struct {
			Body page[domain.OrganizationRole]
		}{Body: listBody(out, len(out))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "auth-organization-users",
		Method:      http.MethodGet,
		Path:        "/auth/users",
		Summary:     "Members of the caller's organization",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body page[domain.UserWithOrganizations]
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		var out []domain.UserWithOrganizations
		for _, a := range d.users {
			role := d.role(a.ID, orgID)
			if role == "" {
				continue
			}
			out = append(out, domain.UserWithOrganizations{
				ID:       a.ID,
				Email:    a.Email,
				FullName: a.FullName,
				Organizations: []domain.OrganizationRole{{
					OrganizationID:   orgID,
					OrganizationName: d.organizations[orgID].Name,
					Role:             role,
					IsActive:         a.CurrentOrganizationID == orgID,
				}},
				CurrentOrganizationID: a.CurrentOrganizationID,
			})
		}
		return &struct {
			Body page[domain.UserWithOrganizations]
		}{Body: listBody(out, len(out))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "auth-remove-user",
		Method:      http.MethodDelete,
		Path:        "/auth/users/{user_id}",
		Summary:     "Remove a member from the caller's organization",
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if d.role(acct.ID, orgID) != "admin" {
			return nil, forbidden("Only admins can remove members")
		}
		if input.UserID == acct.ID {
			return nil, badRequest("You cannot remove yourself")
		}
		m, ok := d.memberships[input.UserID]
		if !ok || m[orgID] == "" {
			return nil, notFound("User not found in organization")
		}
		delete(m, orgID)
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "User removed"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "auth-update-user-role",
		Method:      http.MethodPut,
		Path:        "/auth/users/{user_id}/role",
		Summary:     "Change a member's role",
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
		Body   struct {
			Role string `json:"role" enum:"admin,user,viewer"`
		}
	}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, orgID, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if d.role(acct.ID, orgID) != "admin" {
			return nil, forbidden("Only admins can change roles")
		}
		m, ok := d.memberships[input.UserID]
		if !ok || m[orgID] == "" {
			return nil, notFound("User not found in organization")
		}
		m[orgID] = input.Body.Role
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "Role updated"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "auth-create-invitation",
		Method:        http.MethodPost,
		Path:          "/auth/invitations",
		Summary:       "Invite someone to the caller's organization",
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
		OperationID: "auth-accept-invitation",
		Method:      http.MethodPost,
		Path:        "/auth/invitations/accept",
		Summary:     "Accept an invitation by token",
	}, func(ctx context.Context, input *struct {
		Body domain.AcceptInvitationRequest
	}) (*struct {
		Body messageBody
	}, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		acct, _, authErr := caller(ctx, d)
		if authErr != nil {
			return nil, authErr
		}
		if err := d.acceptInvitation(acct, input.Body.Token); err != nil {
			return nil, err
		}
		return &struct {
			Body messageBody
		}{Body: messageBody{Message: "Invitation accepted"}}, nil
	})
}

// createInvitation and acceptInvitation back both the /auth and /users
// invitation routes.
func (d *Dataset) createInvitation(acct *account, orgID string, in domain.InvitationCreate) (*domain.Invitation, huma.StatusError) {
	if in.Email == "" {
		return nil, badRequest("email is required")
	}
	if in.OrganizationID != "" {
		orgID = in.OrganizationID
	}
	role := in.Role
	if role == "" {
		role = "user"
	}
	inv := &domain.Invitation{
		ID:             newID(),
		Email:          in.Email,
		InvitedBy:      acct.ID,
		OrganizationID: orgID,
		AgreementID:    in.AgreementID,
		Role:           role,
		Permissions:    in.Permissions,
		Message:        in.Message,
		Token:          newID(),
		Status:         domain.InvitationPending,
		ExpiresAt:      d.Now().UTC().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		CreatedAt:      d.now(),
		InviterName:    acct.FullName,
		InviterEmail:   acct.Email,
	}
	d.invitations[inv.ID] = inv
	return inv, nil
}

func (d *Dataset) acceptInvitation(acct *account, token string) huma.StatusError {
	inv := d.invitationByToken(token)
	if inv == nil {
		return notFound("Invitation not found")
	}
	if inv.Status != domain.InvitationPending {
		return conflict("Invitation already " + inv.Status)
	}
	inv.Status = domain.InvitationAccepted
	inv.RespondedAt = d.now()
	if inv.OrganizationID != "" {
		if d.memberships[acct.ID] == nil {
			d.memberships[acct.ID] = map[string]string{}
		}
		d.memberships[acct.ID][inv.OrganizationID] = inv.Role
	}
	return nil
}

func (d *Dataset) invitationByToken(token string) *domain.Invitation {
	for _, inv := range d.invitations {
		if inv.Token == token {
			return inv
		}
	}
	return nil
}
