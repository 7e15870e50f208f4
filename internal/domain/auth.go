package domain

type SignUpRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	OrganizationName string `json:"organization_name,omitempty"`
}

type SignUpResult struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthTokens is the signin response. Only id and email come back for
// the user; the full profile is fetched after signin.
type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

type AcceptInvitationRequest struct {
	Token    string `json:"token"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password,omitempty"`
}

// OrganizationContext is the switch/current response: the organization
// plus the caller's role in it.
type OrganizationContext struct {
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
	Message      string       `json:"message,omitempty"`
}

type UserWithOrganizations struct {
	ID                    string             `json:"id"`
	Email                 string             `json:"email"`
	FullName              string             `json:"full_name"`
	Organizations         []OrganizationRole `json:"organizations"`
	CurrentOrganizationID string             `json:"current_organization_id,omitempty"`
}
