package domain

// Agreement statuses. Transitions are enforced by the API; the client
// only displays them and issues transition requests.
const (
	AgreementDraft      = "draft"
	AgreementInReview   = "in_review"
	AgreementApproved   = "approved"
	AgreementRejected   = "rejected"
	AgreementNegotiated = "negotiated"
	AgreementExecuted   = "executed"
	AgreementExpired    = "expired"
)

type Agreement struct {
	ID              string         `json:"id"`
	OrganizationID  string         `json:"organization_id"`
	Title           string         `json:"title"`
	AgreementNumber string         `json:"agreement_number"`
	AgreementType   string         `json:"agreement_type,omitempty"`
	Status          string         `json:"status" enum:"draft,in_review,approved,rejected,negotiated,executed,expired"`
	Value           *float64       `json:"value,omitempty"`
	Currency        string         `json:"currency"`
	EffectiveDate   string         `json:"effective_date,omitempty" format:"date"`
	ExpirationDate  string         `json:"expiration_date,omitempty" format:"date"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedBy       string         `json:"created_by,omitempty"`
	CreatedAt       string         `json:"created_at" format:"date-time"`
	UpdatedAt       string         `json:"updated_at" format:"date-time"`
}

type AgreementCreate struct {
	Title           string         `json:"title"`
	AgreementNumber string         `json:"agreement_number"`
	AgreementType   string         `json:"agreement_type,omitempty"`
	EffectiveDate   string         `json:"effective_date,omitempty"`
	ExpirationDate  string         `json:"expiration_date,omitempty"`
	Value           *float64       `json:"value,omitempty"`
	Currency        string         `json:"currency,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type AgreementUpdate struct {
	Title          *string        `json:"title,omitempty"`
	Status         *string        `json:"status,omitempty" enum:"draft,in_review,approved,rejected,negotiated,executed,expired"`
	EffectiveDate  *string        `json:"effective_date,omitempty"`
	ExpirationDate *string        `json:"expiration_date,omitempty"`
	Value          *float64       `json:"value,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// AgreementDetail is the detail-view projection, which may carry the
// agreement's approval workflows alongside the base fields.
type AgreementDetail struct {
	Agreement
	Workflows      []Workflow      `json:"workflows,omitempty"`
	ApprovalStatus *ApprovalStatus `json:"approval_status,omitempty"`
}

type AgreementFilter struct {
	Status    string `json:"status,omitempty"`
	Search    string `json:"search,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type Workflow struct {
	ID          string `json:"id"`
	AgreementID string `json:"agreement_id"`
	Status      string `json:"status" enum:"pending,approved,rejected"`
	ApproverID  string `json:"approver_id"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
	UpdatedAt   string `json:"updated_at" format:"date-time"`
	ApprovedAt  string `json:"approved_at,omitempty" format:"date-time"`
}

type ApprovalStatus struct {
	TotalApprovers int    `json:"total_approvers"`
	ApprovedCount  int    `json:"approved_count"`
	RejectedCount  int    `json:"rejected_count"`
	PendingCount   int    `json:"pending_count"`
	OverallStatus  string `json:"overall_status" enum:"pending,approved,rejected"`
}

type Document struct {
	ID          string `json:"id"`
	AgreementID string `json:"agreement_id"`
	FileName    string `json:"file_name"`
	FilePath    string `json:"file_path,omitempty"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
	UploadedBy  string `json:"uploaded_by"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type DocumentDownload struct {
	DownloadURL string `json:"download_url"`
	FileName    string `json:"file_name"`
	ExpiresIn   int    `json:"expires_in"`
}

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type OrganizationRole struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Role             string `json:"role" enum:"admin,user,viewer"`
	IsActive         bool   `json:"is_active"`
}

type OrganizationStats struct {
	TotalAgreements  int `json:"total_agreements"`
	ActiveAgreements int `json:"active_agreements"`
	TotalUsers       int `json:"total_users"`
	TotalDocuments   int `json:"total_documents"`
	PendingApprovals int `json:"pending_approvals"`
}

type User struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	FullName              string `json:"full_name"`
	CurrentOrganizationID string `json:"current_organization_id,omitempty"`
}

type UserMembership struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Role        string          `json:"role,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

type UserListEntry struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	FullName      string           `json:"full_name"`
	Organizations []UserMembership `json:"organizations,omitempty"`
	CreatedAt     string           `json:"created_at" format:"date-time"`
}

type UserFilter struct {
	Search         string `json:"search,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	Skip           int    `json:"skip,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// Invitation statuses are terminal once left pending; invitations are
// never deleted.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
)

type Invitation struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	InvitedBy      string          `json:"invited_by"`
	OrganizationID string          `json:"organization_id,omitempty"`
	AgreementID    string          `json:"agreement_id,omitempty"`
	Role           string          `json:"role"`
	Permissions    map[string]bool `json:"permissions,omitempty"`
	Message        string          `json:"message,omitempty"`
	Token          string          `json:"token"`
	Status         string          `json:"status" enum:"pending,accepted,declined,expired"`
	ExpiresAt      string          `json:"expires_at,omitempty" format:"date-time"`
	RespondedAt    string          `json:"responded_at,omitempty" format:"date-time"`
	CreatedAt      string          `json:"created_at" format:"date-time"`
	InviterName    string          `json:"inviter_name,omitempty"`
	InviterEmail   string          `json:"inviter_email,omitempty"`
}

type InvitationCreate struct {
	Email          string          `json:"email"`
	OrganizationID string          `json:"organization_id,omitempty"`
	AgreementID    string          `json:"agreement_id,omitempty"`
	Role           string          `json:"role,omitempty"`
	Permissions    map[string]bool `json:"permissions,omitempty"`
	Message        string          `json:"message,omitempty"`
}

type InvitationFilter struct {
	Status       string `json:"status,omitempty"`
	SentByMe     bool   `json:"sent_by_me,omitempty"`
	ReceivedByMe bool   `json:"received_by_me,omitempty"`
}
