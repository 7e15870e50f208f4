package domain

const (
	NegotiationInitiated = "initiated"
	NegotiationActive    = "active"
	NegotiationPaused    = "paused"
	NegotiationCompleted = "completed"
	NegotiationAbandoned = "abandoned"
	NegotiationExpired   = "expired"
)

const (
	RoundDraft       = "draft"
	RoundSubmitted   = "submitted"
	RoundUnderReview = "under_review"
	RoundAccepted    = "accepted"
	RoundRejected    = "rejected"
	RoundSuperseded  = "superseded"
)

const (
	RoleInitiator    = "initiator"
	RoleCounterparty = "counterparty"
	RoleObserver     = "observer"
	RoleLegalCounsel = "legal_counsel"
	RoleDelegate     = "delegate"
)

type Negotiation struct {
	ID             string         `json:"id"`
	AgreementID    string         `json:"agreement_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Deadline       string         `json:"deadline,omitempty" format:"date-time"`
	Settings       map[string]any `json:"settings,omitempty"`
	Status         string         `json:"status" enum:"initiated,active,paused,completed,abandoned,expired"`
	CreatedBy      string         `json:"created_by"`
	CurrentRound   int            `json:"current_round,omitempty"`
	TotalRounds    int            `json:"total_rounds,omitempty"`
	Version        int            `json:"version"`
	LastActivityAt string         `json:"last_activity_at,omitempty" format:"date-time"`
	CreatedAt      string         `json:"created_at" format:"date-time"`
	UpdatedAt      string         `json:"updated_at" format:"date-time"`
}

// ParticipantPermissions mirrors the server's per-participant flags.
// Absent flags default server-side by role.
type ParticipantPermissions struct {
	CanPropose          *bool `json:"can_propose,omitempty"`
	CanComment          *bool `json:"can_comment,omitempty"`
	CanInviteOthers     *bool `json:"can_invite_others,omitempty"`
	CanViewPrivateNotes *bool `json:"can_view_private_notes,omitempty"`
	CanEndNegotiation   *bool `json:"can_end_negotiation,omitempty"`
}

type ParticipantCreate struct {
	UserID         string                  `json:"user_id"`
	Role           string                  `json:"role" enum:"initiator,counterparty,observer,legal_counsel,delegate"`
	OrganizationID string                  `json:"organization_id,omitempty"`
	Permissions    *ParticipantPermissions `json:"permissions,omitempty"`
}

type Participant struct {
	ID               string          `json:"id"`
	NegotiationID    string          `json:"negotiation_id"`
	UserID           string          `json:"user_id"`
	Role             string          `json:"role" enum:"initiator,counterparty,observer,legal_counsel,delegate"`
	OrganizationID   string          `json:"organization_id,omitempty"`
	Permissions      map[string]bool `json:"permissions,omitempty"`
	IsActive         bool            `json:"is_active"`
	InvitedBy        string          `json:"invited_by,omitempty"`
	JoinedAt         string          `json:"joined_at,omitempty" format:"date-time"`
	CreatedAt        string          `json:"created_at" format:"date-time"`
	UserName         string          `json:"user_name,omitempty"`
	UserEmail        string          `json:"user_email,omitempty"`
	OrganizationName string          `json:"organization_name,omitempty"`
}

type NegotiationCreate struct {
	AgreementID  string              `json:"agreement_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Deadline     string              `json:"deadline,omitempty"`
	Settings     map[string]any      `json:"settings,omitempty"`
	Participants []ParticipantCreate `json:"participants,omitempty"`
}

type NegotiationUpdate struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Deadline    *string        `json:"deadline,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// NegotiationSummary is the list-view projection.
type NegotiationSummary struct {
	NegotiationID      string `json:"negotiation_id"`
	Title              string `json:"title"`
	Status             string `json:"status"`
	TotalRounds        int    `json:"total_rounds"`
	ActiveParticipants int    `json:"active_participants"`
	LastActivity       string `json:"last_activity,omitempty" format:"date-time"`
	DaysActive         int    `json:"days_active"`
	CreatedAt          string `json:"created_at" format:"date-time"`
}

// NegotiationDetail joins the negotiation with its participants and the
// caller's standing in it.
type NegotiationDetail struct {
	Negotiation
	Participants    []Participant `json:"participants"`
	CurrentUserRole string        `json:"current_user_role,omitempty"`
	CanEdit         bool          `json:"can_edit"`
	CanRespond      bool          `json:"can_respond"`
}

type NegotiationFilter struct {
	Skip        int    `json:"skip,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Status      string `json:"status,omitempty"`
	AgreementID string `json:"agreement_id,omitempty"`
}

type Round struct {
	ID             string         `json:"id"`
	NegotiationID  string         `json:"negotiation_id"`
	RoundNumber    int            `json:"round_number"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	ProposalData   map[string]any `json:"proposal_data,omitempty"`
	ChangesSummary string         `json:"changes_summary,omitempty"`
	Deadline       string         `json:"deadline,omitempty" format:"date-time"`
	Status         string         `json:"status" enum:"draft,submitted,under_review,accepted,rejected,superseded"`
	CreatedBy      string         `json:"created_by"`
	ParentRoundID  string         `json:"parent_round_id,omitempty"`
	ResponseNotes  string         `json:"response_notes,omitempty"`
	Version        int            `json:"version"`
	CreatedAt      string         `json:"created_at" format:"date-time"`
	UpdatedAt      string         `json:"updated_at" format:"date-time"`
	RespondedAt    string         `json:"responded_at,omitempty" format:"date-time"`
}

type RoundCreate struct {
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	ProposalData   map[string]any `json:"proposal_data,omitempty"`
	ChangesSummary string         `json:"changes_summary,omitempty"`
	Deadline       string         `json:"deadline,omitempty"`
}

// RoundOutcome wraps the API's submit/respond responses.
type RoundOutcome struct {
	Message string `json:"message"`
	Round   Round  `json:"round"`
}

const (
	MessageProposal        = "proposal"
	MessageCounterProposal = "counter_proposal"
	MessageComment         = "comment"
	MessageQuestion        = "question"
	MessageSystem          = "system"
	MessagePrivateNote     = "private_note"
)

type Message struct {
	ID              string         `json:"id"`
	NegotiationID   string         `json:"negotiation_id"`
	RoundID         string         `json:"round_id,omitempty"`
	ParentMessageID string         `json:"parent_message_id,omitempty"`
	Content         string         `json:"content"`
	MessageType     string         `json:"message_type" enum:"proposal,counter_proposal,comment,question,system,private_note"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	IsPrivate       bool           `json:"is_private"`
	CreatedBy       string         `json:"created_by"`
	MentionedUsers  []string       `json:"mentioned_users,omitempty"`
	IsEdited        bool           `json:"is_edited"`
	CreatedAt       string         `json:"created_at" format:"date-time"`
	UpdatedAt       string         `json:"updated_at" format:"date-time"`
}

type MessageCreate struct {
	RoundID         string         `json:"round_id,omitempty"`
	ParentMessageID string         `json:"parent_message_id,omitempty"`
	Content         string         `json:"content"`
	MessageType     string         `json:"message_type" enum:"proposal,counter_proposal,comment,question,system,private_note"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	IsPrivate       bool           `json:"is_private,omitempty"`
	MentionedUsers  []string       `json:"mentioned_users,omitempty"`
}

type Activity struct {
	ID            string         `json:"id"`
	NegotiationID string         `json:"negotiation_id"`
	ActivityType  string         `json:"activity_type"`
	Description   string         `json:"description"`
	UserID        string         `json:"user_id"`
	UserName      string         `json:"user_name,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"created_at" format:"date-time"`
}

type NegotiationStats struct {
	TotalNegotiations           int      `json:"total_negotiations"`
	ActiveNegotiations          int      `json:"active_negotiations"`
	CompletedNegotiations       int      `json:"completed_negotiations"`
	AverageRoundsPerNegotiation float64  `json:"average_rounds_per_negotiation"`
	AverageCompletionTimeDays   *float64 `json:"average_completion_time_days,omitempty"`
	SuccessRate                 float64  `json:"success_rate"`
}
