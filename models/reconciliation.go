package models

import "github.com/google/uuid"

type RegistrationState string

const (
	RegistrationUnregistered RegistrationState = "unregistered"
	RegistrationPartial      RegistrationState = "partial"
	RegistrationFull         RegistrationState = "full"
)

// ReconciledTeamView is a team projected against the payment log. Recomputed on every read.
type ReconciledTeamView struct {
	*Team

	Members            []TeamMember      `json:"members"`
	ActiveMemberCount  int               `json:"active_member_count"`
	IsRegistered       bool              `json:"is_registered"`
	RegisteredCount    int               `json:"registered_count"`
	TeamPaymentAmount  *float64          `json:"team_payment_amount"`
	RegistrationStatus *PaymentStatus    `json:"registration_status"`
	TransactionID      *string           `json:"transaction_id,omitempty"`
	PaidSlots          int               `json:"paid_slots"`
	RegistrationState  RegistrationState `json:"registration_state"`
	NewMembersToPay    int               `json:"new_members_to_pay"`
	EventKey           string            `json:"event_key,omitempty"`
	PaidMemberIDs      []uuid.UUID       `json:"paid_member_ids,omitempty"`
}

func (v *ReconciledTeamView) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Members))
	for _, m := range v.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

type TeamStatistics struct {
	EventRef            string  `json:"event_ref,omitempty"`
	TeamCount           int     `json:"team_count"`
	RegisteredTeamCount int     `json:"registered_team_count"`
	MemberCount         int     `json:"member_count"`
	TotalRevenue        float64 `json:"total_revenue"`
}

type TeamReport struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	TeamCount int    `json:"team_count"`
}
