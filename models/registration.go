package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RegistrationSourcePayment  = "payment"
	RegistrationSourceTeamSync = "team_sync"
)

// MemberRegistration is a personal registration derived from a team's payment.
// Amount repeats the team payment and Derived is always true, so revenue sums skip these rows.
type MemberRegistration struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	TeamID        uuid.UUID `json:"team_id" db:"team_id"`
	EventRef      string    `json:"event_ref" db:"event_ref"`
	EventKey      string    `json:"event_key" db:"event_key"`
	TeamName      string    `json:"team_name" db:"team_name"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Derived       bool      `json:"derived" db:"derived"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// RegistrationEntry is one line of a user's "my registrations" view.
type RegistrationEntry struct {
	EventKey      string     `json:"event_key"`
	TeamID        *uuid.UUID `json:"team_id,omitempty"`
	TeamName      string     `json:"team_name,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	Derived       bool       `json:"derived"`
	Source        string     `json:"source"`
	CreatedAt     time.Time  `json:"created_at"`
}

type MemberSyncOutcome string

const (
	SyncCreated        MemberSyncOutcome = "created"
	SyncAlreadyPresent MemberSyncOutcome = "already_present"
	SyncRepaired       MemberSyncOutcome = "amount_repaired"
	SyncPaidPersonally MemberSyncOutcome = "paid_personally"
	SyncFailed         MemberSyncOutcome = "failed"
)

type MemberSyncResult struct {
	UserID  uuid.UUID         `json:"user_id"`
	Outcome MemberSyncOutcome `json:"outcome"`
	Error   string            `json:"error,omitempty"`
}

type TeamSyncResult struct {
	TeamID   uuid.UUID          `json:"team_id"`
	TeamName string             `json:"team_name"`
	Skipped  bool               `json:"skipped"`
	Members  []MemberSyncResult `json:"members,omitempty"`
}

func (r TeamSyncResult) Created() int {
	n := 0
	for _, m := range r.Members {
		if m.Outcome == SyncCreated {
			n++
		}
	}
	return n
}

type SyncReport struct {
	Teams   []TeamSyncResult `json:"teams"`
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
}
