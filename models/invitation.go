package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvitationStatus представляет состояние приглашения в команду.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationRejected  InvitationStatus = "rejected"
	InvitationCancelled InvitationStatus = "cancelled"
)

func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case InvitationPending, InvitationAccepted, InvitationRejected, InvitationCancelled:
		return st, nil
	case "declined":
		return InvitationRejected, nil
	case "revoked", "canceled":
		return InvitationCancelled, nil
	default:
		return "", fmt.Errorf("unknown invitation status %q", s)
	}
}

func (st *InvitationStatus) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	status, err := ParseInvitationStatus(s)
	if err != nil {
		return err
	}
	*st = status
	return nil
}

func (st InvitationStatus) Value() (driver.Value, error) {
	return string(st), nil
}

type Invitation struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	TeamID    uuid.UUID        `json:"team_id" db:"team_id"`
	InviterID uuid.UUID        `json:"inviter_id" db:"inviter_id"`
	InviteeID uuid.UUID        `json:"invitee_id" db:"invitee_id"`
	Status    InvitationStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	DecidedAt *time.Time       `json:"decided_at,omitempty" db:"decided_at"`

	Team    *Team `json:"team,omitempty" db:"-"`
	Invitee *User `json:"invitee,omitempty" db:"-"`
}
