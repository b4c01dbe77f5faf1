package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestPending   JoinRequestStatus = "pending"
	JoinRequestApproved  JoinRequestStatus = "approved"
	JoinRequestRejected  JoinRequestStatus = "rejected"
	JoinRequestCancelled JoinRequestStatus = "cancelled"
)

func ParseJoinRequestStatus(s string) (JoinRequestStatus, error) {
	switch st := JoinRequestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case JoinRequestPending, JoinRequestApproved, JoinRequestRejected, JoinRequestCancelled:
		return st, nil
	case "accepted":
		return JoinRequestApproved, nil
	case "canceled":
		return JoinRequestCancelled, nil
	default:
		return "", fmt.Errorf("unknown join request status %q", s)
	}
}

func (st *JoinRequestStatus) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	status, err := ParseJoinRequestStatus(s)
	if err != nil {
		return err
	}
	*st = status
	return nil
}

func (st JoinRequestStatus) Value() (driver.Value, error) {
	return string(st), nil
}

type JoinRequest struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	TeamID      uuid.UUID         `json:"team_id" db:"team_id"`
	RequesterID uuid.UUID         `json:"requester_id" db:"requester_id"`
	Message     *string           `json:"message,omitempty" db:"message"`
	Status      JoinRequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	DecidedAt   *time.Time        `json:"decided_at,omitempty" db:"decided_at"`

	Team      *Team `json:"team,omitempty" db:"-"`
	Requester *User `json:"requester,omitempty" db:"-"`
}
