package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "PAID"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentInitiated PaymentStatus = "INITIATED"
)

// Scan accepts any casing; the gateway callback has written both "paid" and "PAID".
func (st *PaymentStatus) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	*st = PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}

func (st PaymentStatus) Value() (driver.Value, error) {
	return string(st), nil
}

// PaymentRecord is a row of the externally owned payment log. Read only.
type PaymentRecord struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	EventKey      string        `json:"event_key" db:"event_key"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentAmount *float64      `json:"payment_amount,omitempty" db:"payment_amount"`
	TransactionID *string       `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// PaymentQuery selects PAID records of the given users whose event key is one of EventKeys.
type PaymentQuery struct {
	UserIDs   []uuid.UUID
	EventKeys []string
}

// PaymentRequest is sent to the payment initiation collaborator.
type PaymentRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	TeamID      uuid.UUID `json:"team_id"`
	EventKey    string    `json:"event_key"`
	TeamName    string    `json:"team_name"`
	MemberCount int       `json:"member_count"`
	Amount      float64   `json:"amount"`
	ReturnURL   string    `json:"return_url,omitempty"`
}

type PaymentInitiation struct {
	TeamID      uuid.UUID `json:"team_id"`
	RedirectURL string    `json:"redirect_url"`
	MemberCount int       `json:"member_count"`
	Amount      float64   `json:"amount"`
}
