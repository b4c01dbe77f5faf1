package models

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleParticipant UserRole = "participant"
	UserRoleAdmin       UserRole = "admin"
)

// User is the public profile of a registered festival user.
type User struct {
	ID       uuid.UUID `json:"id" db:"id"`
	FullName string    `json:"full_name" db:"full_name"`
	Email    string    `json:"email" db:"email"`
	RollNo   *string   `json:"roll_no,omitempty" db:"roll_no"`
	College  *string   `json:"college,omitempty" db:"college"`
}

// AuthContext carries the authenticated caller into every core operation.
type AuthContext struct {
	UserID uuid.UUID
	Role   UserRole
}

func (a AuthContext) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}
