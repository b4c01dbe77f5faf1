package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMinTeamSize = 2
	DefaultMaxTeamSize = 4
)

// Team представляет команду, собранную для участия в одном событии фестиваля.
type Team struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	EventRef   string    `json:"event_ref" db:"event_ref"`
	LeaderID   uuid.UUID `json:"leader_id" db:"leader_id"`
	MaxMembers int       `json:"max_members" db:"max_members"`
	MinMembers int       `json:"min_members" db:"min_members"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	Leader *User `json:"leader,omitempty" db:"-"`
}

// MemberRole is the closed set of roles a team member can hold.
type MemberRole string

const (
	RoleLeader MemberRole = "leader"
	RoleMember MemberRole = "member"
)

// ParseMemberRole normalizes legacy spellings ("lead", "captain") to the canonical role.
func ParseMemberRole(s string) (MemberRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leader", "lead", "captain":
		return RoleLeader, nil
	case "member", "":
		return RoleMember, nil
	default:
		return "", fmt.Errorf("unknown member role %q", s)
	}
}

func (r *MemberRole) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	role, err := ParseMemberRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

func (r MemberRole) Value() (driver.Value, error) {
	return string(r), nil
}

type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberLeft   MemberStatus = "left"
)

// ParseMemberStatus maps "joined" rows written by older clients to active.
func ParseMemberStatus(s string) (MemberStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "joined":
		return MemberActive, nil
	case "left", "removed":
		return MemberLeft, nil
	default:
		return "", fmt.Errorf("unknown member status %q", s)
	}
}

func (st *MemberStatus) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	status, err := ParseMemberStatus(s)
	if err != nil {
		return err
	}
	*st = status
	return nil
}

func (st MemberStatus) Value() (driver.Value, error) {
	return string(st), nil
}

type TeamMember struct {
	ID       uuid.UUID    `json:"id" db:"id"`
	TeamID   uuid.UUID    `json:"team_id" db:"team_id"`
	UserID   uuid.UUID    `json:"user_id" db:"user_id"`
	Role     MemberRole   `json:"role" db:"role"`
	Status   MemberStatus `json:"status" db:"status"`
	JoinedAt time.Time    `json:"joined_at" db:"joined_at"`
	LeftAt   *time.Time   `json:"left_at,omitempty" db:"left_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// TeamCandidate is a search hit for a user looking for a team to join.
type TeamCandidate struct {
	Team           *Team `json:"team"`
	CurrentMembers int   `json:"current_members"`
	IsFull         bool  `json:"is_full"`
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("cannot scan %T into string enum", src)
	}
}
