package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

var (
	ErrMemberNotFound   = errors.New("team member not found")
	ErrMemberExists     = errors.New("user is already an active member of the team")
	ErrMemberIsLeader   = errors.New("team leader cannot be removed")
	ErrLeaderExists     = errors.New("team already has an active leader")
	ErrTeamFull         = errors.New("team has no free slots")
	ErrTeamInactive     = errors.New("team is disbanded")
	ErrMemberRefInvalid = errors.New("team or user does not exist")
)

// MemberRepository хранит состав команд. Записи не удаляются, выход помечается статусом left.
type MemberRepository interface {
	Add(ctx context.Context, member *models.TeamMember) error
	Deactivate(ctx context.Context, teamID, userID uuid.UUID) error
	GetActive(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMember, error)
	ListActive(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)
	CountActive(ctx context.Context, teamID uuid.UUID) (int, error)
}

type postgresMemberRepository struct {
	db *db.DB
}

func NewPostgresMemberRepository(conn *db.DB) MemberRepository {
	return &postgresMemberRepository{db: conn}
}

func mapMemberWriteError(err error) error {
	if constraint, ok := pqConstraint(err, pqCheckViolation); ok {
		switch constraint {
		case "team_members_capacity":
			return ErrTeamFull
		case "team_members_team_active":
			return ErrTeamInactive
		}
	}
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok {
		switch constraint {
		case "team_members_active_user_key":
			return ErrMemberExists
		case "team_members_active_leader_key":
			return ErrLeaderExists
		}
	}
	if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
		return ErrMemberRefInvalid
	}
	return err
}

// Add inserts an active member. Capacity is enforced by the team_members_capacity trigger.
func (r *postgresMemberRepository) Add(ctx context.Context, member *models.TeamMember) error {
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	member.Status = models.MemberActive

	query := `
		INSERT INTO team_members (team_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
		member.Role,
		member.Status,
	).Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		return mapMemberWriteError(err)
	}
	return nil
}

func (r *postgresMemberRepository) Deactivate(ctx context.Context, teamID, userID uuid.UUID) error {
	query := `
		UPDATE team_members
		SET status = 'left', left_at = now()
		WHERE team_id = $1 AND user_id = $2 AND status = 'active' AND role <> 'leader'`

	conn := r.db.Conn(ctx)
	result, err := conn.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrMemberNotFound); err == nil || !errors.Is(err, ErrMemberNotFound) {
		return err
	}

	var role models.MemberRole
	err = conn.QueryRowContext(ctx,
		`SELECT role FROM team_members WHERE team_id = $1 AND user_id = $2 AND status = 'active'`,
		teamID, userID,
	).Scan(&role)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrMemberNotFound
	case err != nil:
		return err
	case role == models.RoleLeader:
		return ErrMemberIsLeader
	default:
		return ErrMemberNotFound
	}
}

func (r *postgresMemberRepository) GetActive(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, status, joined_at, left_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2 AND status = 'active'`

	var m models.TeamMember
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, teamID, userID).Scan(
		&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt, &m.LeftAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListActive returns active members with their profiles, leader first.
func (r *postgresMemberRepository) ListActive(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.role, m.status, m.joined_at, m.left_at,
		       p.full_name, p.email, p.roll_no, p.college
		FROM team_members m
		LEFT JOIN profiles p ON p.id = m.user_id
		WHERE m.team_id = $1 AND m.status = 'active'
		ORDER BY m.role = 'leader' DESC, m.joined_at`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var (
			m               models.TeamMember
			fullName, email sql.NullString
			rollNo, college *string
		)
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt, &m.LeftAt,
			&fullName, &email, &rollNo, &college,
		); err != nil {
			return nil, err
		}
		if email.Valid {
			m.User = &models.User{
				ID:       m.UserID,
				FullName: fullName.String,
				Email:    email.String,
				RollNo:   rollNo,
				College:  college,
			}
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresMemberRepository) CountActive(ctx context.Context, teamID uuid.UUID) (int, error) {
	var count int
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT count(*) FROM team_members WHERE team_id = $1 AND status = 'active'`,
		teamID,
	).Scan(&count)
	return count, err
}
