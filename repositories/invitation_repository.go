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
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExists     = errors.New("a pending invitation already exists for this user")
	ErrInvitationSelf       = errors.New("cannot invite yourself")
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
	ErrInvitationRefInvalid = errors.New("invitation team or user does not exist")
)

// InvitationRepository хранит приглашения. Переходы статусов условные: меняется только pending запись.
type InvitationRepository interface {
	// Create fails with ErrTeamFull when active members plus pending invitations already fill the team.
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	// Transition moves a pending invitation to the given status; ErrInvitationNotPending if it was already decided.
	Transition(ctx context.Context, id uuid.UUID, to models.InvitationStatus) (*models.Invitation, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, status models.InvitationStatus) ([]*models.Invitation, error)
	ListByInvitee(ctx context.Context, inviteeID uuid.UUID, status models.InvitationStatus) ([]*models.Invitation, error)
	CountPending(ctx context.Context, teamID uuid.UUID) (int, error)
	CancelPendingByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
	// CancelPendingForInvitee closes the user's pending invitation to the team, if any.
	CancelPendingForInvitee(ctx context.Context, teamID, inviteeID uuid.UUID) (int64, error)
}

type postgresInvitationRepository struct {
	db *db.DB
}

func NewPostgresInvitationRepository(conn *db.DB) InvitationRepository {
	return &postgresInvitationRepository{db: conn}
}

const invitationColumns = `i.id, i.team_id, i.inviter_id, i.invitee_id, i.status, i.created_at, i.decided_at`

func scanInvitation(row rowScanner, extra ...any) (*models.Invitation, error) {
	var inv models.Invitation
	dest := append([]any{
		&inv.ID, &inv.TeamID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.DecidedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *postgresInvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO team_invitations (team_id, inviter_id, invitee_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query, inv.TeamID, inv.InviterID, inv.InviteeID).
		Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if err == nil {
		return nil
	}

	if constraint, ok := pqConstraint(err, pqCheckViolation); ok {
		switch constraint {
		case "team_invitations_capacity":
			return ErrTeamFull
		case "team_invitations_team_active":
			return ErrTeamInactive
		case "team_invitations_not_self":
			return ErrInvitationSelf
		}
	}
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "team_invitations_pending_key" {
		return ErrInvitationExists
	}
	if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
		return ErrInvitationRefInvalid
	}
	return err
}

func (r *postgresInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM team_invitations i WHERE i.id = $1`

	inv, err := scanInvitation(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *postgresInvitationRepository) Transition(ctx context.Context, id uuid.UUID, to models.InvitationStatus) (*models.Invitation, error) {
	query := `
		UPDATE team_invitations i
		SET status = $2, decided_at = now()
		WHERE i.id = $1 AND i.status = 'pending'
		RETURNING ` + invitationColumns

	inv, err := scanInvitation(r.db.Conn(ctx).QueryRowContext(ctx, query, id, to))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Ничего не обновилось: либо записи нет, либо её уже перевели из pending.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInvitationNotPending
}

func (r *postgresInvitationRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status models.InvitationStatus) ([]*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `, p.full_name, p.email, p.roll_no, p.college
		FROM team_invitations i
		JOIN profiles p ON p.id = i.invitee_id
		WHERE i.team_id = $1 AND i.status = $2
		ORDER BY i.created_at DESC`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, teamID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		var invitee models.User
		inv, err := scanInvitation(rows, &invitee.FullName, &invitee.Email, &invitee.RollNo, &invitee.College)
		if err != nil {
			return nil, err
		}
		invitee.ID = inv.InviteeID
		inv.Invitee = &invitee
		invitations = append(invitations, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *postgresInvitationRepository) ListByInvitee(ctx context.Context, inviteeID uuid.UUID, status models.InvitationStatus) ([]*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `, ` + teamColumns + `
		FROM team_invitations i
		JOIN teams t ON t.id = i.team_id
		WHERE i.invitee_id = $1 AND i.status = $2 AND t.is_active
		ORDER BY i.created_at DESC`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, inviteeID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		var team models.Team
		inv, err := scanInvitation(rows,
			&team.ID, &team.Name, &team.EventRef, &team.LeaderID, &team.MaxMembers, &team.MinMembers,
			&team.IsActive, &team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		inv.Team = &team
		invitations = append(invitations, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *postgresInvitationRepository) CountPending(ctx context.Context, teamID uuid.UUID) (int, error) {
	var count int
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT count(*) FROM team_invitations WHERE team_id = $1 AND status = 'pending'`,
		teamID,
	).Scan(&count)
	return count, err
}

func (r *postgresInvitationRepository) CancelPendingByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE team_invitations SET status = 'cancelled', decided_at = now() WHERE team_id = $1 AND status = 'pending'`,
		teamID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresInvitationRepository) CancelPendingForInvitee(ctx context.Context, teamID, inviteeID uuid.UUID) (int64, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE team_invitations SET status = 'cancelled', decided_at = now()
		WHERE team_id = $1 AND invitee_id = $2 AND status = 'pending'`,
		teamID, inviteeID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
