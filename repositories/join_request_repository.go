package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrJoinRequestNotFound   = errors.New("join request not found")
	ErrJoinRequestExists     = errors.New("a pending join request already exists for this team")
	ErrJoinRequestNotPending = errors.New("join request is no longer pending")
	ErrJoinRequestRefInvalid = errors.New("join request team or user does not exist")
)

type JoinRequestRepository interface {
	Create(ctx context.Context, req *models.JoinRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error)
	// Transition moves a pending request to the given status; ErrJoinRequestNotPending if it was already decided.
	Transition(ctx context.Context, id uuid.UUID, to models.JoinRequestStatus) (*models.JoinRequest, error)
	ListPendingByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]*models.JoinRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.JoinRequest, error)
	RejectPendingByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
	CancelPendingForRequester(ctx context.Context, teamID, requesterID uuid.UUID) (int64, error)
}

type postgresJoinRequestRepository struct {
	db *db.DB
}

func NewPostgresJoinRequestRepository(conn *db.DB) JoinRequestRepository {
	return &postgresJoinRequestRepository{db: conn}
}

const joinRequestColumns = `jr.id, jr.team_id, jr.requester_id, jr.message, jr.status, jr.created_at, jr.decided_at`

func scanJoinRequest(row rowScanner, extra ...any) (*models.JoinRequest, error) {
	var req models.JoinRequest
	dest := append([]any{
		&req.ID, &req.TeamID, &req.RequesterID, &req.Message, &req.Status, &req.CreatedAt, &req.DecidedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *postgresJoinRequestRepository) Create(ctx context.Context, req *models.JoinRequest) error {
	query := `
		INSERT INTO team_join_requests (team_id, requester_id, message, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query, req.TeamID, req.RequesterID, req.Message).
		Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err == nil {
		return nil
	}
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "team_join_requests_pending_key" {
		return ErrJoinRequestExists
	}
	if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
		return ErrJoinRequestRefInvalid
	}
	return err
}

func (r *postgresJoinRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM team_join_requests jr WHERE jr.id = $1`

	req, err := scanJoinRequest(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *postgresJoinRequestRepository) Transition(ctx context.Context, id uuid.UUID, to models.JoinRequestStatus) (*models.JoinRequest, error) {
	query := `
		UPDATE team_join_requests jr
		SET status = $2, decided_at = now()
		WHERE jr.id = $1 AND jr.status = 'pending'
		RETURNING ` + joinRequestColumns

	req, err := scanJoinRequest(r.db.Conn(ctx).QueryRowContext(ctx, query, id, to))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrJoinRequestNotPending
}

// ListPendingByTeams returns pending requests of the given teams with requester profiles.
func (r *postgresJoinRequestRepository) ListPendingByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]*models.JoinRequest, error) {
	requests := make([]*models.JoinRequest, 0)
	if len(teamIDs) == 0 {
		return requests, nil
	}

	query := `
		SELECT ` + joinRequestColumns + `, p.full_name, p.email, p.roll_no, p.college
		FROM team_join_requests jr
		JOIN profiles p ON p.id = jr.requester_id
		WHERE jr.team_id = ANY($1::uuid[]) AND jr.status = 'pending'
		ORDER BY jr.created_at DESC`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, pq.Array(uuidStrings(teamIDs)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var requester models.User
		req, err := scanJoinRequest(rows, &requester.FullName, &requester.Email, &requester.RollNo, &requester.College)
		if err != nil {
			return nil, err
		}
		requester.ID = req.RequesterID
		req.Requester = &requester
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresJoinRequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.JoinRequest, error) {
	query := `
		SELECT ` + joinRequestColumns + `, ` + teamColumns + `
		FROM team_join_requests jr
		JOIN teams t ON t.id = jr.team_id
		WHERE jr.requester_id = $1
		ORDER BY jr.created_at DESC`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.JoinRequest, 0)
	for rows.Next() {
		var team models.Team
		req, err := scanJoinRequest(rows,
			&team.ID, &team.Name, &team.EventRef, &team.LeaderID, &team.MaxMembers, &team.MinMembers,
			&team.IsActive, &team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		req.Team = &team
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresJoinRequestRepository) RejectPendingByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE team_join_requests SET status = 'rejected', decided_at = now() WHERE team_id = $1 AND status = 'pending'`,
		teamID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresJoinRequestRepository) CancelPendingForRequester(ctx context.Context, teamID, requesterID uuid.UUID) (int64, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE team_join_requests SET status = 'cancelled', decided_at = now()
		WHERE team_id = $1 AND requester_id = $2 AND status = 'pending'`,
		teamID, requesterID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
