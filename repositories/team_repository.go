package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name already taken for this event")
	ErrTeamLeaderConflict = errors.New("leader already has an active team for this event")
	ErrTeamUserInvalid    = errors.New("team leader does not exist")
)

// TeamRepository хранит команды. Create пишет команду и её лидера, поэтому вызывается внутри транзакции.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByMember(ctx context.Context, userID uuid.UUID) ([]*models.Team, error)
	ListByLeader(ctx context.Context, userID uuid.UUID) ([]*models.Team, error)
	ListByEvent(ctx context.Context, eventRef string) ([]*models.Team, error)
	Search(ctx context.Context, query string, limit int) ([]*models.TeamCandidate, error)
}

type postgresTeamRepository struct {
	db *db.DB
}

func NewPostgresTeamRepository(conn *db.DB) TeamRepository {
	return &postgresTeamRepository{db: conn}
}

const teamColumns = `t.id, t.name, t.event_ref, t.leader_id, t.max_members, t.min_members, t.is_active, t.created_at, t.updated_at`

func scanTeam(row rowScanner) (*models.Team, error) {
	var team models.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.EventRef,
		&team.LeaderID,
		&team.MaxMembers,
		&team.MinMembers,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func mapTeamWriteError(err error) error {
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok {
		switch constraint {
		case "teams_active_name_event_key":
			return ErrTeamNameConflict
		case "teams_active_leader_event_key":
			return ErrTeamLeaderConflict
		}
	}
	if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
		return ErrTeamUserInvalid
	}
	return err
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, event_ref, leader_id, max_members, min_members)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, updated_at`

	conn := r.db.Conn(ctx)
	err := conn.QueryRowContext(ctx, query,
		team.Name,
		team.EventRef,
		team.LeaderID,
		team.MaxMembers,
		team.MinMembers,
	).Scan(&team.ID, &team.IsActive, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return mapTeamWriteError(err)
	}

	leaderQuery := `
		INSERT INTO team_members (team_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)`
	if _, err := conn.ExecContext(ctx, leaderQuery, team.ID, team.LeaderID, models.RoleLeader, models.MemberActive); err != nil {
		return mapMemberWriteError(err)
	}

	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate блокирует строку команды до конца текущей транзакции.
func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *postgresTeamRepository) getOne(ctx context.Context, query string, args ...any) (*models.Team, error) {
	team, err := scanTeam(r.db.Conn(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $2, max_members = $3, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING updated_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query, team.ID, team.Name, team.MaxMembers).Scan(&team.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return mapTeamWriteError(err)
	}
	return nil
}

func (r *postgresTeamRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE teams SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1 AND m.status = 'active' AND t.is_active
		ORDER BY t.created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postgresTeamRepository) ListByLeader(ctx context.Context, userID uuid.UUID) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams t
		WHERE t.leader_id = $1 AND t.is_active
		ORDER BY t.created_at DESC`
	return r.list(ctx, query, userID)
}

// ListByEvent returns active teams of one event, or of all events when eventRef is empty.
func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventRef string) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams t
		WHERE t.is_active AND ($1 = '' OR t.event_ref = $1)
		ORDER BY t.event_ref, t.name`
	return r.list(ctx, query, eventRef)
}

func (r *postgresTeamRepository) list(ctx context.Context, query string, args ...any) ([]*models.Team, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

// Search ищет активные команды по названию или по имени лидера.
func (r *postgresTeamRepository) Search(ctx context.Context, query string, limit int) ([]*models.TeamCandidate, error) {
	sqlQuery := `
		SELECT ` + teamColumns + `,
		       p.id, p.full_name, p.email, p.roll_no, p.college,
		       (SELECT count(*) FROM team_members m WHERE m.team_id = t.id AND m.status = 'active')
		FROM teams t
		JOIN profiles p ON p.id = t.leader_id
		WHERE t.is_active AND (t.name ILIKE $1 OR p.full_name ILIKE $1)
		ORDER BY t.created_at DESC
		LIMIT $2`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, sqlQuery, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	defer rows.Close()

	candidates := make([]*models.TeamCandidate, 0)
	for rows.Next() {
		var (
			team   models.Team
			leader models.User
			count  int
		)
		if err := rows.Scan(
			&team.ID, &team.Name, &team.EventRef, &team.LeaderID, &team.MaxMembers, &team.MinMembers,
			&team.IsActive, &team.CreatedAt, &team.UpdatedAt,
			&leader.ID, &leader.FullName, &leader.Email, &leader.RollNo, &leader.College,
			&count,
		); err != nil {
			return nil, err
		}
		team.Leader = &leader
		candidates = append(candidates, &models.TeamCandidate{Team: &team, CurrentMembers: count})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}
