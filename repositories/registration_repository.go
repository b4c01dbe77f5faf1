package repositories

import (
	"context"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

type UpsertResult int

const (
	UpsertUnchanged UpsertResult = iota
	UpsertInserted
	UpsertRepaired
)

// RegistrationRepository хранит персональные регистрации участников, выведенные из оплаты команды.
type RegistrationRepository interface {
	// Upsert inserts the (user, team) registration once. An existing row is only touched
	// to repair a zero amount.
	Upsert(ctx context.Context, reg *models.MemberRegistration) (UpsertResult, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MemberRegistration, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.MemberRegistration, error)
}

type postgresRegistrationRepository struct {
	db *db.DB
}

func NewPostgresRegistrationRepository(conn *db.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: conn}
}

func (r *postgresRegistrationRepository) Upsert(ctx context.Context, reg *models.MemberRegistration) (UpsertResult, error) {
	query := `
		INSERT INTO member_registrations (user_id, team_id, event_ref, event_key, team_name, transaction_id, amount, derived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, team_id) DO UPDATE
			SET amount = EXCLUDED.amount
			WHERE member_registrations.amount = 0 AND EXCLUDED.amount > 0
		RETURNING id, created_at, (xmax = 0) AS inserted`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query,
		reg.UserID,
		reg.TeamID,
		reg.EventRef,
		reg.EventKey,
		reg.TeamName,
		reg.TransactionID,
		reg.Amount,
		reg.Derived,
	)
	if err != nil {
		return UpsertUnchanged, err
	}
	defer rows.Close()

	if !rows.Next() {
		// конфликт без исправления суммы: запись уже есть
		return UpsertUnchanged, rows.Err()
	}
	var inserted bool
	if err := rows.Scan(&reg.ID, &reg.CreatedAt, &inserted); err != nil {
		return UpsertUnchanged, err
	}
	if inserted {
		return UpsertInserted, rows.Err()
	}
	return UpsertRepaired, rows.Err()
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MemberRegistration, error) {
	return r.list(ctx, `WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRegistrationRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.MemberRegistration, error) {
	return r.list(ctx, `WHERE team_id = $1 ORDER BY created_at`, teamID)
}

func (r *postgresRegistrationRepository) list(ctx context.Context, where string, args ...any) ([]models.MemberRegistration, error) {
	query := `
		SELECT id, user_id, team_id, event_ref, event_key, team_name, transaction_id, amount, derived, created_at
		FROM member_registrations ` + where

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]models.MemberRegistration, 0)
	for rows.Next() {
		var reg models.MemberRegistration
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.TeamID, &reg.EventRef, &reg.EventKey, &reg.TeamName,
			&reg.TransactionID, &reg.Amount, &reg.Derived, &reg.CreatedAt,
		); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}
