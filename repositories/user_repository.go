package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// Search matches full name, email or roll number, case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
}

type postgresUserRepository struct {
	db *db.DB
}

func NewPostgresUserRepository(conn *db.DB) UserRepository {
	return &postgresUserRepository{db: conn}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, full_name, email, roll_no, college FROM profiles WHERE id = $1`

	var user models.User
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.RollNo,
		&user.College,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	sqlQuery := `
		SELECT id, full_name, email, roll_no, college
		FROM profiles
		WHERE full_name ILIKE $1 OR email ILIKE $1 OR roll_no ILIKE $1
		ORDER BY full_name
		LIMIT $2`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, sqlQuery, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.FullName, &user.Email, &user.RollNo, &user.College); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
