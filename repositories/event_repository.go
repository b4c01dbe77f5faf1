package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrCatalogUnavailable = errors.New("event catalog unavailable")
)

// EventCatalog отдаёт метаданные события по его ссылке.
type EventCatalog interface {
	GetByRef(ctx context.Context, ref string) (*models.Event, error)
}

type postgresEventCatalog struct {
	db *db.DB
}

func NewPostgresEventCatalog(conn *db.DB) EventCatalog {
	return &postgresEventCatalog{db: conn}
}

func (c *postgresEventCatalog) GetByRef(ctx context.Context, ref string) (*models.Event, error) {
	query := `
		SELECT ref, event_key, name, COALESCE(min_team_size, 0), COALESCE(max_team_size, 0), price_per_member
		FROM events
		WHERE ref = $1`

	var e models.Event
	err := c.db.Conn(ctx).QueryRowContext(ctx, query, ref).Scan(
		&e.Ref,
		&e.Key,
		&e.Name,
		&e.MinTeamSize,
		&e.MaxTeamSize,
		&e.PricePerMember,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return &e, nil
}
