package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrPaymentSourceUnavailable wraps every failure of the payment log lookup.
var ErrPaymentSourceUnavailable = errors.New("payment record source unavailable")

// PaymentRecordSource читает внешний журнал платежей. Только чтение, без блокировок.
type PaymentRecordSource interface {
	ListPaid(ctx context.Context, q models.PaymentQuery) ([]models.PaymentRecord, error)
	ListPaidByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentRecord, error)
}

type postgresPaymentRecordSource struct {
	db *db.DB
}

func NewPostgresPaymentRecordSource(conn *db.DB) PaymentRecordSource {
	return &postgresPaymentRecordSource{db: conn}
}

const paymentColumns = `id, user_id, event_key, payment_status, payment_amount, transaction_id, created_at`

func (s *postgresPaymentRecordSource) ListPaid(ctx context.Context, q models.PaymentQuery) ([]models.PaymentRecord, error) {
	if len(q.UserIDs) == 0 || len(q.EventKeys) == 0 {
		return []models.PaymentRecord{}, nil
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE upper(payment_status) = 'PAID'
		  AND user_id = ANY($1::uuid[])
		  AND event_key = ANY($2::text[])
		ORDER BY created_at`

	return s.list(ctx, query, pq.Array(uuidStrings(q.UserIDs)), pq.Array(q.EventKeys))
}

func (s *postgresPaymentRecordSource) ListPaidByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentRecord, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE upper(payment_status) = 'PAID' AND user_id = $1
		ORDER BY created_at DESC`

	return s.list(ctx, query, userID)
}

func (s *postgresPaymentRecordSource) list(ctx context.Context, query string, args ...any) ([]models.PaymentRecord, error) {
	rows, err := s.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentSourceUnavailable, err)
	}
	defer rows.Close()

	records := make([]models.PaymentRecord, 0)
	for rows.Next() {
		var rec models.PaymentRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.EventKey,
			&rec.PaymentStatus,
			&rec.PaymentAmount,
			&rec.TransactionID,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPaymentSourceUnavailable, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentSourceUnavailable, err)
	}
	return records, nil
}
