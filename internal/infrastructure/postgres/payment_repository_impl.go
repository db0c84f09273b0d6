package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (user_id, payment_id, subscription_id, signature)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.UserID, p.PaymentID, p.SubscriptionID, p.Signature)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *PaymentRepository) List(ctx context.Context, limit int) ([]entity.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, payment_id, subscription_id, signature, created_at
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.PaymentID, &p.SubscriptionID, &p.Signature, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
