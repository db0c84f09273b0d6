package repository

import (
	"context"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
)

// PaymentRepository stores verified payments for the admin listing.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	List(ctx context.Context, limit int) ([]entity.Payment, error)
}
