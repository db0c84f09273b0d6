package repository

import (
	"context"
	"time"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
)

// UserRepository defines user-record persistence. The user row is the single
// shared mutable resource of the identity core; every method is a whole-record
// read or a single-statement write.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error

	// UpdatePassword replaces the stored hash, leaving reset fields untouched.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetResetToken stores the hashed reset token and its expiry on the row.
	SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error

	// ClearResetToken removes a pending reset pair, e.g. after a failed
	// delivery of the reset email.
	ClearResetToken(ctx context.Context, id string) error

	// RedeemResetToken atomically replaces the password and clears the reset
	// pair for the user whose stored token hash matches and has not expired.
	// Returns false when no such row exists; unknown and expired tokens are
	// indistinguishable to callers.
	RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) (bool, error)

	// SetSubscription is written only by the payment service.
	SetSubscription(ctx context.Context, id, subscriptionID, status string) error

	CountUsers(ctx context.Context) (total int, activeSubscribers int, err error)
}
