package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
)

const userColumns = `id, full_name, email, password, role, avatar_public_id, avatar_url,
		subscription_id, subscription_status, reset_token, reset_token_expiry, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	var resetToken pgtype.Text
	var resetExpiry pgtype.Timestamptz
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &role,
		&u.AvatarPublicID, &u.AvatarURL, &u.SubscriptionID, &u.SubscriptionStatus,
		&resetToken, &resetExpiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Role = entity.Role(role)
	if resetToken.Valid {
		u.ResetTokenHash = resetToken.String
	}
	if resetExpiry.Valid {
		u.ResetTokenExpiry = resetExpiry.Time
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password, role, avatar_public_id, avatar_url, subscription_status)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.FullName, u.Email, u.Password, string(u.Role), u.AvatarPublicID, u.AvatarURL, u.SubscriptionStatus)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	u.Email = strings.ToLower(u.Email)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = lower($1)
	`, email))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET full_name = $1, avatar_public_id = $2, avatar_url = $3, updated_at = $4
		WHERE id = $5
	`, u.FullName, u.AvatarPublicID, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password = $1, updated_at = now()
		WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_token = $1, reset_token_expiry = $2, updated_at = now()
		WHERE id = $3
	`, tokenHash, expiry, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_token = NULL, reset_token_expiry = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

// RedeemResetToken is a single statement so a crash can never leave a
// redeemable token pointing at an already-changed password.
func (r *UserRepository) RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = now()
		WHERE reset_token = $2 AND reset_token_expiry > now()
	`, passwordHash, tokenHash)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) SetSubscription(ctx context.Context, id, subscriptionID, status string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET subscription_id = $1, subscription_status = $2, updated_at = now()
		WHERE id = $3
	`, subscriptionID, status, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, int, error) {
	var total, active int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE subscription_status = $1)
		FROM users
	`, entity.SubscriptionActive).Scan(&total, &active)
	return total, active, err
}

var _ repository.UserRepository = (*UserRepository)(nil)
