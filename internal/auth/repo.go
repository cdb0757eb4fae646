package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Activate(ctx context.Context, id uuid.UUID) error
	CustomerInfo(ctx context.Context, id uuid.UUID) (*CustomerInfo, error)
	CollaboratorInfo(ctx context.Context, id uuid.UUID) (*CollaboratorInfo, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a new account in PENDING state.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, phone, password_hash, status, phone_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Phone, user.PasswordHash, user.Status, user.PhoneVerified, user.CreatedAt, user.UpdatedAt)
	return err
}

// FindByPhone fetches a user by phone number.
func (r *PGRepository) FindByPhone(ctx context.Context, phone string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, phone, password_hash, status, phone_verified, created_at, updated_at
		 FROM users WHERE phone = $1`, phone))
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, phone, password_hash, status, phone_verified, created_at, updated_at
		 FROM users WHERE id = $1`, id))
}

// Activate marks the account verified and active after OTP verification.
func (r *PGRepository) Activate(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2, phone_verified = TRUE, updated_at = NOW() WHERE id = $1`,
		id, StatusActive)
	return err
}

// CustomerInfo returns the customer profile, nil when the user has none.
func (r *PGRepository) CustomerInfo(ctx context.Context, id uuid.UUID) (*CustomerInfo, error) {
	var info CustomerInfo
	err := r.pool.QueryRow(ctx,
		`SELECT kyc_status FROM customers WHERE user_id = $1`, id).Scan(&info.KYCStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// CollaboratorInfo returns the collaborator profile, nil when absent.
func (r *PGRepository) CollaboratorInfo(ctx context.Context, id uuid.UUID) (*CollaboratorInfo, error) {
	var info CollaboratorInfo
	err := r.pool.QueryRow(ctx,
		`SELECT referral_code, activated_at FROM collaborators WHERE user_id = $1`, id).
		Scan(&info.ReferralCode, &info.ActivatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Phone, &user.PasswordHash, &user.Status, &user.PhoneVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
