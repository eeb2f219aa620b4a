package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, email, password_hash, name, avatar_url, birthday, city, phone,
	balance, access_token, refresh_token, otp_hash, verified, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, avatar_url, birthday, city, phone,
			balance, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Name, user.AvatarURL,
		user.Birthday, user.City, user.Phone, user.Balance, user.Verified, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getWhere(ctx, "email = ?", email)
}

func (r *UserRepository) getWhere(ctx context.Context, cond string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+cond, arg,
	).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.AvatarURL,
		&user.Birthday, &user.City, &user.Phone, &user.Balance,
		&user.AccessToken, &user.RefreshToken, &user.OTPHash, &user.Verified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, avatar_url = ?, birthday = ?, city = ?,
			phone = ?, verified = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.Name, user.AvatarURL, user.Birthday, user.City,
		user.Phone, user.Verified, now, user.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) SetTokens(ctx context.Context, id int64, accessToken, refreshToken string) error {
	return r.setColumns(ctx, id,
		"access_token = ?, refresh_token = ?", accessToken, refreshToken)
}

func (r *UserRepository) SetOTPHash(ctx context.Context, id int64, hash string) error {
	return r.setColumns(ctx, id, "otp_hash = ?", hash)
}

func (r *UserRepository) SetVerified(ctx context.Context, id int64, verified bool) error {
	return r.setColumns(ctx, id, "verified = ?", verified)
}

func (r *UserRepository) setColumns(ctx context.Context, id int64, set string, args ...any) error {
	args = append(args, time.Now().UTC(), id)
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+set+", updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit subtracts amount from the user's balance. The balance guard lives
// in the WHERE clause so concurrent debits can never drive it negative.
func (r *UserRepository) Debit(ctx context.Context, id int64, amount int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET balance = balance - ?, updated_at = ?
		 WHERE id = ? AND balance >= ?`,
		amount, time.Now().UTC(), id, amount,
	)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
