package domain

import (
	"context"
	"time"
)

// User represents a registered user of the marketplace.
//
// AccessToken and RefreshToken hold the single live token pair for the
// user; empty strings mean no active session. Any previously issued token
// that no longer matches the stored value is implicitly revoked. OTPHash
// holds the bcrypt hash of the outstanding email-verification code, empty
// when none is pending.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	AvatarURL    string
	Birthday     string
	City         string
	Phone        string
	Balance      int64
	AccessToken  string
	RefreshToken string
	OTPHash      string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the optional profile fields of a PATCH request.
// Nil means "leave unchanged".
type ProfileUpdate struct {
	Name      *string
	Email     *string
	Birthday  *string
	City      *string
	Phone     *string
	AvatarURL *string
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Birthday == nil &&
		u.City == nil && u.Phone == nil && u.AvatarURL == nil
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update persists the mutable profile fields (email, name, avatar,
	// birthday, city, phone) and the verified flag.
	Update(ctx context.Context, user *User) error
	// SetTokens overwrites the stored token pair. Empty strings revoke
	// the session entirely.
	SetTokens(ctx context.Context, id int64, accessToken, refreshToken string) error
	// SetOTPHash overwrites the stored verification-code hash. An empty
	// string clears the outstanding code.
	SetOTPHash(ctx context.Context, id int64, hash string) error
	SetVerified(ctx context.Context, id int64, verified bool) error
	// Debit subtracts amount from the user's balance. It fails with
	// ErrInsufficientFunds when the balance would go negative.
	Debit(ctx context.Context, id int64, amount int64) error
}
