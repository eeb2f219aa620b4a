package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/purrfectmatch/api/internal/domain"
)

const (
	passwordMinLength = 6
	passwordMaxLength = 16
)

// TokenPair is an access/refresh token pair. Issuing a new pair overwrites
// the stored one, revoking everything issued before.
type TokenPair struct {
	Access  string
	Refresh string
}

// AuthService manages the identity-session lifecycle: registration, login,
// token rotation, logout, and profile updates.
type AuthService struct {
	users            domain.UserRepository
	tokens           *TokenService
	files            *FileService
	bcryptCost       int
	defaultAvatarURL string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, tokens *TokenService, files *FileService, bcryptCost int, defaultAvatarURL string) *AuthService {
	return &AuthService{
		users:            users,
		tokens:           tokens,
		files:            files,
		bcryptCost:       bcryptCost,
		defaultAvatarURL: defaultAvatarURL,
	}
}

// Register creates a new user account and logs it in immediately.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		return nil, TokenPair{}, fmt.Errorf("%w: password must be %d to %d characters",
			domain.ErrInvalidInput, passwordMinLength, passwordMaxLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "User",
		AvatarURL:    s.defaultAvatarURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Login verifies credentials and rotates the stored token pair. Unknown
// email and wrong password produce the same error so callers cannot probe
// which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, TokenPair{}, domain.ErrUnauthorized
		}
		return nil, TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, domain.ErrUnauthorized
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. The presented token
// must match the stored one exactly; a superseded token fails with
// ErrForbidden even when its signature is still valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, TokenPair, error) {
	userID, err := s.tokens.Subject(refreshToken, TokenRefresh)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, TokenPair{}, domain.ErrUnauthorized
		}
		return nil, TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, TokenPair{}, domain.ErrForbidden
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout clears the stored token pair, revoking all outstanding tokens
// before their natural expiry.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.users.SetTokens(ctx, userID, "", "")
}

// Authenticate resolves an Authorization header to a user. Anything other
// than "Bearer <valid access token matching the stored one>" fails with
// ErrUnauthorized; callers with optional auth treat that as anonymous.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) (*domain.User, error) {
	scheme, token, found := strings.Cut(authorization, " ")
	if !found || scheme != "Bearer" {
		return nil, domain.ErrUnauthorized
	}

	userID, err := s.tokens.Subject(token, TokenAccess)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if user.AccessToken == "" || user.AccessToken != token {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies a partial profile update. Changing the email
// requires the new address to be unused and resets the verified flag.
// A replaced avatar's old blob is removed after the update succeeds.
func (s *AuthService) UpdateProfile(ctx context.Context, user *domain.User, update domain.ProfileUpdate) (*domain.User, error) {
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: missing fields", domain.ErrInvalidInput)
	}

	updated := *user

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", domain.ErrInvalidInput)
		}
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, domain.ErrDuplicateEmail
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("check email: %w", err)
			}
			updated.Email = email
			updated.Verified = false
		}
	}
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Birthday != nil {
		updated.Birthday = *update.Birthday
	}
	if update.City != nil {
		updated.City = *update.City
	}
	if update.Phone != nil {
		updated.Phone = *update.Phone
	}
	if update.AvatarURL != nil {
		updated.AvatarURL = *update.AvatarURL
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}

	if updated.AvatarURL != user.AvatarURL {
		s.files.DeleteByURL(ctx, user.AvatarURL)
	}
	return &updated, nil
}

// UpdateAvatar replaces the user's avatar and removes the old blob.
func (s *AuthService) UpdateAvatar(ctx context.Context, user *domain.User, avatarURL string) (*domain.User, error) {
	return s.UpdateProfile(ctx, user, domain.ProfileUpdate{AvatarURL: &avatarURL})
}

func (s *AuthService) rotateTokens(ctx context.Context, user *domain.User) (TokenPair, error) {
	access, err := s.tokens.Issue(user.ID, TokenAccess)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(user.ID, TokenRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.users.SetTokens(ctx, user.ID, access, refresh); err != nil {
		return TokenPair{}, fmt.Errorf("store tokens: %w", err)
	}

	user.AccessToken = access
	user.RefreshToken = refresh
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
