package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/purrfectmatch/api/internal/domain"
)

const otpDigits = 6

// VerificationService runs the email-verification flow: it hands out
// one-time codes by email and flips the user's verified flag when a code
// comes back. A user has at most one outstanding code; requesting a new
// one invalidates the previous, and any verification attempt consumes the
// stored code whether or not it matches.
type VerificationService struct {
	users       domain.UserRepository
	tokens      *TokenService
	notifier    domain.Notifier
	baseURL     string
	frontendURL string
	bcryptCost  int
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(users domain.UserRepository, tokens *TokenService, notifier domain.Notifier, baseURL, frontendURL string, bcryptCost int) *VerificationService {
	return &VerificationService{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		baseURL:     baseURL,
		frontendURL: frontendURL,
		bcryptCost:  bcryptCost,
	}
}

// Request generates a fresh one-time code for an unverified user, emails
// it together with verification links, and returns the signed
// verification token. The token is also returned to the caller so API
// clients can verify without following the email link.
func (s *VerificationService) Request(ctx context.Context, email, lang string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: no unverified user with this email", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if user.Verified {
		return "", fmt.Errorf("%w: no unverified user with this email", domain.ErrInvalidInput)
	}

	otp, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(otp), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	// Overwrites any earlier code: at most one is outstanding per user.
	if err := s.users.SetOTPHash(ctx, user.ID, string(hash)); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, TokenVerification)
	if err != nil {
		return "", fmt.Errorf("issue verification token: %w", err)
	}

	validUntil := time.Now().Add(s.tokens.VerificationTTL())
	msg, err := verificationEmail(user.Email, lang, s.baseURL, s.frontendURL, token, otp, validUntil)
	if err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("send verification email: %w", err)
	}

	return token, nil
}

// Verify checks a presented code against the stored one. The stored code
// is cleared before the comparison, so every attempt consumes it: a wrong
// guess forces the user to request a fresh code.
func (s *VerificationService) Verify(ctx context.Context, verificationToken, otp string) error {
	userID, err := s.tokens.Subject(verificationToken, TokenVerification)
	if err != nil {
		return fmt.Errorf("%w: verification token is invalid or expired", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: verification token is invalid or expired", domain.ErrInvalidInput)
		}
		return fmt.Errorf("get user: %w", err)
	}

	stored := user.OTPHash
	if err := s.users.SetOTPHash(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}

	if stored == "" {
		return fmt.Errorf("%w: no outstanding verification code", domain.ErrInvalidInput)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(otp)); err != nil {
		return fmt.Errorf("%w: wrong verification code", domain.ErrInvalidInput)
	}

	if err := s.users.SetVerified(ctx, userID, true); err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	return nil
}

func generateOTP() (string, error) {
	limit := big.NewInt(1)
	for range otpDigits {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
