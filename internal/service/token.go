package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/purrfectmatch/api/internal/domain"
)

// TokenKind selects the secret and lifetime a token is issued with.
type TokenKind int

const (
	TokenAccess TokenKind = iota
	TokenRefresh
	TokenVerification
)

// Default token lifetimes.
const (
	DefaultAccessTTL       = 15 * time.Minute
	DefaultRefreshTTL      = 7 * 24 * time.Hour
	DefaultVerificationTTL = 5 * time.Minute
)

// TokenConfig holds the per-kind HMAC secrets and lifetimes.
// Zero TTLs fall back to the defaults.
type TokenConfig struct {
	AccessSecret       string
	RefreshSecret      string
	VerificationSecret string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	VerificationTTL    time.Duration
}

// TokenService issues and validates signed tokens. Tokens are stateless:
// they carry only the user id and an expiry. Revocation happens by
// comparing a presented token against the one currently stored for the
// user, not here.
type TokenService struct {
	cfg TokenConfig
}

// NewTokenService creates a TokenService, applying default TTLs where the
// config leaves them zero.
func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.VerificationTTL == 0 {
		cfg.VerificationTTL = DefaultVerificationTTL
	}
	return &TokenService{cfg: cfg}
}

// Issue signs a token of the given kind for the user.
func (s *TokenService) Issue(userID int64, kind TokenKind) (string, error) {
	secret, ttl := s.kindParams(kind)
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		// jti keeps back-to-back issues distinct; rotation relies on the
		// new token never equalling the one it replaces.
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Subject validates a token against the given kind's secret and returns
// the user id it was issued for. Signature, expiry, and kind mismatches
// all come back as ErrUnauthorized.
func (s *TokenService) Subject(tokenString string, kind TokenKind) (int64, error) {
	secret, _ := s.kindParams(kind)
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	return userID, nil
}

// VerificationTTL exposes the verification-token lifetime for email copy.
func (s *TokenService) VerificationTTL() time.Duration {
	return s.cfg.VerificationTTL
}

func (s *TokenService) kindParams(kind TokenKind) ([]byte, time.Duration) {
	switch kind {
	case TokenRefresh:
		return []byte(s.cfg.RefreshSecret), s.cfg.RefreshTTL
	case TokenVerification:
		return []byte(s.cfg.VerificationSecret), s.cfg.VerificationTTL
	default:
		return []byte(s.cfg.AccessSecret), s.cfg.AccessTTL
	}
}
