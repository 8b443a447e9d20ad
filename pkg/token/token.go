package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken         = errors.New("invalid token")
)

// Service signs and verifies bearer tokens. Each token carries the user
// id and a random token id that must match a session-registry entry.
type Service struct {
	secret           []byte
	issuer           string
	audience         string
	defaultExpiry    time.Duration
	rememberMeExpiry time.Duration
}

func NewService(secret []byte, issuer, audience string, defaultExpiry, rememberMeExpiry time.Duration) (*Service, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if defaultExpiry <= 0 || rememberMeExpiry <= 0 {
		return nil, errors.New("token expiry must be positive")
	}

	return &Service{
		secret:           secret,
		issuer:           issuer,
		audience:         audience,
		defaultExpiry:    defaultExpiry,
		rememberMeExpiry: rememberMeExpiry,
	}, nil
}

// MaxLifetime is the longest a token can stay valid (remember-me
// expiry). Ledger entries use it as their TTL so revocations outlive
// every outstanding token.
func (s *Service) MaxLifetime() time.Duration {
	return s.rememberMeExpiry
}

// Issue signs a token for the user/session pair. rememberMe selects the
// extended expiry.
func (s *Service) Issue(userID, tokenID uuid.UUID, rememberMe bool) (string, time.Duration, error) {
	expiry := s.defaultExpiry
	if rememberMe {
		expiry = s.rememberMeExpiry
	}

	now := time.Now()
	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID.String(),
		},
		UserID:  userID,
		TokenID: tokenID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, expiry, nil
}

// Verify checks the signature and registered claims (expiry, issuer,
// audience) and returns the parsed claims.
func (s *Service) Verify(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil || claims.TokenID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
