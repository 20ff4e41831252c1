package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

const issuer = "fritter"

// ErrInvalidToken is returned for tokens that fail parsing, signature or claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenManager issues and validates session tokens with a shared HMAC secret.
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a TokenManager. The secret must not be empty.
func NewTokenManager(secret []byte) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenManager{secret: secret}, nil
}

// Issue signs a token for the session.
func (tm *TokenManager) Issue(session *domain.Session) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Subject:   session.UserID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse validates the token and returns the session and user IDs it references.
func (tm *TokenManager) Parse(tokenString string) (sessionID uuid.UUID, userID uuid.UUID, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}

	sessionID, err = uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: session id: %w", ErrInvalidToken, err)
	}
	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}
	return sessionID, userID, nil
}
