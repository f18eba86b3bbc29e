package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrBadToken = errors.New("invalid session token")

// SessionClaims is the payload of a signed session cookie.
type SessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// SessionService issues and validates session tokens.
type SessionService interface {
	Issue(userID int64) (string, error)
	Validate(token string) (*SessionClaims, error)
}

type hmacSessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService signs tokens with HS256 using secret. A zero ttl means
// the token carries no expiry and lives as long as the browser cookie.
func NewSessionService(secret string, ttl time.Duration) SessionService {
	return &hmacSessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *hmacSessions) Issue(userID int64) (string, error) {
	now := s.now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

func (s *hmacSessions) Validate(raw string) (*SessionClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}

	claims, ok := tok.Claims.(*SessionClaims)
	if !ok || !tok.Valid || claims.UserID == 0 {
		return nil, ErrBadToken
	}
	return claims, nil
}
