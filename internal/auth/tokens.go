package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/opencanteen/opencanteen/internal/users"
)

// ErrTokenInvalid is returned for malformed, expired or revoked tokens.
var ErrTokenInvalid = errors.New("token is invalid")

const denylistPrefix = "auth:denylist:"

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	Username string `json:"username"`
	RoleID   int64  `json:"role_id"`
	SchoolID *int64 `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens. Revoked token IDs live in
// redis until their natural expiry.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

// NewIssuer builds an Issuer. rdb may be nil, which disables revocation.
func NewIssuer(secret string, ttl time.Duration, rdb *redis.Client) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, rdb: rdb, now: time.Now}
}

// Issue signs a token for the given user.
func (i *Issuer) Issue(u *users.User) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		Username: u.Username,
		RoleID:   u.RoleID,
		SchoolID: u.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses and validates a token, including the revocation list.
func (i *Issuer) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if i.revoked(ctx, claims.ID) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Revoke denylists a token until it would have expired anyway.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.rdb == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return i.rdb.Set(ctx, denylistPrefix+claims.ID, "1", ttl).Err()
}

func (i *Issuer) revoked(ctx context.Context, jti string) bool {
	if i.rdb == nil || jti == "" {
		return false
	}
	n, err := i.rdb.Exists(ctx, denylistPrefix+jti).Result()
	return err == nil && n > 0
}
