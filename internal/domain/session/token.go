package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quill-server-go/internal/domain/session/model"
)

// TokenClass separates the two credential families. Each class signs with its
// own secret and embeds the class into the claims, so a token minted for one
// class can never verify as the other.
type TokenClass string

const (
	ClassAccess  TokenClass = "access"
	ClassRefresh TokenClass = "refresh"
)

// Claims is the identity claim set embedded in every signed token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Class  string `json:"cls"`
	jwt.RegisteredClaims
}

// CodecConfig carries the signing material and lifetimes per token class.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies compact stateless bearer tokens. It owns no state
// beyond its key material; verification never touches storage.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec builds a token codec from the provided configuration.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("token codec requires both secrets")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("token classes must not share a secret")
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// TTL reports the configured lifetime for the class.
func (c *Codec) TTL(class TokenClass) time.Duration {
	if class == ClassRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

func (c *Codec) secret(class TokenClass) []byte {
	if class == ClassRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Issue signs a token of the given class for the identity. The expiry is
// computed from now plus the class TTL.
func (c *Codec) Issue(identity *model.Identity, class TokenClass) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, fmt.Errorf("%w: nil identity", ErrSigning)
	}

	now := time.Now()
	expiresAt := now.Add(c.TTL(class))
	claims := Claims{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
		Class:  string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret(class))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token against the class secret. It is a pure
// check: expiry comes from the embedded claim, revocation is not consulted.
func (c *Codec) Verify(tokenString string, class TokenClass) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret(class), nil
		},
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenSignature
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Class != string(class) {
		return nil, ErrTokenSignature
	}
	return claims, nil
}
