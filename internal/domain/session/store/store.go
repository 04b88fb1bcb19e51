package store

import (
	"context"
	"errors"
	"time"

	"quill-server-go/internal/domain/session/model"
)

// ErrNotFound reports that the referenced refresh credential has no live
// record. During rotation this is how the loser of a concurrent race learns
// the token was already consumed.
var ErrNotFound = errors.New("refresh credential not found")

// Store is the authoritative registry of live refresh credentials. It is the
// only shared mutable state in the session core.
type Store interface {
	// Append adds one record to the user's set. Token-string uniqueness is
	// guaranteed upstream by codec entropy, not enforced here.
	Append(ctx context.Context, cred model.RefreshCredential) error

	// Replace atomically removes the record matching oldToken and appends
	// cred. When oldToken has no live record, nothing is written and
	// ErrNotFound is returned; the store never ends up with neither record.
	Replace(ctx context.Context, userID uint, oldToken string, cred model.RefreshCredential) error

	// RemoveByToken deletes at most one matching record and reports whether a
	// record matched. Removing an absent token is a silent no-op.
	RemoveByToken(ctx context.Context, userID uint, token string) (bool, error)

	// ClearAll empties the user's credential set. Idempotent.
	ClearAll(ctx context.Context, userID uint) error

	// ExistsWithToken reports whether a live (non-expired) record exists.
	ExistsWithToken(ctx context.Context, userID uint, token string) (bool, error)

	// FindLive returns the live record for the token, if any.
	FindLive(ctx context.Context, userID uint, token string) (model.RefreshCredential, bool, error)

	// SweepExpired removes every record across all users with an expiry before
	// now, returning the count removed. Safe to run concurrently with normal
	// traffic and with itself.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	// Stats returns debug information from the store backend.
	Stats(ctx context.Context) (map[string]any, error)

	// Close releases underlying resources.
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	Redis  *RedisConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
