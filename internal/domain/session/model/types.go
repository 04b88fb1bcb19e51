package model

import "time"

// DefaultDeviceInfo labels refresh credentials created without a device hint.
const DefaultDeviceInfo = "Unknown Device"

// Identity is the sanitised account view handed to callers. It never carries
// the password hash or the refresh credential set.
type Identity struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Bio       string     `json:"bio,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// RefreshCredential is one live, revocable refresh token record.
type RefreshCredential struct {
	ID         string    `json:"id"`
	UserID     uint      `json:"user_id"`
	Token      string    `json:"token"`
	DeviceInfo string    `json:"device_info"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at the given instant.
func (c RefreshCredential) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// TokenPair bundles the two credentials minted together on login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the request-scoped authenticated caller context. Never persisted.
type Session struct {
	UserID       uint
	Email        string
	Role         string
	RefreshToken string
}

// Logger provides the minimal logging contract required by the session domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
