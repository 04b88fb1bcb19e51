package eventbus

import "time"

// Topic names published by the session domain.
const (
	EventUserLoggedIn  = "session:login"
	EventUserLoggedOut = "session:logout"
	EventTokenRotated  = "session:rotated"
	EventTokensSwept   = "session:swept"
)

// AuthEvent describes one session lifecycle occurrence.
type AuthEvent struct {
	UserID     uint      `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	DeviceInfo string    `json:"device_info,omitempty"`
	AllDevices bool      `json:"all_devices,omitempty"`
	Swept      int64     `json:"swept,omitempty"`
	At         time.Time `json:"at"`
}
