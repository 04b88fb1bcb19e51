package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Role values assignable to a user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User owns the account identity and the authoritative set of refresh
// credentials tracked for it.
type User struct {
	ID        uint       `gorm:"primaryKey"                             json:"id"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string     `gorm:"type:varchar(255);not null"             json:"name"`
	Password  string     `gorm:"not null"                               json:"-"` // bcrypt hash, never serialised
	Role      string     `gorm:"type:varchar(32);default:'user'"        json:"role"`
	Bio       string     `gorm:"type:text"                              json:"bio,omitempty"`
	LastLogin *time.Time `                                              json:"lastLogin,omitempty"`
	CreatedAt time.Time  `                                              json:"createdAt"`
	UpdatedAt time.Time  `                                              json:"updatedAt"`

	RefreshCredentials []RefreshCredential `gorm:"foreignKey:UserID" json:"-"`
}

// RefreshCredential is one live refresh token record for a user. A user holds
// one record per active device session.
type RefreshCredential struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"        json:"id"`
	UserID     uint      `gorm:"index:idx_cred_user_token;not null" json:"userId"`
	Token      string    `gorm:"type:text;index:idx_cred_user_token" json:"-"`
	DeviceInfo string    `gorm:"type:varchar(255);default:'Unknown Device'" json:"deviceInfo"`
	CreatedAt  time.Time `                                          json:"createdAt"`
	ExpiresAt  time.Time `gorm:"index"                              json:"expiresAt"`
}

// Category groups posts; posts may belong to many categories.
type Category struct {
	ID          uint      `gorm:"primaryKey"                             json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text"                              json:"description,omitempty"`
	CreatedAt   time.Time `                                              json:"createdAt"`
	UpdatedAt   time.Time `                                              json:"updatedAt"`

	Posts []Post `gorm:"many2many:post_categories" json:"-"`
}

// Post is an authored content entry.
type Post struct {
	ID        uint           `gorm:"primaryKey"                 json:"id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Body      string         `gorm:"type:text"                  json:"body"`
	AuthorID  uint           `gorm:"index;not null"             json:"authorId"`
	Author    *User          `gorm:"foreignKey:AuthorID"        json:"author,omitempty"`
	Meta      datatypes.JSON `gorm:"type:text"                  json:"meta,omitempty"`
	CreatedAt time.Time      `                                  json:"createdAt"`
	UpdatedAt time.Time      `                                  json:"updatedAt"`

	Categories []Category `gorm:"many2many:post_categories" json:"categories,omitempty"`
}
