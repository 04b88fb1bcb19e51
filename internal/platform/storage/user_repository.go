package storage

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quill-server-go/internal/domain/session/model"
	"quill-server-go/internal/platform/errors"
)

// dummyHash keeps the credential check cost constant when the account does
// not exist, so a missing user is indistinguishable from a wrong password.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// UserRepository persists account identities.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// NewUserParams carries the registration payload.
type NewUserParams struct {
	Email    string
	Name     string
	Password string
	Bio      string
	Role     string
}

// Create registers a new account, hashing the password.
func (r *UserRepository) Create(ctx context.Context, params NewUserParams) (*model.Identity, error) {
	role := params.Role
	if role != RoleAdmin {
		role = RoleUser
	}

	var existing User
	err := r.db.WithContext(ctx).Where("email = ?", params.Email).First(&existing).Error
	if err == nil {
		return nil, errors.New(errors.KindStorage, "user.create", "email already registered")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(errors.KindStorage, "user.create", "failed to check email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.create", "failed to hash password", err)
	}

	user := &User{
		Email:    strings.ToLower(params.Email),
		Name:     params.Name,
		Password: string(hash),
		Role:     role,
		Bio:      params.Bio,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.create", "failed to create user", err)
	}
	return toIdentity(user), nil
}

// VerifyCredentials checks email and password. It returns (nil, nil) when
// either the account is missing or the password does not match; the two
// cases are not distinguishable by result or by timing.
func (r *UserRepository) VerifyCredentials(ctx context.Context, email, password string) (*model.Identity, error) {
	var user User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		// Burn the same bcrypt cost as the happy path.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.verify", "failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil
	}
	return toIdentity(&user), nil
}

// GetByID loads an identity; returns (nil, nil) when the user is gone.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.Identity, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.get", "failed to load user", err)
	}
	return toIdentity(&user), nil
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login": time.Now(),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "user.touch_last_login", "failed to update last login", err)
	}
	return nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&User{}).Count(&total).Error; err != nil {
		return 0, errors.Wrap(errors.KindStorage, "user.count", "failed to count users", err)
	}
	return total, nil
}

func toIdentity(user *User) *model.Identity {
	return &model.Identity{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Bio:       user.Bio,
		LastLogin: user.LastLogin,
	}
}
