package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quill-server-go/internal/domain/eventbus"
	"quill-server-go/internal/domain/session/model"
	"quill-server-go/internal/domain/session/store"
)

const (
	defaultSweepInterval = 24 * time.Hour
	minSweepInterval     = time.Minute
)

// UserDirectory is the identity collaborator: it resolves and verifies
// accounts but owns none of the credential lifecycle.
type UserDirectory interface {
	// VerifyCredentials returns (nil, nil) when the credentials do not match,
	// without revealing whether the account exists.
	VerifyCredentials(ctx context.Context, email, password string) (*model.Identity, error)
	GetByID(ctx context.Context, id uint) (*model.Identity, error)
	TouchLastLogin(ctx context.Context, id uint) error
}

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Store         store.Store
	Codec         *Codec
	Users         UserDirectory
	Logger        model.Logger
	Events        *eventbus.Bus
	SweepInterval time.Duration
}

// Manager orchestrates the credential lifecycle: it ties codec output to
// store records but owns no data of its own.
type Manager struct {
	store  store.Store
	codec  *Codec
	users  UserDirectory
	logger model.Logger
	events *eventbus.Bus

	sweepInterval time.Duration
	sweepStop     chan struct{}
	sweepOnce     sync.Once
}

// LoginResult carries the minted pair plus the sanitized account identity.
type LoginResult struct {
	Tokens   model.TokenPair
	Identity model.Identity
}

// NewManager wires a Manager and starts its background sweeper.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("session manager requires a store")
	}
	if opts.Codec == nil {
		return nil, errors.New("session manager requires a token codec")
	}
	if opts.Users == nil {
		return nil, errors.New("session manager requires a user directory")
	}
	if opts.Logger == nil {
		return nil, errors.New("session manager requires a logger")
	}

	sweepInterval := opts.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	} else if sweepInterval < minSweepInterval {
		opts.Logger.Warn("sweep interval too small, adjusting to %s", minSweepInterval)
		sweepInterval = minSweepInterval
	}

	mgr := &Manager{
		store:         opts.Store,
		codec:         opts.Codec,
		users:         opts.Users,
		logger:        opts.Logger,
		events:        opts.Events,
		sweepInterval: sweepInterval,
		sweepStop:     make(chan struct{}),
	}

	go mgr.runSweep()
	return mgr, nil
}

func (m *Manager) runSweep() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Failures self-heal on the next cycle; never surfaced to requests.
			if _, err := m.Sweep(context.Background()); err != nil {
				m.logger.Warn("credential sweep failed: %v", err)
			}
		case <-m.sweepStop:
			return
		}
	}
}

// Login verifies credentials, mints a token pair and registers the refresh
// credential for the device.
func (m *Manager) Login(ctx context.Context, email, password, deviceInfo string) (*LoginResult, error) {
	identity, err := m.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		m.logger.Error("credential verification failed: %v", err)
		return nil, err
	}
	if identity == nil {
		m.logger.Debug("login rejected for %s", email)
		return nil, ErrInvalidCredentials
	}

	pair, cred, err := m.mintPair(identity, deviceInfo)
	if err != nil {
		return nil, err
	}

	// Run the store mutation to completion even if the client disconnects,
	// so a successful login never leaves zero live credentials behind.
	mutCtx := context.WithoutCancel(ctx)
	if err := m.store.Append(mutCtx, cred); err != nil {
		m.logger.Error("failed to append refresh credential for user %d: %v", identity.ID, err)
		return nil, err
	}
	if err := m.users.TouchLastLogin(mutCtx, identity.ID); err != nil {
		m.logger.Warn("failed to update last login for user %d: %v", identity.ID, err)
	}

	m.publish(eventbus.EventUserLoggedIn, eventbus.AuthEvent{
		UserID:     identity.ID,
		Email:      identity.Email,
		DeviceInfo: cred.DeviceInfo,
		At:         time.Now(),
	})
	m.logger.Info("user %d logged in from %q", identity.ID, cred.DeviceInfo)

	return &LoginResult{Tokens: pair, Identity: *identity}, nil
}

// Refresh rotates a verified refresh token: the old store record is swapped
// for a fresh one carrying the same device label, and a new pair is minted.
// The caller must have verified the token via VerifyRefresh first.
func (m *Manager) Refresh(ctx context.Context, claims *Claims, oldToken string) (*model.TokenPair, error) {
	if claims == nil {
		return nil, ErrRevokedOrUnknown
	}

	old, ok, err := m.store.FindLive(ctx, claims.UserID, oldToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRevokedOrUnknown
	}

	identity := &model.Identity{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
	pair, cred, err := m.mintPair(identity, old.DeviceInfo)
	if err != nil {
		return nil, err
	}

	// The store decides the race: only one concurrent rotation of the same
	// token finds the old record; every other caller observes not-found.
	mutCtx := context.WithoutCancel(ctx)
	if err := m.store.Replace(mutCtx, claims.UserID, oldToken, cred); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("refresh token already consumed for user %d", claims.UserID)
			return nil, ErrRevokedOrUnknown
		}
		m.logger.Error("credential rotation failed for user %d: %v", claims.UserID, err)
		return nil, err
	}

	m.publish(eventbus.EventTokenRotated, eventbus.AuthEvent{
		UserID:     claims.UserID,
		Email:      claims.Email,
		DeviceInfo: cred.DeviceInfo,
		At:         time.Now(),
	})

	return &pair, nil
}

// Logout removes the device's refresh credential. It reports success whether
// or not the token was present, so the result leaks nothing about validity.
func (m *Manager) Logout(ctx context.Context, userID uint, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	removed, err := m.store.RemoveByToken(context.WithoutCancel(ctx), userID, refreshToken)
	if err != nil {
		m.logger.Error("logout failed for user %d: %v", userID, err)
		return err
	}
	if removed {
		m.publish(eventbus.EventUserLoggedOut, eventbus.AuthEvent{UserID: userID, At: time.Now()})
	}
	return nil
}

// LogoutAll revokes every device's refresh credential at once. Outstanding
// access tokens stay valid until their own short expiry.
func (m *Manager) LogoutAll(ctx context.Context, userID uint) error {
	if err := m.store.ClearAll(context.WithoutCancel(ctx), userID); err != nil {
		m.logger.Error("logout-all failed for user %d: %v", userID, err)
		return err
	}
	m.publish(eventbus.EventUserLoggedOut, eventbus.AuthEvent{
		UserID:     userID,
		AllDevices: true,
		At:         time.Now(),
	})
	m.logger.Info("user %d logged out everywhere", userID)
	return nil
}

// Profile returns the sanitized identity for an authenticated caller.
func (m *Manager) Profile(ctx context.Context, userID uint) (*model.Identity, error) {
	identity, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrUserNotFound
	}
	return identity, nil
}

// VerifyAccess validates an access token. Access tokens carry no store
// record and are not individually revocable.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.codec.Verify(token, ClassAccess)
}

// VerifyRefresh validates a refresh token cryptographically and then against
// the store. A signature-valid token with no live record fails with
// ErrRevokedOrUnknown: for revocation, the store outranks the embedded expiry.
func (m *Manager) VerifyRefresh(ctx context.Context, token string) (*Claims, error) {
	claims, err := m.codec.Verify(token, ClassRefresh)
	if err != nil {
		return nil, err
	}
	ok, err := m.store.ExistsWithToken(ctx, claims.UserID, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRevokedOrUnknown
	}
	return claims, nil
}

// Sweep removes every expired credential record and reports the count.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	removed, err := m.store.SweepExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.logger.Info("swept %d expired refresh credentials", removed)
		m.publish(eventbus.EventTokensSwept, eventbus.AuthEvent{Swept: removed, At: time.Now()})
	}
	return removed, nil
}

// Store exposes the credential store for inspection endpoints.
func (m *Manager) Store() store.Store {
	return m.store
}

// Close stops the sweeper and releases the store.
func (m *Manager) Close() error {
	m.sweepOnce.Do(func() {
		close(m.sweepStop)
	})
	if err := m.store.Close(context.Background()); err != nil {
		m.logger.Error("failed closing credential store: %v", err)
		return err
	}
	return nil
}

func (m *Manager) mintPair(identity *model.Identity, deviceInfo string) (model.TokenPair, model.RefreshCredential, error) {
	access, _, err := m.codec.Issue(identity, ClassAccess)
	if err != nil {
		m.logger.Error("access token signing failed: %v", err)
		return model.TokenPair{}, model.RefreshCredential{}, err
	}
	refresh, expiresAt, err := m.codec.Issue(identity, ClassRefresh)
	if err != nil {
		m.logger.Error("refresh token signing failed: %v", err)
		return model.TokenPair{}, model.RefreshCredential{}, err
	}

	if deviceInfo == "" {
		deviceInfo = model.DefaultDeviceInfo
	}
	cred := model.RefreshCredential{
		ID:         uuid.New().String(),
		UserID:     identity.ID,
		Token:      refresh,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, cred, nil
}

func (m *Manager) publish(topic string, event eventbus.AuthEvent) {
	if m.events != nil {
		m.events.Publish(topic, event)
	}
}
