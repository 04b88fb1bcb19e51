package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quill-server-go/internal/domain/session"
	"quill-server-go/internal/domain/session/model"
	"quill-server-go/internal/platform/storage"
)

// AuthHandler serves the account and session lifecycle endpoints.
type AuthHandler struct {
	Manager *session.Manager
	Users   *storage.UserRepository
	Cookies CookieWriter
	Logger  model.Logger
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Bio      string `json:"bio"`
}

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	DeviceInfo string `json:"deviceInfo"`
}

// Register creates an account. Self-registration never grants admin.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid registration payload", nil)
		return
	}

	identity, err := h.Users.Create(c.Request.Context(), storage.NewUserParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Bio:      req.Bio,
		Role:     storage.RoleUser,
	})
	if err != nil {
		h.Logger.Warn("registration failed for %s: %v", req.Email, err)
		RespondError(c, http.StatusConflict, "could not register with these details", nil)
		return
	}

	RespondSuccess(c, http.StatusCreated, identity, "account created")
}

// Login verifies credentials and issues the token pair, both in the JSON
// body and as cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid login payload", nil)
		return
	}

	deviceInfo := req.DeviceInfo
	if deviceInfo == "" {
		deviceInfo = c.Request.UserAgent()
	}

	result, err := h.Manager.Login(c.Request.Context(), req.Email, req.Password, deviceInfo)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}
		h.Logger.Error("login failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	h.Cookies.Set(c, result.Tokens)
	RespondSuccess(c, http.StatusOK, gin.H{
		"user":   result.Identity,
		"tokens": result.Tokens,
	}, "logged in")
}

// Refresh rotates the caller's refresh token. Requires the refresh guard.
func (h *AuthHandler) Refresh(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}

	claims := &session.Claims{UserID: sess.UserID, Email: sess.Email, Role: sess.Role}
	pair, err := h.Manager.Refresh(c.Request.Context(), claims, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRevokedOrUnknown) {
			h.Cookies.Clear(c)
			RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
			return
		}
		h.Logger.Error("token rotation failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not refresh session", nil)
		return
	}

	h.Cookies.Set(c, *pair)
	RespondSuccess(c, http.StatusOK, gin.H{"tokens": pair}, "session refreshed")
}

// Logout revokes the current device's refresh credential and clears cookies.
// Succeeds whether or not the credential was still live.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}

	// The access guard admitted us; the refresh credential to revoke rides in
	// its own cookie or an optional body field, and may legitimately be gone.
	token := sess.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(refreshCookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			token = body.RefreshToken
		}
	}

	if err := h.Manager.Logout(c.Request.Context(), sess.UserID, token); err != nil {
		h.Logger.Error("logout failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	h.Cookies.Clear(c)
	RespondSuccess(c, http.StatusOK, nil, "logged out")
}

// LogoutAll revokes every device session for the caller.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}

	if err := h.Manager.LogoutAll(c.Request.Context(), sess.UserID); err != nil {
		h.Logger.Error("logout-all failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	h.Cookies.Clear(c)
	RespondSuccess(c, http.StatusOK, nil, "logged out everywhere")
}

// Profile returns the caller's account details.
func (h *AuthHandler) Profile(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}

	identity, err := h.Manager.Profile(c.Request.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, session.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, "account no longer exists", nil)
			return
		}
		h.Logger.Error("profile lookup failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "could not load profile", nil)
		return
	}

	RespondSuccess(c, http.StatusOK, identity, "")
}

// Me echoes the token claims without touching storage. Cheap liveness probe
// for frontends.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{
		"id":    sess.UserID,
		"email": sess.Email,
		"role":  sess.Role,
	}, "")
}

// CleanExpired triggers an immediate credential sweep. Admin only.
func (h *AuthHandler) CleanExpired(c *gin.Context) {
	removed, err := h.Manager.Sweep(c.Request.Context())
	if err != nil {
		h.Logger.Error("manual sweep failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "sweep failed", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{"removed": removed}, "expired credentials removed")
}
