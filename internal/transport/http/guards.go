package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quill-server-go/internal/domain/session"
	"quill-server-go/internal/domain/session/model"
	"quill-server-go/internal/platform/storage"
)

const sessionContextKey = "auth.session"

// unauthorizedMessage is the single body for every guard rejection: expired,
// malformed, revoked and absent tokens read the same to the caller.
const unauthorizedMessage = "authentication required"

// Guards holds the route middleware protecting authenticated endpoints.
type Guards struct {
	Manager *session.Manager
	Logger  model.Logger
}

// extractToken looks for the named cookie first and falls back to a bearer
// Authorization header.
func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found && token != "" {
		return token
	}
	return ""
}

func (g *Guards) reject(c *gin.Context) {
	RespondError(c, http.StatusUnauthorized, unauthorizedMessage, nil)
	c.Abort()
}

// RequireAccess admits callers with a valid access token. No store lookup
// happens on this path.
func (g *Guards) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, accessCookieName)
		if token == "" {
			g.reject(c)
			return
		}
		claims, err := g.Manager.VerifyAccess(token)
		if err != nil {
			g.Logger.Debug("access token rejected: %v", err)
			g.reject(c)
			return
		}
		c.Set(sessionContextKey, model.Session{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		c.Next()
	}
}

// RequireRefresh admits callers whose refresh token is both signature-valid
// and still live in the credential store.
func (g *Guards) RequireRefresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, refreshCookieName)
		if token == "" {
			g.reject(c)
			return
		}
		claims, err := g.Manager.VerifyRefresh(c.Request.Context(), token)
		if err != nil {
			g.Logger.Debug("refresh token rejected: %v", err)
			g.reject(c)
			return
		}
		c.Set(sessionContextKey, model.Session{
			UserID:       claims.UserID,
			Email:        claims.Email,
			Role:         claims.Role,
			RefreshToken: token,
		})
		c.Next()
	}
}

// RequireRole layers a role check on top of an already-authenticated request.
func (g *Guards) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			g.reject(c)
			return
		}
		if sess.Role != role && sess.Role != storage.RoleAdmin {
			RespondError(c, http.StatusForbidden, "insufficient privileges", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the authenticated caller put in place by a guard.
func CurrentSession(c *gin.Context) (model.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return model.Session{}, false
	}
	sess, ok := value.(model.Session)
	return sess, ok
}
