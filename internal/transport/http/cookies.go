package httptransport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quill-server-go/internal/domain/session/model"
)

// Cookie names checked before the Authorization header.
const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// CookieWriter issues and clears the auth cookie pair. Cookies are HttpOnly
// and SameSite=Strict; Secure tracks the production flag so local development
// over plain HTTP still works.
type CookieWriter struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

func (w CookieWriter) Set(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookieName, pair.AccessToken, int(w.AccessTTL.Seconds()), "/", "", w.Secure, true)
	c.SetCookie(refreshCookieName, pair.RefreshToken, int(w.RefreshTTL.Seconds()), "/", "", w.Secure, true)
}

func (w CookieWriter) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookieName, "", -1, "/", "", w.Secure, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", w.Secure, true)
}
