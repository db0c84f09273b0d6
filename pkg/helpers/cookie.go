package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// CookieManager decides cookie attributes per deployment environment. The
// policy is fixed at construction: production serves the SPA from another
// origin, so the cookie must be Secure and SameSite=None there; everywhere
// else Lax over plain HTTP is fine.
type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

func NewCookieManager(domain string, production bool, maxAge time.Duration) *CookieManager {
	m := &CookieManager{Domain: domain, MaxAge: maxAge, Secure: false, SameSite: http.SameSiteLaxMode}
	if production {
		m.Secure = true
		m.SameSite = http.SameSiteNoneMode
	}
	return m
}

// Attach sets the session cookie on the response. The token is opaque here.
func (m *CookieManager) Attach(c *gin.Context, token string) {
	c.SetSameSite(m.SameSite)
	c.SetCookie(SessionCookieName, token, int(m.MaxAge.Seconds()), "/", m.Domain, m.Secure, true)
}

// Clear overwrites the session cookie with an empty value and zero lifetime.
// With stateless tokens this is the entire logout operation.
func (m *CookieManager) Clear(c *gin.Context) {
	c.SetSameSite(m.SameSite)
	c.SetCookie(SessionCookieName, "", -1, "/", m.Domain, m.Secure, true)
}
