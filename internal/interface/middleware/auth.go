package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	repo "github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
	"github.com/sandeepkrmehta/lms-backend/pkg/response"
)

const ctxClaimsKey = "authClaims"

// ClaimsFromCtx returns the typed session claims set by Auth. The second
// return is false on routes that never ran Auth.
func ClaimsFromCtx(c *gin.Context) (*helpers.Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.Claims)
	return claims, ok
}

// MustClaims is for handlers behind Auth, where claims are always present.
func MustClaims(c *gin.Context) *helpers.Claims {
	claims, ok := ClaimsFromCtx(c)
	if !ok {
		panic("middleware: claims accessed on a route without Auth")
	}
	return claims
}

// Auth is the sole entry gate for protected operations: it reads the session
// cookie, verifies the token and stores the decoded claims in the request
// context. Missing, invalid and expired tokens all abort with 401.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(helpers.SessionCookieName)
		claims, err := jwt.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, helpers.ErrTokenMissing):
				response.AbortError(c, http.StatusUnauthorized, "unauthenticated, please login", nil)
			case errors.Is(err, helpers.ErrTokenExpired):
				response.AbortError(c, http.StatusUnauthorized, "session expired, please login again", nil)
			default:
				response.AbortError(c, http.StatusUnauthorized, "invalid session, please login again", nil)
			}
			return
		}
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

// RequireRoles rejects with 403 unless the claims role is in the allowed set.
// This is a plain allow-list: ADMIN passes only when listed.
func RequireRoles(roles []entity.Role) gin.HandlerFunc {
	allowed := make(map[entity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := MustClaims(c)
		if _, ok := allowed[entity.Role(claims.Role)]; !ok {
			response.AbortError(c, http.StatusForbidden, "you do not have permission to access this route", nil)
			return
		}
		c.Next()
	}
}

// SubscriberLookup is the fresh user-record read RequireSubscriber needs.
type SubscriberLookup interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// RequireSubscriber gates subscriber-only content. The subscription status is
// looked up fresh rather than trusted from the token, since it can change
// between issuance and use. Admins always pass.
func RequireSubscriber(users SubscriberLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := MustClaims(c)
		if entity.Role(claims.Role) == entity.RoleAdmin {
			c.Next()
			return
		}
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				response.AbortError(c, http.StatusNotFound, "user not found", nil)
				return
			}
			response.AbortError(c, http.StatusInternalServerError, "error verifying subscription status", nil)
			return
		}
		if !u.HasActiveSubscription() {
			response.AbortError(c, http.StatusForbidden, "please subscribe to access this route", nil)
			return
		}
		c.Next()
	}
}

var _ SubscriberLookup = (repo.UserRepository)(nil)
