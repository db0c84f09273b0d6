package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkrmehta/lms-backend/internal/container"
	handlers "github.com/sandeepkrmehta/lms-backend/internal/interface/http"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
)

// UserModule wires the account routes.
// Public: register, login, logout, the reset token lifecycle. Logout only
// clears the cookie, so it works without a live session.
// Protected: profile, change-password.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	// forgot-password is the cheapest endpoint to abuse, keep it tight
	forgotLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	user := rg.Group("/user")
	user.POST("/register", registerLimiter, m.Handler.Register)
	user.POST("/login", loginLimiter, m.Handler.Login)
	user.GET("/logout", m.Handler.Logout)
	user.POST("/reset", forgotLimiter, m.Handler.ForgotPassword)
	user.POST("/reset/:resetToken", resetLimiter, m.Handler.ResetPassword)

	auth := user.Group("/")
	auth.Use(middleware.Auth(container.GetJWT()))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		auth.GET("/me", m.Handler.Me)
		auth.PUT("/update", m.Handler.UpdateProfile)
		auth.POST("/change-password", m.Handler.ChangePassword)
	}
}
