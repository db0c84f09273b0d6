package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkrmehta/lms-backend/internal/container"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	handlers "github.com/sandeepkrmehta/lms-backend/internal/interface/http"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
)

// MiscModule wires the contact form and the admin dashboard.
type MiscModule struct {
	Handler *handlers.MiscHandler
}

func NewMiscModule(h *handlers.MiscHandler) *MiscModule {
	return &MiscModule{Handler: h}
}

func (m *MiscModule) Register(rg *gin.RouterGroup) {
	contactLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.POST("/contact", contactLimiter, m.Handler.Contact)

	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(container.GetJWT()), middleware.RequireRoles([]entity.Role{entity.RoleAdmin}))
	{
		admin.GET("/stats", m.Handler.AdminStats)
	}
}
