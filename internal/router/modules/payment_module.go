package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkrmehta/lms-backend/internal/container"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	handlers "github.com/sandeepkrmehta/lms-backend/internal/interface/http"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
)

// PaymentModule wires the subscription checkout routes. Everything here
// requires a session; the payment record listing is admin only.
type PaymentModule struct {
	Handler *handlers.PaymentHandler
}

func NewPaymentModule(h *handlers.PaymentHandler) *PaymentModule {
	return &PaymentModule{Handler: h}
}

func (m *PaymentModule) Register(rg *gin.RouterGroup) {
	payment := rg.Group("/payment")
	payment.Use(middleware.Auth(container.GetJWT()))
	payment.Use(middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil))

	payment.GET("/key", m.Handler.Key)
	payment.POST("/subscribe", m.Handler.Subscribe)
	payment.POST("/verify", m.Handler.Verify)
	payment.POST("/unsubscribe", m.Handler.Unsubscribe)

	admin := payment.Group("")
	admin.Use(middleware.RequireRoles([]entity.Role{entity.RoleAdmin}))
	{
		admin.GET("/all", m.Handler.List)
	}
}
