package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkrmehta/lms-backend/internal/container"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	handlers "github.com/sandeepkrmehta/lms-backend/internal/interface/http"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
)

// CourseModule wires the catalog routes.
// Public: list, search. Subscriber: course detail with lectures.
// Admin: course and lecture management.
type CourseModule struct {
	Handler *handlers.CourseHandler
	Users   middleware.SubscriberLookup
}

func NewCourseModule(h *handlers.CourseHandler, users middleware.SubscriberLookup) *CourseModule {
	return &CourseModule{Handler: h, Users: users}
}

func (m *CourseModule) Register(rg *gin.RouterGroup) {
	publicLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	searchLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	course := rg.Group("/course")
	course.GET("/all", publicLimiter, m.Handler.List)
	course.GET("/search", searchLimiter, m.Handler.Search)

	// Course content is for subscribers; admins pass regardless.
	sub := course.Group("")
	sub.Use(middleware.Auth(container.GetJWT()), middleware.RequireSubscriber(m.Users))
	{
		sub.GET("/:id", m.Handler.Get)
	}

	admin := course.Group("")
	admin.Use(middleware.Auth(container.GetJWT()), middleware.RequireRoles([]entity.Role{entity.RoleAdmin}))
	{
		admin.POST("", m.Handler.Create)
		admin.PUT("/:id", m.Handler.Update)
		admin.DELETE("/:id", m.Handler.Delete)
		admin.POST("/:id/lecture", m.Handler.AddLecture)
		admin.DELETE("/:id/lecture/:lectureId", m.Handler.RemoveLecture)
	}
}
