package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkrmehta/lms-backend/config"
	userapp "github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/pkg/mailer"
	"github.com/sandeepkrmehta/lms-backend/pkg/response"
	"github.com/sandeepkrmehta/lms-backend/pkg/validation"
)

// MiscHandler serves the contact form and the admin dashboard stats.
type MiscHandler struct {
	Users  *userapp.UserService
	Pub    userapp.EmailPublisher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewMiscHandler(users *userapp.UserService, pub userapp.EmailPublisher, cfg *config.Config, logger *logrus.Logger) *MiscHandler {
	return &MiscHandler{Users: users, Pub: pub, Cfg: cfg, Logger: logger}
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,min=10"`
}

// Contact POST /api/contact — forwards the message to the support inbox
// through the email queue.
func (h *MiscHandler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if h.Pub == nil {
		response.Error(c, http.StatusServiceUnavailable, "contact form is unavailable", nil)
		return
	}
	job := mailer.EmailJob{
		To:      h.Cfg.ContactEmail,
		Subject: "Contact form: " + req.Name,
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message),
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		h.Logger.WithError(err).Error("contact enqueue failed")
		response.Error(c, http.StatusInternalServerError, "failed to send message", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "message sent")
}

// AdminStats GET /api/admin/stats (admin)
func (h *MiscHandler) AdminStats(c *gin.Context) {
	total, subscribers, err := h.Users.Stats(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("stats query failed")
		response.Error(c, http.StatusInternalServerError, "failed to load stats", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"users_count":            total,
		"subscribed_users_count": subscribers,
	}, "admin stats")
}
