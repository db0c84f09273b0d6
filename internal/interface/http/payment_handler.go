package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	payapp "github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
	"github.com/sandeepkrmehta/lms-backend/pkg/response"
	"github.com/sandeepkrmehta/lms-backend/pkg/validation"
)

type PaymentHandler struct {
	Svc    *payapp.PaymentService
	Logger *logrus.Logger
}

func NewPaymentHandler(svc *payapp.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Logger: logger}
}

type verifyPaymentRequest struct {
	PaymentID      string `json:"payment_id" binding:"required"`
	SubscriptionID string `json:"subscription_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

// Key GET /api/payment/key (auth required). The public key id the front end
// needs to open the provider checkout.
func (h *PaymentHandler) Key(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"key": h.Svc.KeyID()}, "payment key")
}

// Subscribe POST /api/payment/subscribe (auth required)
func (h *PaymentHandler) Subscribe(c *gin.Context) {
	claims := middleware.MustClaims(c)
	subID, err := h.Svc.Subscribe(c.Request.Context(), claims.UserID)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"subscription_id": subID}, "subscription created")
	case errors.Is(err, payapp.ErrAdminSubscription):
		response.Error(c, http.StatusForbidden, "admins cannot purchase a subscription", nil)
	case errors.Is(err, payapp.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).Error("subscribe failed")
		response.Error(c, http.StatusInternalServerError, "failed to create subscription", nil)
	}
}

// Verify POST /api/payment/verify (auth required)
func (h *PaymentHandler) Verify(c *gin.Context) {
	claims := middleware.MustClaims(c)
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.Verify(c.Request.Context(), claims.UserID, payapp.VerifyInput{
		PaymentID:      req.PaymentID,
		SubscriptionID: req.SubscriptionID,
		Signature:      req.Signature,
	})
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"verified": true}, "payment verified")
	case errors.Is(err, payapp.ErrPaymentInvalid):
		response.Error(c, http.StatusBadRequest, "payment could not be verified", nil)
	case errors.Is(err, payapp.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).Error("payment verify failed")
		response.Error(c, http.StatusInternalServerError, "failed to verify payment", nil)
	}
}

// Unsubscribe POST /api/payment/unsubscribe (auth required)
func (h *PaymentHandler) Unsubscribe(c *gin.Context) {
	claims := middleware.MustClaims(c)
	err := h.Svc.Unsubscribe(c.Request.Context(), claims.UserID)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"cancelled": true}, "subscription cancelled")
	case errors.Is(err, payapp.ErrNoSubscription):
		response.Error(c, http.StatusBadRequest, "no subscription to cancel", nil)
	case errors.Is(err, payapp.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).Error("unsubscribe failed")
		response.Error(c, http.StatusInternalServerError, "failed to cancel subscription", nil)
	}
}

// List GET /api/payment/all (admin)
func (h *PaymentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	payments, err := h.Svc.List(c.Request.Context(), limit)
	if err != nil {
		h.Logger.WithError(err).Error("payment list failed")
		response.Error(c, http.StatusInternalServerError, "failed to load payments", nil)
		return
	}
	out := make([]gin.H, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		out = append(out, gin.H{
			"id":              p.ID,
			"user_id":         p.UserID,
			"payment_id":      p.PaymentID,
			"subscription_id": p.SubscriptionID,
			"created_at":      p.CreatedAt,
		})
	}
	response.Success(c, http.StatusOK, out, "payments")
}
