package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
	"github.com/sandeepkrmehta/lms-backend/pkg/response"
	"github.com/sandeepkrmehta/lms-backend/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.UserService
	Cookies *helpers.CookieManager
	Logger  *logrus.Logger
}

func NewUserHandler(svc *userapp.UserService, cookies *helpers.CookieManager, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

type registerRequest struct {
	Name     string `form:"name" binding:"required,min=2"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name string `form:"name"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,pwd"`
}

// userView is the API projection of a user; the password hash and reset
// token fields never leave the server.
func userView(u *entity.User) gin.H {
	return gin.H{
		"id":                  u.ID,
		"name":                u.FullName,
		"email":               u.Email,
		"role":                u.Role,
		"avatar_url":          u.AvatarURL,
		"subscription_status": u.SubscriptionStatus,
		"created_at":          u.CreatedAt,
		"updated_at":          u.UpdatedAt,
	}
}

// Register POST /api/user/register (multipart, optional avatar file)
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		FullName: req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrEmailTaken) {
			response.Error(c, http.StatusBadRequest, "email is already registered", nil)
			return
		}
		h.Logger.WithError(err).Error("register failed")
		response.Error(c, http.StatusInternalServerError, "failed to register", nil)
		return
	}

	if fh, err := c.FormFile("avatar"); err == nil {
		f, err := fh.Open()
		if err == nil {
			defer f.Close()
			if updated, err := h.Svc.UploadAvatar(c.Request.Context(), u.ID, f, fh.Filename, fh.Header.Get("Content-Type")); err == nil {
				u = updated
			} else {
				h.Logger.WithError(err).Warn("avatar upload failed during registration")
			}
		}
	}

	token, exp, err := h.Svc.IssueSession(u)
	if err != nil {
		h.Logger.WithError(err).Error("session issue failed")
		response.Error(c, http.StatusInternalServerError, "failed to register", nil)
		return
	}
	h.Cookies.Attach(c, token)
	response.Success(c, http.StatusCreated, gin.H{"user": userView(u), "expires_at": exp}, "registration successful")
}

// Login POST /api/user/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidCredentials) {
			// unknown email and wrong password are indistinguishable on purpose
			response.Error(c, http.StatusBadRequest, "invalid email or password", nil)
			return
		}
		h.Logger.WithError(err).Error("authentication lookup failed")
		response.Error(c, http.StatusInternalServerError, "failed to login", nil)
		return
	}
	token, exp, err := h.Svc.IssueSession(u)
	if err != nil {
		h.Logger.WithError(err).Error("session issue failed")
		response.Error(c, http.StatusInternalServerError, "failed to login", nil)
		return
	}
	h.Cookies.Attach(c, token)
	response.Success(c, http.StatusOK, gin.H{"user": userView(u), "expires_at": exp}, "login successful")
}

// Logout GET /api/user/logout. Sessions are stateless, so clearing the
// cookie is the whole operation.
func (h *UserHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}

// Me GET /api/user/me (auth required)
func (h *UserHandler) Me(c *gin.Context) {
	claims := middleware.MustClaims(c)
	u, err := h.Svc.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("profile lookup failed")
		response.Error(c, http.StatusInternalServerError, "failed to load profile", nil)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "profile")
}

// UpdateProfile PUT /api/user/update (auth required, multipart, optional avatar)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.MustClaims(c)
	var req updateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateProfile(c.Request.Context(), claims.UserID, userapp.UpdateProfileInput{FullName: req.Name})
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("profile update failed")
		response.Error(c, http.StatusInternalServerError, "failed to update profile", nil)
		return
	}

	if fh, err := c.FormFile("avatar"); err == nil {
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, "unreadable avatar file", nil)
			return
		}
		defer f.Close()
		u, err = h.Svc.UploadAvatar(c.Request.Context(), claims.UserID, f, fh.Filename, fh.Header.Get("Content-Type"))
		if err != nil {
			h.Logger.WithError(err).Error("avatar upload failed")
			response.Error(c, http.StatusInternalServerError, "failed to upload avatar", nil)
			return
		}
	}

	response.Success(c, http.StatusOK, userView(u), "profile updated")
}

// ChangePassword POST /api/user/change-password (auth required)
func (h *UserHandler) ChangePassword(c *gin.Context) {
	claims := middleware.MustClaims(c)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.ChangePassword(c.Request.Context(), claims.UserID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"changed": true}, "password changed")
	case errors.Is(err, userapp.ErrInvalidCredentials):
		response.Error(c, http.StatusBadRequest, "old password is incorrect", nil)
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).Error("change password failed")
		response.Error(c, http.StatusInternalServerError, "failed to change password", nil)
	}
}

// ForgotPassword POST /api/user/reset
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.ForgotPassword(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"sent": true}, "reset link sent to your email")
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Error(c, http.StatusBadRequest, "email is not registered", nil)
	default:
		h.Logger.WithError(err).Error("forgot password failed")
		response.Error(c, http.StatusInternalServerError, "failed to send reset link", nil)
	}
}

// ResetPassword POST /api/user/reset/:resetToken
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.ResetPassword(c.Request.Context(), c.Param("resetToken"), req.Password)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"reset": true}, "password updated, please login")
	case errors.Is(err, userapp.ErrResetTokenInvalid):
		// unknown and expired tokens get the same answer
		response.Error(c, http.StatusBadRequest, "invalid or expired reset token", nil)
	default:
		h.Logger.WithError(err).Error("reset password failed")
		response.Error(c, http.StatusInternalServerError, "failed to reset password", nil)
	}
}
