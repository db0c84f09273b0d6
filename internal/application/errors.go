package application

import "errors"

// Recoverable rejections surfaced to callers as structured responses.
// Anything else bubbling out of a service is an infrastructure failure and
// maps to a 500.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLectureNotFound    = errors.New("lecture not found")
	ErrPaymentInvalid     = errors.New("payment verification failed")
	ErrNoSubscription     = errors.New("no subscription to cancel")
	ErrAdminSubscription  = errors.New("admins cannot subscribe")
)
