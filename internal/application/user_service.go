package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	repo "github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
	"github.com/sandeepkrmehta/lms-backend/pkg/mailer"
)

// EmailPublisher enqueues outbound email for the worker. Satisfied by
// helpers.RabbitPublisher; faked in tests.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserService implements registration, credential verification, the reset
// token lifecycle and profile management on top of the user record store.
type UserService struct {
	Repo          repo.UserRepository
	JWT           *helpers.JWTManager
	GCS           *storage.Client
	GCSBucket     string
	Pub           EmailPublisher
	Logger        *logrus.Logger
	ClientURL     string
	ResetTokenTTL time.Duration
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, pub EmailPublisher, logger *logrus.Logger, clientURL string, resetTokenTTL time.Duration) *UserService {
	return &UserService{
		Repo:          r,
		JWT:           jwt,
		GCS:           gcs,
		GCSBucket:     gcsBucket,
		Pub:           pub,
		Logger:        logger,
		ClientURL:     clientURL,
		ResetTokenTTL: resetTokenTTL,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// Register creates a new USER-role account. Role is fixed at creation; admin
// accounts come from the seed command only.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		FullName:           in.FullName,
		Email:              strings.ToLower(in.Email),
		Password:           hash,
		Role:               entity.RoleUser,
		SubscriptionStatus: entity.SubscriptionInactive,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate validates email/password. The rejection does not say which of
// the two was wrong.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueSession produces a signed session token for the user.
func (s *UserService) IssueSession(u *entity.User) (string, time.Time, error) {
	return s.JWT.Issue(u.ID, string(u.Role))
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

type UpdateProfileInput struct {
	FullName string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		u.FullName = in.FullName
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadAvatar stores the image in GCS and points the profile at it.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	if u.AvatarPublicID != "" {
		if derr := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, u.AvatarPublicID); derr != nil {
			s.Logger.WithError(derr).WithField("object", u.AvatarPublicID).Warn("old avatar delete failed")
		}
	}
	u.AvatarPublicID = objectPath
	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword verifies the old password before re-hashing the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CheckPassword(u.Password, oldPassword) {
		return ErrInvalidCredentials
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, u.ID, hash)
}

// ForgotPassword issues a single-use reset token: the hash and expiry go on
// the user row, the plaintext goes out by email. If delivery cannot be
// enqueued the stored pair is cleared before the error surfaces, so no
// unreachable-but-valid token is left behind.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	plain, err := helpers.NewResetToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.ResetTokenTTL)
	if err := s.Repo.SetResetToken(ctx, u.ID, helpers.HashResetToken(plain), expiry); err != nil {
		return err
	}

	resetURL := strings.TrimRight(s.ClientURL, "/") + "/user/profile/reset-password/" + plain
	if s.Pub == nil {
		// Dev setup without a broker: the link is only in the logs.
		s.Logger.WithField("reset_url", resetURL).Warn("email publisher not configured; reset link not sent")
		return nil
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Subject: "Reset Password",
		Text:    "Reset password here: " + resetURL + ". If not requested, ignore this email.",
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		if cerr := s.Repo.ClearResetToken(ctx, u.ID); cerr != nil {
			s.Logger.WithError(cerr).WithField("user_id", u.ID).Error("clearing reset token after failed delivery")
		}
		return err
	}
	return nil
}

// ResetPassword redeems a reset token. Lookup, password replacement and
// clearing of the reset pair happen as one record update in the repository;
// unknown and expired tokens get the same rejection.
func (s *UserService) ResetPassword(ctx context.Context, plainToken, newPassword string) error {
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.Repo.RedeemResetToken(ctx, helpers.HashResetToken(plainToken), hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetTokenInvalid
	}
	return nil
}

// Stats returns registered user and active subscriber counts for the admin
// dashboard.
func (s *UserService) Stats(ctx context.Context) (total int, subscribers int, err error) {
	return s.Repo.CountUsers(ctx)
}
