package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	repo "github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
	"github.com/sandeepkrmehta/lms-backend/internal/paymentprovider"
)

// PaymentService owns subscription state on the user record. The identity
// core only ever reads subscription_status; every write goes through here.
type PaymentService struct {
	Users    repo.UserRepository
	Payments repo.PaymentRepository
	Provider *paymentprovider.Client
	PlanID   string
	Logger   *logrus.Logger
}

func NewPaymentService(users repo.UserRepository, payments repo.PaymentRepository, provider *paymentprovider.Client, planID string, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		Users:    users,
		Payments: payments,
		Provider: provider,
		PlanID:   planID,
		Logger:   logger,
	}
}

// KeyID returns the provider's public key id for the front end checkout.
func (s *PaymentService) KeyID() string {
	return s.Provider.KeyID()
}

// Subscribe creates a provider subscription and stores its id with status
// "created". Verification flips it to "active".
func (s *PaymentService) Subscribe(ctx context.Context, userID string) (string, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if u.Role == entity.RoleAdmin {
		return "", ErrAdminSubscription
	}
	if u.SubscriptionStatus == entity.SubscriptionActive {
		return u.SubscriptionID, nil
	}

	sub, err := s.Provider.CreateSubscription(ctx, s.PlanID)
	if err != nil {
		return "", err
	}
	if err := s.Users.SetSubscription(ctx, u.ID, sub.ID, entity.SubscriptionCreated); err != nil {
		return "", err
	}
	return sub.ID, nil
}

type VerifyInput struct {
	PaymentID      string
	SubscriptionID string
	Signature      string
}

// Verify checks the provider signature against the subscription stored for
// the user; on success the subscription becomes active and the payment is
// recorded.
func (s *PaymentService) Verify(ctx context.Context, userID string, in VerifyInput) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.SubscriptionID == "" || u.SubscriptionID != in.SubscriptionID {
		return ErrPaymentInvalid
	}
	if !s.Provider.VerifySignature(in.PaymentID, in.SubscriptionID, in.Signature) {
		return ErrPaymentInvalid
	}

	if err := s.Payments.Create(ctx, &entity.Payment{
		UserID:         u.ID,
		PaymentID:      in.PaymentID,
		SubscriptionID: in.SubscriptionID,
		Signature:      in.Signature,
	}); err != nil {
		return err
	}
	return s.Users.SetSubscription(ctx, u.ID, in.SubscriptionID, entity.SubscriptionActive)
}

// Unsubscribe cancels the provider subscription and marks the user cancelled.
func (s *PaymentService) Unsubscribe(ctx context.Context, userID string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.SubscriptionID == "" {
		return ErrNoSubscription
	}
	if _, err := s.Provider.CancelSubscription(ctx, u.SubscriptionID); err != nil {
		return err
	}
	return s.Users.SetSubscription(ctx, u.ID, u.SubscriptionID, entity.SubscriptionCancelled)
}

// List returns the most recent recorded payments for the admin view.
func (s *PaymentService) List(ctx context.Context, limit int) ([]entity.Payment, error) {
	return s.Payments.List(ctx, limit)
}
