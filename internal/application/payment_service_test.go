package application_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/internal/paymentprovider"
)

type fakePaymentRepo struct {
	payments []entity.Payment
}

func (f *fakePaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	p.ID = "pay-row-" + strconv.Itoa(len(f.payments)+1)
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakePaymentRepo) List(_ context.Context, limit int) ([]entity.Payment, error) {
	if limit <= 0 || limit > len(f.payments) {
		limit = len(f.payments)
	}
	return f.payments[:limit], nil
}

func providerSignature(secret, paymentID, subscriptionID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// fakeProviderServer answers create and cancel subscription calls.
func fakeProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subscriptions":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(paymentprovider.Subscription{ID: "sub-1", Status: "created"})
		case "/subscriptions/sub-1/cancel":
			_ = json.NewEncoder(w).Encode(paymentprovider.Subscription{ID: "sub-1", Status: "cancelled"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newPaymentFixture(t *testing.T) (*application.PaymentService, *fakeUserRepo, *fakePaymentRepo) {
	t.Helper()
	srv := fakeProviderServer(t)
	t.Cleanup(srv.Close)

	users := newFakeUserRepo()
	payments := &fakePaymentRepo{}
	provider := paymentprovider.NewClient(srv.URL, "key-id", "key-secret")
	svc := application.NewPaymentService(users, payments, provider, "plan-1", quietLogger())
	return svc, users, payments
}

func seedUser(t *testing.T, users *fakeUserRepo, role entity.Role, subID, subStatus string) *entity.User {
	t.Helper()
	u := &entity.User{
		FullName:           "Someone",
		Email:              "someone" + string(role) + subStatus + "@example.com",
		Password:           "x",
		Role:               role,
		SubscriptionID:     subID,
		SubscriptionStatus: subStatus,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestSubscribeCreatesProviderSubscription(t *testing.T) {
	svc, users, _ := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "", entity.SubscriptionInactive)

	subID, err := svc.Subscribe(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", subID)

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", stored.SubscriptionID)
	assert.Equal(t, entity.SubscriptionCreated, stored.SubscriptionStatus)
}

func TestSubscribeAdminRejected(t *testing.T) {
	svc, users, _ := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleAdmin, "", entity.SubscriptionInactive)

	_, err := svc.Subscribe(context.Background(), u.ID)
	assert.ErrorIs(t, err, application.ErrAdminSubscription)
}

func TestSubscribeActiveIsIdempotent(t *testing.T) {
	svc, users, _ := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "sub-existing", entity.SubscriptionActive)

	subID, err := svc.Subscribe(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub-existing", subID)
}

func TestSubscribeUnknownUser(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)
	_, err := svc.Subscribe(context.Background(), "ghost")
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestVerifyActivatesSubscription(t *testing.T) {
	svc, users, payments := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "sub-1", entity.SubscriptionCreated)

	sig := providerSignature("key-secret", "pay-1", "sub-1")
	err := svc.Verify(context.Background(), u.ID, application.VerifyInput{
		PaymentID:      "pay-1",
		SubscriptionID: "sub-1",
		Signature:      sig,
	})
	require.NoError(t, err)

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionActive, stored.SubscriptionStatus)

	require.Len(t, payments.payments, 1)
	assert.Equal(t, "pay-1", payments.payments[0].PaymentID)
	assert.Equal(t, u.ID, payments.payments[0].UserID)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	svc, users, payments := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "sub-1", entity.SubscriptionCreated)

	err := svc.Verify(context.Background(), u.ID, application.VerifyInput{
		PaymentID:      "pay-1",
		SubscriptionID: "sub-1",
		Signature:      "forged",
	})
	assert.ErrorIs(t, err, application.ErrPaymentInvalid)
	assert.Empty(t, payments.payments)

	stored, gerr := users.GetByID(context.Background(), u.ID)
	require.NoError(t, gerr)
	assert.Equal(t, entity.SubscriptionCreated, stored.SubscriptionStatus)
}

func TestVerifyRejectsMismatchedSubscription(t *testing.T) {
	svc, users, _ := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "sub-1", entity.SubscriptionCreated)

	sig := providerSignature("key-secret", "pay-1", "sub-other")
	err := svc.Verify(context.Background(), u.ID, application.VerifyInput{
		PaymentID:      "pay-1",
		SubscriptionID: "sub-other",
		Signature:      sig,
	})
	assert.ErrorIs(t, err, application.ErrPaymentInvalid)
}

func TestUnsubscribe(t *testing.T) {
	svc, users, _ := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "sub-1", entity.SubscriptionActive)

	require.NoError(t, svc.Unsubscribe(context.Background(), u.ID))

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionCancelled, stored.SubscriptionStatus)
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	svc, users, _ := newPaymentFixture(t)
	u := seedUser(t, users, entity.RoleUser, "", entity.SubscriptionInactive)

	err := svc.Unsubscribe(context.Background(), u.ID)
	assert.ErrorIs(t, err, application.ErrNoSubscription)
}
