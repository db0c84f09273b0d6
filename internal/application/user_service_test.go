package application_test

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	repo "github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
	"github.com/sandeepkrmehta/lms-backend/pkg/mailer"
)

// fakeUserRepo is an in-memory repo.UserRepository with the same sentinel
// error contract as the postgres implementation.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = "user-" + strconv.Itoa(f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (f *fakeUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpiry = expiry
	return nil
}

func (f *fakeUserRepo) ClearResetToken(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = time.Time{}
	return nil
}

func (f *fakeUserRepo) RedeemResetToken(_ context.Context, tokenHash, passwordHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetTokenHash == tokenHash && u.ResetTokenExpiry.After(time.Now()) {
			u.Password = passwordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpiry = time.Time{}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) SetSubscription(_ context.Context, id, subscriptionID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.SubscriptionID = subscriptionID
	u.SubscriptionStatus = status
	return nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := len(f.users)
	subs := 0
	for _, u := range f.users {
		if u.SubscriptionStatus == entity.SubscriptionActive {
			subs++
		}
	}
	return total, subs, nil
}

type fakePublisher struct {
	jobs []mailer.EmailJob
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestUserService(r repo.UserRepository, pub application.EmailPublisher, resetTTL time.Duration) *application.UserService {
	return application.NewUserService(
		r,
		helpers.NewJWTManager("test-secret", time.Hour),
		nil, "",
		pub,
		quietLogger(),
		"http://localhost:5173",
		resetTTL,
	)
}

func registerUser(t *testing.T, svc *application.UserService, email, password string) *entity.User {
	t.Helper()
	u, err := svc.Register(context.Background(), application.RegisterInput{
		FullName: "Test User",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)

	u := registerUser(t, svc, "Alice@Example.com", "password123")

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.Equal(t, entity.SubscriptionInactive, u.SubscriptionStatus)
	assert.NotEqual(t, "password123", u.Password)
	assert.True(t, helpers.CheckPassword(u.Password, "password123"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)

	registerUser(t, svc, "alice@example.com", "password123")
	_, err := svc.Register(context.Background(), application.RegisterInput{
		FullName: "Someone Else",
		Email:    "ALICE@example.com",
		Password: "otherpassword",
	})
	assert.ErrorIs(t, err, application.ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)
	registerUser(t, svc, "alice@example.com", "password123")

	u, err := svc.Authenticate(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	// wrong password and unknown email are the same failure
	_, err = svc.Authenticate(context.Background(), "alice@example.com", "wrongpassword")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestIssueSessionRoundTrip(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)
	u := registerUser(t, svc, "alice@example.com", "password123")

	token, _, err := svc.IssueSession(u)
	require.NoError(t, err)

	claims, err := svc.JWT.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, string(entity.RoleUser), claims.Role)
}

func TestChangePassword(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)
	u := registerUser(t, svc, "alice@example.com", "password123")

	err := svc.ChangePassword(context.Background(), u.ID, "wrongpassword", "newpassword1")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), u.ID, "password123", "newpassword1")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "alice@example.com", "password123")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "alice@example.com", "newpassword1")
	assert.NoError(t, err)
}

// pulls the plaintext token back out of the emailed link
func tokenFromJob(t *testing.T, job mailer.EmailJob) string {
	t.Helper()
	const base = "/user/profile/reset-password/"
	idx := strings.Index(job.Text, base)
	require.GreaterOrEqual(t, idx, 0)
	rest := job.Text[idx+len(base):]
	return strings.SplitN(rest, ".", 2)[0]
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	r := newFakeUserRepo()
	pub := &fakePublisher{}
	svc := newTestUserService(r, pub, 15*time.Minute)

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, application.ErrUserNotFound)
	assert.Empty(t, pub.jobs)
}

func TestForgotPasswordStoresHashAndEmailsPlaintext(t *testing.T) {
	r := newFakeUserRepo()
	pub := &fakePublisher{}
	svc := newTestUserService(r, pub, 15*time.Minute)
	u := registerUser(t, svc, "alice@example.com", "password123")

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))
	require.Len(t, pub.jobs, 1)

	job := pub.jobs[0]
	assert.Equal(t, "alice@example.com", job.To)
	assert.Equal(t, "Reset Password", job.Subject)
	assert.Contains(t, job.Text, "http://localhost:5173/user/profile/reset-password/")

	plain := tokenFromJob(t, job)
	stored, err := r.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	// only the hash is persisted
	assert.NotEqual(t, plain, stored.ResetTokenHash)
	assert.Equal(t, helpers.HashResetToken(plain), stored.ResetTokenHash)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), stored.ResetTokenExpiry, 5*time.Second)
}

func TestForgotPasswordDeliveryFailureClearsToken(t *testing.T) {
	r := newFakeUserRepo()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestUserService(r, pub, 15*time.Minute)
	u := registerUser(t, svc, "alice@example.com", "password123")

	err := svc.ForgotPassword(context.Background(), "alice@example.com")
	require.Error(t, err)

	stored, gerr := r.GetByID(context.Background(), u.ID)
	require.NoError(t, gerr)
	assert.Empty(t, stored.ResetTokenHash)
	assert.True(t, stored.ResetTokenExpiry.IsZero())
}

func TestResetPasswordRedeemsOnce(t *testing.T) {
	r := newFakeUserRepo()
	pub := &fakePublisher{}
	svc := newTestUserService(r, pub, 15*time.Minute)
	registerUser(t, svc, "alice@example.com", "password123")

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))
	plain := tokenFromJob(t, pub.jobs[0])

	require.NoError(t, svc.ResetPassword(context.Background(), plain, "brandnewpass1"))

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "brandnewpass1")
	assert.NoError(t, err)

	// second redemption of the same token must fail
	err = svc.ResetPassword(context.Background(), plain, "anotherpass1")
	assert.ErrorIs(t, err, application.ErrResetTokenInvalid)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	r := newFakeUserRepo()
	pub := &fakePublisher{}
	svc := newTestUserService(r, pub, -time.Minute) // already expired on issue
	registerUser(t, svc, "alice@example.com", "password123")

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))
	plain := tokenFromJob(t, pub.jobs[0])

	err := svc.ResetPassword(context.Background(), plain, "brandnewpass1")
	assert.ErrorIs(t, err, application.ErrResetTokenInvalid)

	// the old password still works
	_, err = svc.Authenticate(context.Background(), "alice@example.com", "password123")
	assert.NoError(t, err)
}

func TestResetPasswordUnknownToken(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)
	registerUser(t, svc, "alice@example.com", "password123")

	err := svc.ResetPassword(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", "brandnewpass1")
	assert.ErrorIs(t, err, application.ErrResetTokenInvalid)
}

func TestStats(t *testing.T) {
	r := newFakeUserRepo()
	svc := newTestUserService(r, nil, 15*time.Minute)
	a := registerUser(t, svc, "alice@example.com", "password123")
	registerUser(t, svc, "bob@example.com", "password123")

	require.NoError(t, r.SetSubscription(context.Background(), a.ID, "sub-1", entity.SubscriptionActive))

	total, subs, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, subs)
}
