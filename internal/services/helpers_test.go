package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/venuebook/internal/metrics"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/services"
	"github.com/example/venuebook/internal/store"
	"github.com/example/venuebook/internal/testutil"
	"github.com/example/venuebook/internal/utils"
)

var errSMTPDown = errors.New("smtp: connection refused")

type sentMail struct {
	to   string
	link string
}

type captureMailer struct {
	mu           sync.Mutex
	verification []sentMail
	reset        []sentMail
	fail         error
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.verification = append(m.verification, sentMail{to: to, link: link})
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.reset = append(m.reset, sentMail{to: to, link: link})
	return nil
}

func (m *captureMailer) lastVerificationToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.verification, "no verification email sent")
	return tokenFromLink(m.verification[len(m.verification)-1].link)
}

func (m *captureMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.reset, "no reset email sent")
	return tokenFromLink(m.reset[len(m.reset)-1].link)
}

func tokenFromLink(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemRevoker() *memRevoker {
	return &memRevoker{revoked: make(map[string]time.Duration)}
}

func (r *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = ttl
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

type env struct {
	svc     *services.AuthService
	store   *store.AccountStore
	tokens  *utils.TokenService
	clock   *testutil.Clock
	mailer  *captureMailer
	revoker *memRevoker
	metrics *metrics.Metrics
}

const (
	testAccessTTL  = time.Hour
	testRefreshTTL = 24 * time.Hour
)

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := testutil.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	accounts := store.NewAccountStore(testutil.TestDB(t),
		store.WithClock(clock.Now),
		store.WithBcryptCost(bcrypt.MinCost),
	)
	tokens := utils.NewTokenService("access-secret", "refresh-secret", testAccessTTL, testRefreshTTL).
		WithClock(clock.Now)
	mailer := &captureMailer{}
	revoker := newMemRevoker()
	m := metrics.New(prometheus.NewRegistry())

	svc := services.NewAuthService(services.AuthDeps{
		Store:     accounts,
		Tokens:    tokens,
		Mailer:    mailer,
		Revoker:   revoker,
		Metrics:   m,
		ClientURL: "http://app.test/",
	})

	return &env{
		svc:     svc,
		store:   accounts,
		tokens:  tokens,
		clock:   clock,
		mailer:  mailer,
		revoker: revoker,
		metrics: m,
	}
}

func signupInput(email string) store.NewAccount {
	return store.NewAccount{
		Email:           email,
		Password:        "Passw0rd!",
		BusinessName:    "Grand Hall",
		Address:         testutil.Address(),
		SeatingCapacity: 300,
		BusinessType:    "banquet_hall",
		Amenities:       []string{"parking"},
		PhoneNumber:     "9876543210",
	}
}

// verifiedAccount signs up and verifies an account with password Passw0rd!.
func (e *env) verifiedAccount(t *testing.T, email string) *models.Account {
	t.Helper()
	ctx := context.Background()

	account, err := e.svc.Signup(ctx, signupInput(email))
	require.NoError(t, err)

	_, err = e.svc.VerifyEmail(ctx, e.mailer.lastVerificationToken(t))
	require.NoError(t, err)
	return account
}
