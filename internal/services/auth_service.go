package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/venuebook/internal/autherr"
	"github.com/example/venuebook/internal/metrics"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/store"
	"github.com/example/venuebook/internal/utils"
)

// AuthDeps are the collaborators of AuthService. Revoker, Metrics and Logger
// are optional.
type AuthDeps struct {
	Store     *store.AccountStore
	Tokens    *utils.TokenService
	Mailer    Mailer
	Revoker   Revoker
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	ClientURL string
}

// AuthService implements the account lifecycle: signup, verification, login,
// token refresh, password reset and the authenticated profile operations.
type AuthService struct {
	store     *store.AccountStore
	tokens    *utils.TokenService
	mailer    Mailer
	revoker   Revoker
	metrics   *metrics.Metrics
	log       *zap.Logger
	clientURL string
}

// NewAuthService creates an AuthService.
func NewAuthService(deps AuthDeps) *AuthService {
	s := &AuthService{
		store:     deps.Store,
		tokens:    deps.Tokens,
		mailer:    deps.Mailer,
		revoker:   deps.Revoker,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		clientURL: strings.TrimRight(deps.ClientURL, "/"),
	}
	if s.revoker == nil {
		s.revoker = NopRevoker{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string
	RefreshToken string
	Account      *models.Account
}

// Signup creates an unverified account and emails a verification link. When
// delivery fails the token is cleared and ErrDelivery is returned; the account
// is kept and can request a new link via ResendVerification.
func (s *AuthService) Signup(ctx context.Context, in store.NewAccount) (*models.Account, error) {
	account, err := s.store.CreateAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	s.metrics.Signups.Inc()
	s.log.Info("account created", zap.String("account_id", account.ID.String()))

	if err := s.sendVerification(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// VerifyEmail consumes a verification token and marks the email verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.Account, error) {
	account, err := s.store.ConsumeToken(ctx, store.EmailVerification, token)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkEmailVerified(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("email verified", zap.String("account_id", account.ID.String()))
	return account, nil
}

// ResendVerification issues and emails a fresh verification token.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return autherr.ErrNotFound
		}
		return err
	}
	if account.IsEmailVerified {
		return autherr.ErrAlreadyVerified
	}
	return s.sendVerification(ctx, account)
}

func (s *AuthService) sendVerification(ctx context.Context, account *models.Account) error {
	token, err := s.store.IssueEmailVerificationToken(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	err = s.mailer.SendVerificationEmail(ctx, account.Email, account.BusinessName, s.link("verify-email", token))
	s.metrics.RecordEmail(EmailVerificationKind, err)
	if err != nil {
		return s.compensateDelivery(ctx, account.ID, store.EmailVerification, err)
	}
	return nil
}

// compensateDelivery clears a token whose email could not be delivered.
func (s *AuthService) compensateDelivery(ctx context.Context, id uuid.UUID, kind store.TokenKind, sendErr error) error {
	s.log.Warn("email delivery failed, clearing token",
		zap.String("account_id", id.String()),
		zap.Error(sendErr),
	)
	if err := s.store.ClearToken(ctx, id, kind); err != nil {
		s.log.Error("clear undelivered token", zap.String("account_id", id.String()), zap.Error(err))
	}
	return autherr.ErrDelivery
}

func (s *AuthService) link(path, token string) string {
	return s.clientURL + "/" + path + "/" + token
}

// Login checks credentials and the account gates in order: lock, password,
// verification, activation. A wrong password counts towards the lockout.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.store.FindByEmail(ctx, email, store.WithPasswordHash())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordLogin(metrics.LoginInvalidCredentials)
			return nil, autherr.ErrInvalidCredentials
		}
		return nil, err
	}

	if models.IsLocked(account, s.store.Now()) {
		s.metrics.RecordLogin(metrics.LoginLocked)
		return nil, autherr.ErrAccountLocked
	}

	if !s.store.VerifyPassword(account, password) {
		locked, err := s.store.RecordFailedLogin(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		if locked {
			s.metrics.Lockouts.Inc()
			s.log.Warn("account locked after failed logins", zap.String("account_id", account.ID.String()))
		}
		s.metrics.RecordLogin(metrics.LoginInvalidCredentials)
		return nil, autherr.ErrInvalidCredentials
	}

	if !account.IsEmailVerified {
		s.metrics.RecordLogin(metrics.LoginUnverified)
		return nil, autherr.ErrEmailNotVerified
	}
	if !account.IsActive {
		s.metrics.RecordLogin(metrics.LoginDeactivated)
		return nil, autherr.ErrAccountDeactivated
	}

	if err := s.store.RecordSuccessfulLogin(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	now := s.store.Now()
	account.LastLogin = &now
	account.LoginAttempts = 0
	account.LockUntil = nil
	account.PasswordHash = ""

	access, err := s.tokens.IssueAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	return &Session{AccessToken: access, RefreshToken: refresh, Account: account}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", autherr.ErrUnauthorized
	}

	claims, err := s.tokens.Verify(refreshToken, utils.RefreshToken)
	if err != nil {
		return "", err
	}

	account, err := s.store.FindByID(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.ErrAccountNotFound
		}
		return "", err
	}
	if !account.IsActive {
		return "", autherr.ErrAccountDeactivated
	}

	return s.tokens.IssueAccessToken(account.ID, account.Email, account.Role)
}

// Logout revokes the presented access token for the rest of its lifetime.
// With the NopRevoker this does nothing and logout is cookie-only.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.store.Now())
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves the account behind an access token. Each failure is
// a distinct error: expired, invalid, revoked, account gone, deactivated and
// unverified.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Account, *utils.Claims, error) {
	claims, err := s.tokens.Verify(accessToken, utils.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, autherr.ErrTokenRevoked
	}

	account, err := s.store.FindByID(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, autherr.ErrAccountNotFound
		}
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, autherr.ErrAccountDeactivated
	}
	if !account.IsEmailVerified {
		return nil, nil, autherr.ErrEmailNotVerified
	}

	return account, claims, nil
}

// ForgotPassword emails a 10 minute reset link. Unknown emails fail with
// ErrNotFound.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return autherr.ErrNotFound
		}
		return err
	}

	token, err := s.store.IssuePasswordResetToken(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	err = s.mailer.SendPasswordResetEmail(ctx, account.Email, account.BusinessName, s.link("reset-password", token))
	s.metrics.RecordEmail(EmailPasswordResetKind, err)
	if err != nil {
		return s.compensateDelivery(ctx, account.ID, store.PasswordReset, err)
	}

	s.log.Info("password reset requested", zap.String("account_id", account.ID.String()))
	return nil
}

// ResetPassword consumes a reset token, replaces the password and clears the
// lockout. The returned session carries a fresh access token only.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*Session, error) {
	account, err := s.store.ConsumeToken(ctx, store.PasswordReset, token)
	if err != nil {
		return nil, err
	}
	if err := s.store.ResetPassword(ctx, account, newPassword); err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log.Info("password reset", zap.String("account_id", account.ID.String()))
	return &Session{AccessToken: access, Account: account}, nil
}

// Me returns the current account.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, autherr.ErrAccountNotFound
	}
	return account, err
}

// UpdateProfile applies whitelisted profile changes.
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, upd store.ProfileUpdate) (*models.Account, error) {
	account, err := s.store.UpdateProfile(ctx, id, upd)
	if errors.Is(err, store.ErrNotFound) {
		return nil, autherr.ErrAccountNotFound
	}
	return account, err
}

// ChangePassword replaces the password after checking the current one and
// returns a fresh access token.
func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (*Session, error) {
	account, err := s.store.FindByID(ctx, id, store.WithPasswordHash())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, autherr.ErrAccountNotFound
		}
		return nil, err
	}

	if !s.store.VerifyPassword(account, currentPassword) {
		return nil, autherr.ErrIncorrectPassword
	}
	if currentPassword == newPassword {
		return nil, autherr.ErrSamePassword
	}

	if err := s.store.ChangePassword(ctx, id, newPassword); err != nil {
		return nil, err
	}
	account.PasswordHash = ""

	access, err := s.tokens.IssueAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log.Info("password changed", zap.String("account_id", id.String()))
	return &Session{AccessToken: access, Account: account}, nil
}

// DeleteAccount deactivates the account. Nothing is removed.
func (s *AuthService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return autherr.ErrAccountNotFound
		}
		return err
	}

	s.log.Info("account deactivated", zap.String("account_id", id.String()))
	return nil
}

// ListAccounts returns a page of accounts for administrators.
func (s *AuthService) ListAccounts(ctx context.Context, offset, limit int) ([]models.Account, int64, error) {
	return s.store.List(ctx, offset, limit)
}

// Stats returns account counts for administrators.
func (s *AuthService) Stats(ctx context.Context) (store.Stats, error) {
	return s.store.Stats(ctx)
}
