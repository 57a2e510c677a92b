// Package store persists venue-owner accounts and performs the credential,
// token and lockout mutations on them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/venuebook/internal/autherr"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/utils"
	"github.com/example/venuebook/internal/validation"
)

const (
	MaxLoginAttempts     = 5
	LockDuration         = 2 * time.Hour
	EmailVerificationTTL = 24 * time.Hour
	PasswordResetTTL     = 10 * time.Minute

	tokenBytes = 32
)

// ErrNotFound is returned by lookups that match no account.
var ErrNotFound = errors.New("account not found")

// TokenKind identifies a single-use emailed token.
type TokenKind int

const (
	EmailVerification TokenKind = iota
	PasswordReset
)

func (k TokenKind) columns() (token, expires string) {
	if k == PasswordReset {
		return "password_reset_token", "password_reset_expires"
	}
	return "email_verification_token", "email_verification_expires"
}

func (k TokenKind) ttl() time.Duration {
	if k == PasswordReset {
		return PasswordResetTTL
	}
	return EmailVerificationTTL
}

// NewAccount holds the signup fields.
type NewAccount struct {
	Email           string
	Password        string
	BusinessName    string
	Address         models.Address
	SeatingCapacity int
	BusinessType    string
	Amenities       []string
	PhoneNumber     string
}

// ProfileUpdate holds the fields an owner may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	BusinessName    *string
	Address         *models.Address
	SeatingCapacity *int
	BusinessType    *string
	Amenities       *[]string
	PhoneNumber     *string
}

// Stats summarizes account states.
type Stats struct {
	Total    int64 `json:"total"`
	Verified int64 `json:"verified"`
	Active   int64 `json:"active"`
	Locked   int64 `json:"locked"`
}

// AccountStore is the gorm-backed credential store.
type AccountStore struct {
	db         *gorm.DB
	bcryptCost int
	now        func() time.Time
}

// Option configures an AccountStore.
type Option func(*AccountStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *AccountStore) { s.now = now }
}

// WithBcryptCost sets the password hashing work factor.
func WithBcryptCost(cost int) Option {
	return func(s *AccountStore) { s.bcryptCost = cost }
}

// NewAccountStore constructs an AccountStore.
func NewAccountStore(db *gorm.DB, opts ...Option) *AccountStore {
	s := &AccountStore{
		db:         db,
		bcryptCost: 12,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time.
func (s *AccountStore) Now() time.Time {
	return s.now()
}

type findOptions struct {
	withPassword bool
}

// FindOption adjusts a lookup.
type FindOption func(*findOptions)

// WithPasswordHash includes the password hash in the loaded account.
func WithPasswordHash() FindOption {
	return func(o *findOptions) { o.withPassword = true }
}

func (s *AccountStore) query(ctx context.Context, opts []FindOption) *gorm.DB {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	q := s.db.WithContext(ctx).Model(&models.Account{})
	if !o.withPassword {
		q = q.Omit("password_hash")
	}
	return q
}

func (s *AccountStore) first(q *gorm.DB) (*models.Account, error) {
	var account models.Account
	if err := q.First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByEmail looks an account up by normalized email.
func (s *AccountStore) FindByEmail(ctx context.Context, email string, opts ...FindOption) (*models.Account, error) {
	return s.first(s.query(ctx, opts).Where("email = ?", validation.NormalizeEmail(email)))
}

// FindByID looks an account up by id.
func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID, opts ...FindOption) (*models.Account, error) {
	return s.first(s.query(ctx, opts).Where("id = ?", id))
}

// CreateAccount validates and inserts a new unverified, active account.
//
// The duplicate check runs before the insert and is not atomic with it; two
// concurrent signups for one email can both pass it, in which case the unique
// index rejects the second insert.
func (s *AccountStore) CreateAccount(ctx context.Context, in NewAccount) (*models.Account, error) {
	email := validation.NormalizeEmail(in.Email)

	if _, err := s.FindByEmail(ctx, email); err == nil {
		return nil, autherr.ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if in.Password == "" {
		return nil, autherr.Validation([]autherr.FieldError{{Field: "password", Message: "is required"}})
	}

	account := &models.Account{
		Email:            email,
		BusinessName:     in.BusinessName,
		Address:          in.Address,
		SeatingCapacity:  in.SeatingCapacity,
		BusinessType:     in.BusinessType,
		Amenities:        in.Amenities,
		PhoneNumber:      in.PhoneNumber,
		IsEmailVerified:  false,
		IsActive:         true,
		Role:             models.RoleVenueOwner,
		SubscriptionPlan: models.PlanFree,
	}
	if err := validation.Struct(account); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, autherr.ErrDuplicateEmail
		}
		return nil, err
	}

	account.PasswordHash = ""
	return account, nil
}

// VerifyPassword reports whether plaintext matches the account's stored hash.
// The account must have been loaded WithPasswordHash.
func (s *AccountStore) VerifyPassword(account *models.Account, plaintext string) bool {
	return utils.CheckPassword(account.PasswordHash, plaintext)
}

// RecordFailedLogin counts a failed password attempt against the stored
// counters. An expired lock restarts the count at 1. Reaching
// MaxLoginAttempts while unlocked sets lockUntil to now+LockDuration; the
// return value reports whether this call applied the lock.
func (s *AccountStore) RecordFailedLogin(ctx context.Context, id uuid.UUID) (bool, error) {
	now := s.now()
	locked := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ? AND lock_until IS NOT NULL AND lock_until < ?", id, now).
			Updates(map[string]interface{}{
				"login_attempts": 1,
				"lock_until":     nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		if err := tx.Model(&models.Account{}).
			Where("id = ?", id).
			UpdateColumn("login_attempts", gorm.Expr("login_attempts + ?", 1)).Error; err != nil {
			return err
		}

		res = tx.Model(&models.Account{}).
			Where("id = ? AND login_attempts >= ? AND (lock_until IS NULL OR lock_until <= ?)", id, MaxLoginAttempts, now).
			Update("lock_until", now.Add(LockDuration))
		if res.Error != nil {
			return res.Error
		}
		locked = res.RowsAffected > 0
		return nil
	})

	return locked, err
}

// RecordSuccessfulLogin clears lockout state and stamps lastLogin.
func (s *AccountStore) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"lock_until":     nil,
			"last_login":     s.now(),
		}).Error
}

// IssueToken stores the hash and expiry of a fresh random token of the given
// kind and returns the plaintext for one-time delivery.
func (s *AccountStore) IssueToken(ctx context.Context, id uuid.UUID, kind TokenKind) (string, error) {
	token, err := utils.GenerateRandomToken(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	tokenCol, expiresCol := kind.columns()
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			tokenCol:   utils.HashToken(token),
			expiresCol: s.now().Add(kind.ttl()),
		})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrNotFound
	}

	return token, nil
}

// IssueEmailVerificationToken issues a 24h email verification token.
func (s *AccountStore) IssueEmailVerificationToken(ctx context.Context, id uuid.UUID) (string, error) {
	return s.IssueToken(ctx, id, EmailVerification)
}

// IssuePasswordResetToken issues a 10 minute password reset token.
func (s *AccountStore) IssuePasswordResetToken(ctx context.Context, id uuid.UUID) (string, error) {
	return s.IssueToken(ctx, id, PasswordReset)
}

// ClearToken removes a token of the given kind and its expiry.
func (s *AccountStore) ClearToken(ctx context.Context, id uuid.UUID, kind TokenKind) error {
	tokenCol, expiresCol := kind.columns()
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			tokenCol:   nil,
			expiresCol: nil,
		}).Error
}

// ConsumeToken finds the account whose stored hash matches plaintext and whose
// expiry is still in the future. The caller clears the token as part of the
// transition it performs.
func (s *AccountStore) ConsumeToken(ctx context.Context, kind TokenKind, plaintext string) (*models.Account, error) {
	if plaintext == "" {
		return nil, autherr.ErrInvalidOrExpiredToken
	}

	tokenCol, expiresCol := kind.columns()
	account, err := s.first(s.query(ctx, nil).
		Where(tokenCol+" = ? AND "+expiresCol+" > ?", utils.HashToken(plaintext), s.now()))
	if errors.Is(err, ErrNotFound) {
		return nil, autherr.ErrInvalidOrExpiredToken
	}
	return account, err
}

// MarkEmailVerified sets isEmailVerified and clears the verification token the
// account was loaded with. A token consumed concurrently fails with
// InvalidOrExpiredToken.
func (s *AccountStore) MarkEmailVerified(ctx context.Context, account *models.Account) error {
	if account.EmailVerificationToken == nil {
		return autherr.ErrInvalidOrExpiredToken
	}

	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND email_verification_token = ?", account.ID, *account.EmailVerificationToken).
		Updates(map[string]interface{}{
			"is_email_verified":          true,
			"email_verification_token":   nil,
			"email_verification_expires": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return autherr.ErrInvalidOrExpiredToken
	}

	account.IsEmailVerified = true
	account.EmailVerificationToken = nil
	account.EmailVerificationExpires = nil
	return nil
}

// ResetPassword replaces the password of an account loaded via ConsumeToken,
// clearing the reset token and lockout state.
func (s *AccountStore) ResetPassword(ctx context.Context, account *models.Account, newPassword string) error {
	if account.PasswordResetToken == nil {
		return autherr.ErrInvalidOrExpiredToken
	}

	q := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND password_reset_token = ?", account.ID, *account.PasswordResetToken)
	updated, err := s.setPassword(q, newPassword)
	if err != nil {
		return err
	}
	if !updated {
		return autherr.ErrInvalidOrExpiredToken
	}

	account.PasswordResetToken = nil
	account.PasswordResetExpires = nil
	account.LoginAttempts = 0
	account.LockUntil = nil
	return nil
}

// ChangePassword replaces the password, clearing reset and lockout state.
func (s *AccountStore) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	updated, err := s.setPassword(s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id), newPassword)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (s *AccountStore) setPassword(q *gorm.DB, newPassword string) (bool, error) {
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	res := q.Updates(map[string]interface{}{
		"password_hash":          hash,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
		"login_attempts":         0,
		"lock_until":             nil,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateProfile merges the whitelisted profile fields into the account and
// persists them after validation.
func (s *AccountStore) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.Account, error) {
	account, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := []string{"updated_at"}
	if upd.BusinessName != nil {
		account.BusinessName = *upd.BusinessName
		columns = append(columns, "business_name")
	}
	if upd.Address != nil {
		account.Address = *upd.Address
		columns = append(columns, "address_line1", "address_line2", "address_city", "address_state", "address_pin_code")
	}
	if upd.SeatingCapacity != nil {
		account.SeatingCapacity = *upd.SeatingCapacity
		columns = append(columns, "seating_capacity")
	}
	if upd.BusinessType != nil {
		account.BusinessType = *upd.BusinessType
		columns = append(columns, "business_type")
	}
	if upd.Amenities != nil {
		account.Amenities = *upd.Amenities
		columns = append(columns, "amenities")
	}
	if upd.PhoneNumber != nil {
		account.PhoneNumber = *upd.PhoneNumber
		columns = append(columns, "phone_number")
	}

	if len(columns) == 1 {
		return account, nil
	}

	if err := validation.Struct(account); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(account).Select(columns).Updates(account).Error; err != nil {
		return nil, err
	}

	return account, nil
}

// Deactivate soft-deletes an account by clearing isActive.
func (s *AccountStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of accounts ordered by creation time, newest first.
func (s *AccountStore) List(ctx context.Context, offset, limit int) ([]models.Account, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []models.Account
	if err := s.query(ctx, nil).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

// Stats counts accounts by state.
func (s *AccountStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	base := func() *gorm.DB { return s.db.WithContext(ctx).Model(&models.Account{}) }

	if err := base().Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := base().Where("is_email_verified = ?", true).Count(&stats.Verified).Error; err != nil {
		return stats, err
	}
	if err := base().Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	if err := base().Where("lock_until IS NOT NULL AND lock_until > ?", s.now()).Count(&stats.Locked).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
