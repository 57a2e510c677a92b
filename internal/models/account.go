package models

import (
	"time"
)

// Roles.
const (
	RoleVenueOwner = "venue_owner"
	RoleAdmin      = "admin"
)

// Subscription plans.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// BusinessTypes lists accepted values for Account.BusinessType.
var BusinessTypes = []string{
	"restaurant",
	"banquet_hall",
	"cafe",
	"hotel",
	"conference_center",
	"resort",
	"other",
}

// Amenities lists accepted values for Account.Amenities.
var Amenities = []string{
	"parking",
	"wifi",
	"air_conditioning",
	"catering",
	"sound_system",
	"projector",
	"stage",
	"wheelchair_access",
	"bar",
	"outdoor_seating",
}

// Address is the postal address of a venue.
type Address struct {
	Line1   string `json:"line1" validate:"required,max=200"`
	Line2   string `json:"line2" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	PinCode string `gorm:"size:6" json:"pinCode" validate:"required,pincode"`
}

// Account is a venue owner's login identity and business profile.
//
// Credential, token and lockout columns are never serialized; use
// store.Serialize for any external representation.
type Account struct {
	BaseModel
	Email        string `gorm:"size:254;uniqueIndex;not null" validate:"required,email,max=254"`
	PasswordHash string `gorm:"not null" json:"-"`

	BusinessName    string   `gorm:"size:100;not null" validate:"required,max=100"`
	Address         Address  `gorm:"embedded;embeddedPrefix:address_"`
	SeatingCapacity int      `gorm:"not null" validate:"required,min=1,max=10000"`
	BusinessType    string   `gorm:"size:32;not null" validate:"required,businesstype"`
	Amenities       []string `gorm:"serializer:json" validate:"unique,dive,amenity"`
	PhoneNumber     string   `gorm:"size:16;not null" validate:"required,mobile"`
	ProfileImage    string

	IsEmailVerified bool   `gorm:"not null;default:false"`
	IsActive        bool   `gorm:"not null;default:true"`
	Role            string `gorm:"size:16;not null;default:venue_owner" validate:"oneof=venue_owner admin"`

	EmailVerificationToken   *string    `gorm:"size:64;index" json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`
	PasswordResetToken       *string    `gorm:"size:64;index" json:"-"`
	PasswordResetExpires     *time.Time `json:"-"`

	LoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`

	SubscriptionPlan      string `gorm:"size:16;not null;default:free" validate:"oneof=free basic premium enterprise"`
	SubscriptionExpiresAt *time.Time

	LastLogin *time.Time
}

// IsLocked reports whether lockUntil is set and after now.
func IsLocked(a *Account, now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}
