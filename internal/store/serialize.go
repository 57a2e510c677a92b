package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/venuebook/internal/models"
)

// Subscription is the public view of an account's plan.
type Subscription struct {
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// PublicAccount is the only representation of an account that leaves the
// service. It has no fields for credentials, tokens or lockout counters.
type PublicAccount struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	BusinessName    string         `json:"businessName"`
	Address         models.Address `json:"address"`
	SeatingCapacity int            `json:"seatingCapacity"`
	BusinessType    string         `json:"businessType"`
	Amenities       []string       `json:"amenities"`
	PhoneNumber     string         `json:"phoneNumber"`
	ProfileImage    string         `json:"profileImage,omitempty"`
	IsEmailVerified bool           `json:"isEmailVerified"`
	IsActive        bool           `json:"isActive"`
	Role            string         `json:"role"`
	Subscription    Subscription   `json:"subscription"`
	LastLogin       *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Serialize builds the external representation of an account.
func Serialize(a *models.Account) PublicAccount {
	amenities := a.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	return PublicAccount{
		ID:              a.ID,
		Email:           a.Email,
		BusinessName:    a.BusinessName,
		Address:         a.Address,
		SeatingCapacity: a.SeatingCapacity,
		BusinessType:    a.BusinessType,
		Amenities:       amenities,
		PhoneNumber:     a.PhoneNumber,
		ProfileImage:    a.ProfileImage,
		IsEmailVerified: a.IsEmailVerified,
		IsActive:        a.IsActive,
		Role:            a.Role,
		Subscription: Subscription{
			Plan:      a.SubscriptionPlan,
			ExpiresAt: a.SubscriptionExpiresAt,
		},
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// SerializeAll serializes a slice of accounts.
func SerializeAll(accounts []models.Account) []PublicAccount {
	out := make([]PublicAccount, 0, len(accounts))
	for i := range accounts {
		out = append(out, Serialize(&accounts[i]))
	}
	return out
}
