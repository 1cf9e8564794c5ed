package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the stored account of an establishment owner, employee or platform operator.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	EstablishmentID *string
	Status          UserStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile is the public view of an authenticated user shared by the API and its clients.
type Profile struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	Name              string            `json:"name"`
	Role              Role              `json:"role"`
	EstablishmentID   string            `json:"restaurantId,omitempty"`
	EstablishmentType EstablishmentType `json:"establishmentType,omitempty"`
	SubscriptionTier  SubscriptionTier  `json:"subscriptionTier,omitempty"`
}

// Profile builds the public view of the user; est may be nil for platform operators.
func (u *User) Profile(est *Establishment) Profile {
	p := Profile{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
	if u.EstablishmentID != nil {
		p.EstablishmentID = *u.EstablishmentID
	}
	if est != nil {
		p.EstablishmentType = est.Type
		p.SubscriptionTier = est.SubscriptionTier
	}
	return p
}

// HasEstablishment reports whether the profile belongs to a tenant.
func (p *Profile) HasEstablishment() bool {
	return p != nil && p.EstablishmentID != ""
}
