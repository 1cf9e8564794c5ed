package domain

import "time"

// EstablishmentType distinguishes the two tenant kinds.
type EstablishmentType string

const (
	EstablishmentTypeHotel      EstablishmentType = "hotel"
	EstablishmentTypeRestaurant EstablishmentType = "restaurant"
)

// Valid reports whether the type is one of the supported tenant kinds.
func (t EstablishmentType) Valid() bool {
	return t == EstablishmentTypeHotel || t == EstablishmentTypeRestaurant
}

// OwnerRole is the role granted to the account that registers the establishment.
func (t EstablishmentType) OwnerRole() Role {
	if t == EstablishmentTypeHotel {
		return RoleHotelManager
	}
	return RoleRestaurantAdmin
}

// EstablishmentStatus tracks manual approval of new tenants.
type EstablishmentStatus string

const (
	EstablishmentStatusPending  EstablishmentStatus = "PENDING"
	EstablishmentStatusApproved EstablishmentStatus = "APPROVED"
	EstablishmentStatusRejected EstablishmentStatus = "REJECTED"
)

// SubscriptionTier is the billing plan of an establishment.
type SubscriptionTier string

const (
	SubscriptionTierBasic      SubscriptionTier = "basic"
	SubscriptionTierPremium    SubscriptionTier = "premium"
	SubscriptionTierEnterprise SubscriptionTier = "enterprise"
)

// Establishment is a hotel or restaurant tenant.
type Establishment struct {
	ID               string
	Name             string
	Type             EstablishmentType
	Address          string
	Phone            string
	TINNumber        string
	Status           EstablishmentStatus
	SubscriptionTier SubscriptionTier
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Approved reports whether staff of the establishment may sign in.
func (e *Establishment) Approved() bool {
	return e != nil && e.Status == EstablishmentStatusApproved
}
