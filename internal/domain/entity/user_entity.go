package entity

import "time"

// Role is the authorization role carried in the session token.
// Set at creation; there is no in-product role change.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Subscription status values. Owned by the payment service; the identity core
// only ever reads them.
const (
	SubscriptionInactive  = "inactive"
	SubscriptionCreated   = "created"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// User is the aggregate root for the user domain.
// Password holds a bcrypt hash and is excluded from API projections.
// ResetTokenHash/ResetTokenExpiry are set as a pair while a password reset is
// pending and cleared together on redemption, expiry or delivery failure.
type User struct {
	ID                 string
	FullName           string
	Email              string
	Password           string
	Role               Role
	AvatarPublicID     string
	AvatarURL          string
	SubscriptionID     string
	SubscriptionStatus string
	ResetTokenHash     string
	ResetTokenExpiry   time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasActiveSubscription reports whether the user may access subscriber-gated
// content on subscription grounds alone (admins bypass this check elsewhere).
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionStatus == SubscriptionActive
}
