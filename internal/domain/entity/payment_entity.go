package entity

import "time"

// Payment records a verified provider payment for a subscription.
type Payment struct {
	ID             string
	UserID         string
	PaymentID      string
	SubscriptionID string
	Signature      string
	CreatedAt      time.Time
}
