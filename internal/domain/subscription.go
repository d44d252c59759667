package domain

import "time"

// SubscriptionStatus enumerates the states a subscription can be in.
type SubscriptionStatus string

const (
	StatusPendingConfirmation SubscriptionStatus = "pending_confirmation"
	StatusConfirmed           SubscriptionStatus = "confirmed"
)

// Subscription is a stored subscriber row.
type Subscription struct {
	ID           string             `json:"id" db:"id"`
	Email        string             `json:"email" db:"email"`
	Name         string             `json:"name" db:"name"`
	SubscribedAt time.Time          `json:"subscribed_at" db:"subscribed_at"`
	Status       SubscriptionStatus `json:"status" db:"status"`
}

// IsConfirmed returns true once the subscriber has followed the confirmation link.
func (s *Subscription) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}
