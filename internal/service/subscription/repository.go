package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter/internal/domain"
)

// Repository defines the data access contract for subscriptions.
type Repository interface {
	// InsertPendingSubscriber stores the subscriber and its confirmation
	// token as one atomic write. Returns ErrDuplicateSubscriber when the
	// email is already registered.
	InsertPendingSubscriber(ctx context.Context, p PendingSubscriber) error

	// SubscriberIDByToken returns ErrTokenNotFound for unknown tokens.
	SubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error)

	// ConfirmSubscriber flips the status to confirmed. Returns
	// ErrSubscriberNotFound if no row matches.
	ConfirmSubscriber(ctx context.Context, id uuid.UUID) error

	// GetSubscriber returns ErrSubscriberNotFound if no row matches.
	GetSubscriber(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
}

// PendingSubscriber is the row written on signup.
type PendingSubscriber struct {
	ID           uuid.UUID
	Email        domain.SubscriberEmail
	Name         domain.SubscriberName
	SubscribedAt time.Time
	Token        string
}

// EmailSender delivers one two-part email. *emailclient.Client satisfies it.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}

// FailedDeliveryRecorder receives confirmation emails that could not be
// delivered so they can be retried outside the request path.
type FailedDeliveryRecorder interface {
	RecordFailedDelivery(ctx context.Context, job RedeliveryJob) error
}

// RedeliveryJob describes one confirmation email awaiting another attempt.
// The stored subscriber row stays authoritative; a job only points at it.
type RedeliveryJob struct {
	SubscriberID uuid.UUID `json:"subscriber_id"`
	Email        string    `json:"email"`
	Token        string    `json:"token"`
	Attempt      int       `json:"attempt"`
	LastError    string    `json:"last_error,omitempty"`
	FailedAt     time.Time `json:"failed_at"`
}
