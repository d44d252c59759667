package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// SubscribeRequest carries the raw, untrusted form fields.
type SubscribeRequest struct {
	Name  string
	Email string
}

// Service implements the subscription workflow. It is safe for concurrent
// use if its collaborators are.
type Service struct {
	repo      Repository
	sender    EmailSender
	tokens    TokenSource
	baseURL   string
	templates *confirmationTemplates
	recorder  FailedDeliveryRecorder
	now       func() time.Time
	log       *logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithFailedDeliveryRecorder hands undelivered confirmations to r.
func WithFailedDeliveryRecorder(r FailedDeliveryRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a subscription service. baseURL is the public address
// confirmation links point at.
func NewService(repo Repository, sender EmailSender, tokens TokenSource, baseURL string, log *logger.Logger, opts ...Option) (*Service, error) {
	tpl, err := newConfirmationTemplates()
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = RandomTokens{}
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Service{
		repo:      repo,
		sender:    sender,
		tokens:    tokens,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: tpl,
		now:       time.Now,
		log:       log.With("service", "subscription"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe runs validate, persist, then notify. The returned error explains
// any rejected outcome; it is nil only for OutcomeAccepted.
//
// A delivery failure leaves the pending row in place.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) (Outcome, error) {
	sub, err := domain.ParseNewSubscriber(req.Name, req.Email)
	if err != nil {
		return OutcomeRejectedInvalidInput, err
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		s.log.Error("Failed to generate subscription token", "error", err.Error())
		return OutcomeRejectedPersistenceFailure, fmt.Errorf("generating token: %w", err)
	}

	pending := PendingSubscriber{
		ID:           uuid.New(),
		Email:        sub.Email,
		Name:         sub.Name,
		SubscribedAt: s.now().UTC(),
		Token:        token,
	}
	if err := s.repo.InsertPendingSubscriber(ctx, pending); err != nil {
		s.log.Error("Failed to store new subscriber",
			"subscriber_email", sub.Email.String(),
			"error", err.Error(),
		)
		return OutcomeRejectedPersistenceFailure, fmt.Errorf("storing subscriber: %w", err)
	}

	if err := s.sendConfirmation(ctx, sub.Email, token); err != nil {
		s.log.Error("Failed to send confirmation email",
			"subscriber_id", pending.ID.String(),
			"subscriber_email", sub.Email.String(),
			"error", err.Error(),
		)
		s.recordFailure(ctx, RedeliveryJob{
			SubscriberID: pending.ID,
			Email:        sub.Email.String(),
			Token:        token,
			Attempt:      1,
			LastError:    err.Error(),
			FailedAt:     s.now().UTC(),
		})
		return OutcomeRejectedDeliveryFailure, fmt.Errorf("sending confirmation: %w", err)
	}

	s.log.Info("New subscriber saved",
		"subscriber_id", pending.ID.String(),
		"subscriber_email", sub.Email.String(),
	)
	return OutcomeAccepted, nil
}

// Confirm marks the subscriber owning token as confirmed.
func (s *Service) Confirm(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}

	id, err := s.repo.SubscriberIDByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return err
		}
		return fmt.Errorf("looking up token: %w", err)
	}

	if err := s.repo.ConfirmSubscriber(ctx, id); err != nil {
		return fmt.Errorf("confirming subscriber %s: %w", id, err)
	}
	s.log.Info("Subscriber confirmed", "subscriber_id", id.String())
	return nil
}

// Redeliver re-sends the confirmation email for job. Subscribers that
// confirmed in the meantime, or that no longer exist, are skipped.
func (s *Service) Redeliver(ctx context.Context, job RedeliveryJob) error {
	sub, err := s.repo.GetSubscriber(ctx, job.SubscriberID)
	if err != nil {
		if errors.Is(err, ErrSubscriberNotFound) {
			s.log.Warn("Dropping redelivery for unknown subscriber", "subscriber_id", job.SubscriberID.String())
			return nil
		}
		return fmt.Errorf("loading subscriber: %w", err)
	}
	if sub.IsConfirmed() {
		return nil
	}

	email, err := domain.ParseSubscriberEmail(job.Email)
	if err != nil {
		// not retryable; the row itself was validated on insert
		s.log.Error("Dropping redelivery with invalid email", "subscriber_id", job.SubscriberID.String())
		return nil
	}

	return s.sendConfirmation(ctx, email, job.Token)
}

func (s *Service) sendConfirmation(ctx context.Context, to domain.SubscriberEmail, token string) error {
	htmlBody, textBody, err := s.templates.render(confirmationLink(s.baseURL, token))
	if err != nil {
		return err
	}
	return s.sender.SendEmail(ctx, to, confirmationSubject, htmlBody, textBody)
}

func (s *Service) recordFailure(ctx context.Context, job RedeliveryJob) {
	if s.recorder == nil {
		return
	}
	// the request context may already be done after a delivery timeout
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.recorder.RecordFailedDelivery(rctx, job); err != nil {
		s.log.Warn("Failed to queue confirmation for redelivery",
			"subscriber_id", job.SubscriberID.String(),
			"error", err.Error(),
		)
	}
}
