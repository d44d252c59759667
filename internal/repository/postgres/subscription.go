package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/service/subscription"
)

const pqUniqueViolation = "23505"

// SubscriptionRepo implements subscription.Repository against PostgreSQL.
type SubscriptionRepo struct{ db *sql.DB }

// NewSubscriptionRepo creates a Postgres-backed subscription repository.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// InsertPendingSubscriber writes the subscriber row and its token in one
// transaction.
func (r *SubscriptionRepo) InsertPendingSubscriber(ctx context.Context, p subscription.PendingSubscriber) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert subscriber: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Email.String(), p.Name.String(), p.SubscribedAt, string(domain.StatusPendingConfirmation))
	if err != nil {
		if isUniqueViolation(err) {
			return subscription.ErrDuplicateSubscriber
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`, p.Token, p.ID)
	if err != nil {
		return fmt.Errorf("insert subscription token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert subscriber: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) SubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`,
		token,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, subscription.ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("get subscriber by token: %w", err)
	}
	return id, nil
}

func (r *SubscriptionRepo) ConfirmSubscriber(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`,
		string(domain.StatusConfirmed), id,
	)
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return subscription.ErrSubscriberNotFound
	}
	return nil
}

// GetSubscriber loads a stored subscription record.
func (r *SubscriptionRepo) GetSubscriber(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	var s domain.Subscription
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, subscribed_at, status
		FROM subscriptions WHERE id = $1
	`, id).Scan(&s.ID, &s.Email, &s.Name, &s.SubscribedAt, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscription.ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	s.Status = domain.SubscriptionStatus(status)
	return &s, nil
}

// Ping reports whether the database is reachable.
func (r *SubscriptionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}
