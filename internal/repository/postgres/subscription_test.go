package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/service/subscription"
)

func setupRepo(t *testing.T) (*SubscriptionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionRepo(db), mock
}

func pendingFixture(t *testing.T) subscription.PendingSubscriber {
	t.Helper()
	sub, err := domain.ParseNewSubscriber("le guin", "ursula_le_guin@gmail.com")
	require.NoError(t, err)
	return subscription.PendingSubscriber{
		ID:           uuid.New(),
		Email:        sub.Email,
		Name:         sub.Name,
		SubscribedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Token:        "tok123",
	}
}

var (
	insertSubscriberSQL = regexp.QuoteMeta(`INSERT INTO subscriptions (id, email, name, subscribed_at, status)`)
	insertTokenSQL      = regexp.QuoteMeta(`INSERT INTO subscription_tokens (subscription_token, subscriber_id)`)
)

func TestInsertPendingSubscriber_WritesBothRowsInTransaction(t *testing.T) {
	repo, mock := setupRepo(t)
	p := pendingFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertSubscriberSQL).
		WithArgs(sqlmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", p.SubscribedAt, "pending_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTokenSQL).
		WithArgs("tok123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertPendingSubscriber(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPendingSubscriber_UniqueViolationIsDuplicate(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertSubscriberSQL).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.InsertPendingSubscriber(context.Background(), pendingFixture(t))
	assert.ErrorIs(t, err, subscription.ErrDuplicateSubscriber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPendingSubscriber_TokenFailureRollsBack(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertSubscriberSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTokenSQL).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.InsertPendingSubscriber(context.Background(), pendingFixture(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, subscription.ErrDuplicateSubscriber)
	assert.Contains(t, err.Error(), "insert subscription token")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberIDByToken(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()
	query := regexp.QuoteMeta(`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`)

	mock.ExpectQuery(query).WithArgs("tok123").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow(id.String()))
	got, err := repo.SubscriberIDByToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.SubscriberIDByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, subscription.ErrTokenNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmSubscriber(t *testing.T) {
	repo, mock := setupRepo(t)
	query := regexp.QuoteMeta(`UPDATE subscriptions SET status = $1 WHERE id = $2`)

	mock.ExpectExec(query).WithArgs("confirmed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ConfirmSubscriber(context.Background(), uuid.New()))

	mock.ExpectExec(query).WithArgs("confirmed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.ConfirmSubscriber(context.Background(), uuid.New()), subscription.ErrSubscriberNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscriber(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`FROM subscriptions WHERE id = $1`)

	mock.ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "subscribed_at", "status"}).
			AddRow(id.String(), "ursula_le_guin@gmail.com", "le guin", at, "confirmed"))
	sub, err := repo.GetSubscriber(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), sub.ID)
	assert.Equal(t, at, sub.SubscribedAt)
	assert.True(t, sub.IsConfirmed())

	mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)
	_, err = repo.GetSubscriber(context.Background(), uuid.New())
	assert.ErrorIs(t, err, subscription.ErrSubscriberNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
}
