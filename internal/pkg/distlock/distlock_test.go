package distlock

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLock_IsExclusive(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "redelivery-sweep", time.Minute)
	b := NewRedisLock(client, "redelivery-sweep", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("newsletter:lock:redelivery-sweep"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, b.Release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists(a.Key()), "non-owner must not release")

	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "sweep", 10*time.Second)
	b := NewRedisLock(client, "sweep", 10*time.Second)

	ok, _ := a.Acquire(ctx)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	ok, err := b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, a.Extend(ctx, time.Minute), ErrNotHeld)
}

func TestRedisLock_Extend(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "sweep", 5*time.Second)
	ok, _ := a.Acquire(ctx)
	require.True(t, ok)

	require.NoError(t, a.Extend(ctx, time.Minute))
	assert.Greater(t, mr.TTL(a.Key()), 30*time.Second)
}

func TestNewLock_PicksBackend(t *testing.T) {
	_, client := setupRedis(t)
	_, isRedis := NewLock(client, nil, "k", time.Second).(*RedisLock)
	assert.True(t, isRedis)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, isPG := NewLock(nil, db, "k", time.Second).(*PGAdvisoryLock)
	assert.True(t, isPG)
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	lock := NewPGAdvisoryLock(db, "redelivery-sweep")
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_lock($1)")).
		WithArgs(lock.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WithArgs(lock.lockID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// already held by this instance
	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrNotHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_HeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	lock := NewPGAdvisoryLock(db, "redelivery-sweep")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_lock($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
