package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceGuard_Claim(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.MatchExpectationsInOrder(true)
	g := NewReferenceGuard(db, time.Hour)
	ctx := context.Background()

	mock.ExpectSetNX(referenceKeyPrefix+"pay-1", 1, time.Hour).SetVal(true)
	mock.ExpectSetNX(referenceKeyPrefix+"pay-1", 1, time.Hour).SetVal(false)

	ok, err := g.Claim(ctx, "pay-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Claim(ctx, "pay-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceGuard_ClaimError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	g := NewReferenceGuard(db, time.Minute)

	mock.ExpectSetNX(referenceKeyPrefix+"pay-2", 1, time.Minute).SetErr(errors.New("connection refused"))

	_, err := g.Claim(context.Background(), "pay-2")
	assert.ErrorContains(t, err, "SETNX")
}

func TestReferenceGuard_Release(t *testing.T) {
	db, mock := redismock.NewClientMock()
	g := NewReferenceGuard(db, time.Minute)

	mock.ExpectDel(referenceKeyPrefix + "pay-3").SetVal(1)
	require.NoError(t, g.Release(context.Background(), "pay-3"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_IsAllowed(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db)
	ctx := context.Background()
	key := rateLimitKeyPrefix + "10.0.0.1"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectIncr(key).SetVal(3)

	for i, want := range []bool{true, true, false} {
		ok, err := rl.IsAllowed(ctx, "10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i+1)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_IncrError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db)

	mock.ExpectIncr(rateLimitKeyPrefix + "ip").SetErr(errors.New("down"))
	_, err := rl.IsAllowed(context.Background(), "ip", 1, time.Second)
	assert.ErrorContains(t, err, "INCR")
}
