package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowUnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("ratelimit:airports:1.2.3.4").SetVal(1)
	mock.ExpectExpire("ratelimit:airports:1.2.3.4", time.Minute).SetVal(true)

	ok, err := rl.allow(context.Background(), "airports", "1.2.3.4")

	assert.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("ratelimit:airports:user:abc123").SetVal(31)

	ok, err := rl.allow(context.Background(), "airports", "user:abc123")

	assert.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("ratelimit:airports:1.2.3.4").SetErr(errors.New("connection refused"))

	ok, err := rl.allow(context.Background(), "airports", "1.2.3.4")

	assert.Error(t, err)
	assert.True(t, ok)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	assert.True(t, isSuspiciousUserAgent("Googlebot/2.1"))
	assert.True(t, isSuspiciousUserAgent("my-scraper/0.1"))
	assert.False(t, isSuspiciousUserAgent("Mozilla/5.0 (X11; Linux x86_64)"))
	assert.False(t, isSuspiciousUserAgent(""))
}
