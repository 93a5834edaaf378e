package throttle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func enabled() Config {
	return Config{Enabled: true, MaxAttempts: 3, Window: 15 * time.Minute}
}

func TestLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, enabled())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, l.Reserve(ctx, "a@b.com"), "attempt %d", i)
	}
	assert.False(t, l.Reserve(ctx, "a@b.com"))
	assert.True(t, l.Reserve(ctx, "other@b.com"))
}

func TestLimiter_ConcurrentReservationsRespectLimit(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	const attempts = 40
	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
		start   = make(chan struct{})
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Reserve(ctx, "a@b.com") {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(3), allowed.Load())
	got, err := mr.Get("login:failures:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "40", got)
}

func TestLimiter_KeyIgnoresCaseAndSpace(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	l.Reserve(ctx, " A@B.com ")
	got, err := mr.Get("login:failures:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestLimiter_WindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Reserve(ctx, "a@b.com")
	}
	require.False(t, l.Reserve(ctx, "a@b.com"))

	assert.Equal(t, 15*time.Minute, mr.TTL("login:failures:a@b.com"))
	mr.FastForward(15 * time.Minute)
	assert.True(t, l.Reserve(ctx, "a@b.com"))
}

func TestLimiter_LaterAttemptsDoNotExtendWindow(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	l.Reserve(ctx, "a@b.com")
	mr.FastForward(10 * time.Minute)
	l.Reserve(ctx, "a@b.com")

	assert.Equal(t, 5*time.Minute, mr.TTL("login:failures:a@b.com"))
}

func TestLimiter_ReleaseReturnsAttempt(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, l.Reserve(ctx, "a@b.com"))
	}
	l.Release(ctx, "a@b.com")

	got, err := mr.Get("login:failures:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	assert.Equal(t, 15*time.Minute, mr.TTL("login:failures:a@b.com"))
	assert.True(t, l.Reserve(ctx, "a@b.com"))
}

func TestLimiter_ReleaseWithoutWindowIsNoop(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())

	l.Release(context.Background(), "a@b.com")
	assert.False(t, mr.Exists("login:failures:a@b.com"))
}

func TestLimiter_ReleaseAfterCancel(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx, cancel := context.WithCancel(context.Background())

	require.True(t, l.Reserve(ctx, "a@b.com"))
	cancel()
	l.Release(ctx, "a@b.com")

	got, err := mr.Get("login:failures:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestLimiter_ResetClearsCount(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		l.Reserve(ctx, "a@b.com")
	}
	l.Reset(ctx, "a@b.com")

	assert.False(t, mr.Exists("login:failures:a@b.com"))
	assert.True(t, l.Reserve(ctx, "a@b.com"))
}

func TestLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, enabled())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		l.Reserve(ctx, "a@b.com")
	}
	mr.Close()

	assert.True(t, l.Reserve(ctx, "a@b.com"))
	assert.NotPanics(t, func() {
		l.Release(ctx, "a@b.com")
		l.Reset(ctx, "a@b.com")
	})
}

func TestLimiter_Disabled(t *testing.T) {
	cfg := enabled()
	cfg.Enabled = false
	l, mr := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		assert.True(t, l.Reserve(ctx, "a@b.com"))
	}
	l.Release(ctx, "a@b.com")
	assert.Empty(t, mr.Keys())
}

func TestLimiter_NilAllows(t *testing.T) {
	var l *Limiter
	assert.True(t, l.Reserve(context.Background(), "a@b.com"))
	l.Release(context.Background(), "a@b.com")
	l.Reset(context.Background(), "a@b.com")
}
