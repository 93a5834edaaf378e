// Package throttle limits failed logins per email with a fixed window in
// Redis. It fails open: when Redis is unreachable or its breaker is open,
// logins proceed and a warning is logged.
package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/priyabakthisaran/SocialNetworkClone/pkg/breaker"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
)

const keyPrefix = "login:failures:"

// Config controls the failure window.
type Config struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// Limiter counts login attempts. A nil *Limiter allows everything.
type Limiter struct {
	client redis.Cmdable
	cb     *breaker.Breaker[int64]
	cfg    Config
	logger *slog.Logger
}

// New creates a limiter backed by client.
func New(client redis.Cmdable, cfg Config, l *slog.Logger) *Limiter {
	return &Limiter{
		client: client,
		cb:     breaker.New[int64](breaker.DefaultConfig("redis-login-throttle"), l, breaker.IgnoreCanceled),
		cfg:    cfg,
		logger: l,
	}
}

func key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) active() bool {
	return l != nil && l.cfg.Enabled && l.cfg.MaxAttempts > 0
}

// Reserve takes one attempt from the window for email before credentials
// are checked, and reports whether the attempt may proceed. The count is
// incremented atomically, so concurrent attempts cannot all pass on the
// same stale read. The window starts at the first attempt and is not
// extended by later ones. A reserved attempt that fails stays counted.
func (l *Limiter) Reserve(ctx context.Context, email string) bool {
	if !l.active() {
		return true
	}

	k := key(email)
	count, err := l.cb.Execute(func() (int64, error) {
		var incr *redis.IntCmd
		_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, k)
			pipe.ExpireNX(ctx, k, l.cfg.Window)
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("reserve attempt: %w", err)
		}
		return incr.Val(), nil
	})
	if err != nil {
		l.warn(ctx, "reserve", err)
		return true
	}
	return count <= int64(l.cfg.MaxAttempts)
}

// releaseScript decrements an existing positive counter. A missing key is
// left alone so an expired window is never recreated without a TTL.
var releaseScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// Release hands back a reserved attempt that did not fail on credentials,
// e.g. when the store was unavailable.
func (l *Limiter) Release(ctx context.Context, email string) {
	if !l.active() {
		return
	}

	// The attempt may have ended because ctx was canceled.
	ctx = context.WithoutCancel(ctx)
	_, err := l.cb.Execute(func() (int64, error) {
		return releaseScript.Run(ctx, l.client, []string{key(email)}).Int64()
	})
	if err != nil {
		l.warn(ctx, "release", err)
	}
}

// Reset clears the failure count after a successful login.
func (l *Limiter) Reset(ctx context.Context, email string) {
	if !l.active() {
		return
	}

	_, err := l.cb.Execute(func() (int64, error) {
		return l.client.Del(ctx, key(email)).Result()
	})
	if err != nil {
		l.warn(ctx, "reset", err)
	}
}

func (l *Limiter) warn(ctx context.Context, op string, err error) {
	logger.FromContext(ctx, l.logger).WarnContext(ctx, "login throttle unavailable, allowing",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
