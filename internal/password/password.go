// Package password hashes and verifies credentials with bcrypt. Hashing is
// CPU-bound, so calls share a bounded number of slots and one slow hash
// cannot starve the rest of the process.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used in production.
const DefaultCost = 12

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// ErrTooLong is returned by Hash for passwords over MaxLength bytes.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Observer receives the duration of each hash ("hash") and verify ("verify").
type Observer func(op string, d time.Duration)

// Hasher is safe for concurrent use.
type Hasher struct {
	cost    int
	slots   *semaphore.Weighted
	observe Observer
}

// NewHasher creates a hasher with the given bcrypt cost. concurrency bounds
// simultaneous bcrypt calls; zero or less means runtime.NumCPU().
func NewHasher(cost, concurrency int, observe Observer) *Hasher {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if observe == nil {
		observe = func(string, time.Duration) {}
	}
	return &Hasher{
		cost:    cost,
		slots:   semaphore.NewWeighted(int64(concurrency)),
		observe: observe,
	}
}

// run times fn together with the wait for a free slot.
func (h *Hasher) run(ctx context.Context, op string, fn func()) error {
	start := time.Now()
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for %s slot: %w", op, err)
	}
	defer h.slots.Release(1)

	fn()
	h.observe(op, time.Since(start))
	return nil
}

// Hash returns the bcrypt hash of plaintext. The hash never equals the
// plaintext and embeds a random salt.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > MaxLength {
		return "", ErrTooLong
	}

	var (
		hash []byte
		err  error
	)
	if runErr := h.run(ctx, "hash", func() {
		hash, err = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	}); runErr != nil {
		return "", runErr
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A mismatch or a malformed
// hash yields false; the only error is ctx ending while waiting for a slot.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var match bool
	err := h.run(ctx, "verify", func() {
		match = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	})
	if err != nil {
		return false, err
	}
	return match, nil
}
