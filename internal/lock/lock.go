// Package lock provides keyed advisory locks. Holders of different keys
// never wait on each other.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotHeld indicates a release for a lock the caller no longer owns,
// typically because its lease expired.
var ErrNotHeld = errors.New("lock not held")

// Locker is satisfied by Local and Redis.
type Locker interface {
	Lock(ctx context.Context, key string) (release func() error, err error)
}

// Bounded caps how long Lock waits. A zero wait leaves the caller's
// context as the only bound.
type Bounded struct {
	Locker Locker
	Wait   time.Duration
}

// WithWait wraps l so every acquisition gives up after wait.
func WithWait(l Locker, wait time.Duration) Locker {
	if wait <= 0 {
		return l
	}
	return &Bounded{Locker: l, Wait: wait}
}

func (b *Bounded) Lock(ctx context.Context, key string) (func() error, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Wait)
	defer cancel()
	return b.Locker.Lock(ctx, key)
}
