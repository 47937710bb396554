package lock

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"
)

// slot is a one-place semaphore plus the number of callers holding or
// waiting on it. A slot with no callers is dropped from the table.
type slot struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed lock. Each key owns a one-slot semaphore so
// a waiter can give up when its context ends.
type Local struct {
	slots *xsync.Map[string, *slot]
}

// NewLocal creates an empty in-process lock table.
func NewLocal() *Local {
	return &Local{slots: xsync.NewMap[string, *slot]()}
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func() error, error) {
	s, _ := l.slots.Compute(key, func(old *slot, loaded bool) (*slot, xsync.ComputeOp) {
		if !loaded {
			old = &slot{ch: make(chan struct{}, 1)}
		}
		old.refs++
		return old, xsync.UpdateOp
	})
	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}

	released := false
	return func() error {
		if released {
			return ErrNotHeld
		}
		released = true
		<-s.ch
		l.unref(key)
		return nil
	}, nil
}

// Len reports how many keys are currently held or waited on.
func (l *Local) Len() int {
	return l.slots.Size()
}

func (l *Local) unref(key string) {
	l.slots.Compute(key, func(old *slot, loaded bool) (*slot, xsync.ComputeOp) {
		if !loaded {
			return nil, xsync.CancelOp
		}
		old.refs--
		if old.refs == 0 {
			return nil, xsync.DeleteOp
		}
		return old, xsync.UpdateOp
	})
}
