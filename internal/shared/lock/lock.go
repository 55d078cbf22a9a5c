package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock could not be taken before ctx ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes work on a key across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Nop is a Locker that always succeeds immediately.
type Nop struct{}

func (Nop) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}

var _ Locker = Nop{}
