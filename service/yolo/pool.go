package yolo

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/xerrors"
)

var errPoolClosed = xerrors.New("yolo service is closed")

// pool hands out a fixed set of handles, one caller at a time per handle.
type pool[T any] struct {
	items     chan T
	size      int
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newPool[T any](items []T) *pool[T] {
	p := &pool[T]{
		items:  make(chan T, len(items)),
		size:   len(items),
		closed: make(chan struct{}),
	}
	for _, item := range items {
		p.items <- item
	}
	return p
}

// get blocks until a handle is free, ctx is done or the pool is closed.
func (p *pool[T]) get(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-p.closed:
		return zero, errPoolClosed
	default:
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-p.closed:
		return zero, errPoolClosed
	case item, ok := <-p.items:
		if !ok {
			return zero, errPoolClosed
		}
		return item, nil
	}
}

// put returns a handle obtained from get.
func (p *pool[T]) put(item T) {
	p.items <- item
}

// close rejects new checkouts, waits for every handle to come back and releases each with fn.
func (p *pool[T]) close(fn func(T) error) error {
	p.closeOnce.Do(func() {
		close(p.closed)

		var errs []error
		for i := 0; i < p.size; i++ {
			if err := fn(<-p.items); err != nil {
				errs = append(errs, err)
			}
		}
		close(p.items)
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
