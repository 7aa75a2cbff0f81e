package yolo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handle struct {
	id     int
	closed atomic.Bool
}

func handles(n int) []*handle {
	hs := make([]*handle, n)
	for i := range hs {
		hs[i] = &handle{id: i}
	}
	return hs
}

func TestPoolNeverLendsAHandleTwice(t *testing.T) {
	p := newPool(handles(3))

	var (
		inUse   sync.Map
		current atomic.Int32
		peak    atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 48; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := p.get(context.Background())
			if !assert.NoError(t, err) {
				return
			}

			_, loaded := inUse.LoadOrStore(h.id, true)
			assert.False(t, loaded, "handle %d lent twice", h.id)

			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)

			inUse.Delete(h.id)
			p.put(h)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int32(3))
	require.NoError(t, p.close(func(*handle) error { return nil }))
}

func TestPoolGetHonoursCancellation(t *testing.T) {
	p := newPool(handles(1))

	h, err := p.get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = p.get(cancelled)
	require.ErrorIs(t, err, context.Canceled)

	p.put(h)
	got, err := p.get(context.Background())
	require.NoError(t, err)
	require.Equal(t, h, got)
	p.put(got)
}

func TestPoolCloseWaitsForCheckedOutHandles(t *testing.T) {
	hs := handles(2)
	p := newPool(hs)

	lent, err := p.get(context.Background())
	require.NoError(t, err)

	closed := make(chan error, 1)
	go func() {
		closed <- p.close(func(h *handle) error {
			h.closed.Store(true)
			return nil
		})
	}()

	select {
	case <-closed:
		t.Fatal("close returned while a handle was still checked out")
	case <-time.After(50 * time.Millisecond):
	}
	require.False(t, lent.closed.Load())

	p.put(lent)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return after the handle came back")
	}
	for _, h := range hs {
		require.True(t, h.closed.Load(), "handle %d not released", h.id)
	}
}

func TestPoolRejectsCheckoutAfterClose(t *testing.T) {
	p := newPool(handles(2))

	boom := errors.New("release failed")
	err := p.close(func(h *handle) error {
		if h.id == 1 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)

	_, err = p.get(context.Background())
	require.ErrorIs(t, err, errPoolClosed)

	require.ErrorIs(t, p.close(func(*handle) error { return nil }), boom)
}
