package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingHandler struct {
	release chan struct{}
	done    int32
	mu      sync.Mutex
	seen    []string
}

func (h *blockingHandler) Process(ctx context.Context, ev Event) (State, error) {
	select {
	case <-h.release:
	case <-ctx.Done():
		return StateFailed, ctx.Err()
	}
	h.mu.Lock()
	h.seen = append(h.seen, ev.ID)
	h.mu.Unlock()
	atomic.AddInt32(&h.done, 1)
	return StateDelivered, nil
}

func TestPool_FullQueueRejectsAndStopDrains(t *testing.T) {
	h := &blockingHandler{release: make(chan struct{})}
	p := NewPool(h, 1, 2, time.Minute, zerolog.Nop())
	p.Start()
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, Event{ID: "1"}))
	// let the single worker pick up the first event
	require.Eventually(t, func() bool { return len(p.queue) == 0 }, time.Second, time.Millisecond)

	require.NoError(t, p.Dispatch(ctx, Event{ID: "2"}))
	require.NoError(t, p.Dispatch(ctx, Event{ID: "3"}))
	assert.ErrorIs(t, p.Dispatch(ctx, Event{ID: "4"}), ErrQueueFull)

	close(h.release)
	require.NoError(t, p.Stop(ctx))
	assert.Equal(t, int32(3), atomic.LoadInt32(&h.done))
	assert.ElementsMatch(t, []string{"1", "2", "3"}, h.seen)

	assert.ErrorIs(t, p.Dispatch(ctx, Event{ID: "5"}), ErrStopped)
}

func TestPool_StopDeadlineCancelsInFlight(t *testing.T) {
	h := &blockingHandler{release: make(chan struct{})}
	p := NewPool(h, 2, 4, time.Minute, zerolog.Nop())
	p.Start()

	require.NoError(t, p.Dispatch(context.Background(), Event{ID: "1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.done))
}

func TestPool_PerTaskTimeout(t *testing.T) {
	h := &blockingHandler{release: make(chan struct{})}
	p := NewPool(h, 1, 1, 10*time.Millisecond, zerolog.Nop())
	p.Start()

	require.NoError(t, p.Dispatch(context.Background(), Event{ID: "slow"}))
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.done))
}

type capturePublisher struct {
	bodies [][]byte
}

func (c *capturePublisher) Publish(_ context.Context, body []byte) error {
	c.bodies = append(c.bodies, body)
	return nil
}

func TestBrokerDispatcher_PublishesDecodableEvent(t *testing.T) {
	pub := &capturePublisher{}
	d := NewBrokerDispatcher(pub)

	ev, err := NewEvent("555", "Ana", "What are your hours?", "abc123")
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(context.Background(), ev))
	require.Len(t, pub.bodies, 1)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(pub.bodies[0], &raw))
	assert.Equal(t, ev.ID, raw["id"])

	back, err := DecodeEvent(pub.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, ev.Text, back.Text)
	assert.True(t, ev.ReceivedAt.Equal(back.ReceivedAt))
}
