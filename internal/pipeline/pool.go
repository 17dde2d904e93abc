package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/metrics"
)

var (
	ErrQueueFull = errors.New("pipeline: queue full")
	ErrStopped   = errors.New("pipeline: dispatcher stopped")
)

// Dispatcher hands an acknowledged event to background processing without
// waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

type Handler interface {
	Process(ctx context.Context, ev Event) (State, error)
}

// Pool is the in-process Dispatcher: a bounded queue drained by a fixed number
// of workers. Failed events are not retried.
type Pool struct {
	h       Handler
	queue   chan Event
	workers int
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewPool(h Handler, workers, size int, timeout time.Duration, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = workers * 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		h:       h,
		queue:   make(chan Event, size),
		workers: workers,
		timeout: timeout,
		log:     log.With().Str("component", "pool").Logger(),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

func (p *Pool) Start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.work(i)
	}
	p.log.Info().Int("workers", p.workers).Int("queue", cap(p.queue)).Msg("pipeline pool started")
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for ev := range p.queue {
		p.runOne(id, ev)
	}
}

func (p *Pool) runOne(id int, ev Event) {
	ctx := p.baseCtx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Str("event_id", ev.ID).Interface("panic", r).Msg("event panicked")
		}
	}()
	_, _ = p.h.Process(ctx, ev)
}

// Dispatch enqueues ev or fails fast; it never waits for a free slot.
func (p *Pool) Dispatch(_ context.Context, ev Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queue <- ev:
		return nil
	default:
		metrics.QueueRejectedTotal.Inc()
		return ErrQueueFull
	}
}

// Stop refuses new events and waits for queued ones to finish. If ctx ends
// first, in-flight events are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
