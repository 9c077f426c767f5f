package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single delivery when no timeout is configured
const DefaultTimeout = 15 * time.Second

// ErrClosed is returned by Submit once Wait has been called
var ErrClosed = errors.New("processor is no longer accepting deliveries")

// Event is one validated webhook delivery waiting to be routed
type Event struct {
	DeliveryID string
	ReceivedAt time.Time
	Envelope   *core.Envelope
}

// Handler routes one envelope. The router satisfies it.
type Handler interface {
	Route(ctx context.Context, env *core.Envelope) error
}

// Processor runs deliveries detached from the inbound request, each bounded by a timeout.
// Failures go to the log only. It keeps no per-delivery state beyond the in-flight
// count needed to drain on shutdown.
type Processor struct {
	handler Handler
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewProcessor creates a new processor
func NewProcessor(handler Handler, timeout time.Duration, logger zerolog.Logger) *Processor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Processor{
		handler: handler,
		timeout: timeout,
		logger:  logger,
	}
}

// Submit starts processing event and returns immediately. It returns
// ErrClosed after Wait has been called.
func (p *Processor) Submit(event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(event)
	}()
	return nil
}

// Process routes event on the calling goroutine.
func (p *Processor) Process(event Event) {
	p.process(event)
}

func (p *Processor) process(event Event) {
	log := p.logger.With().Str("delivery_id", event.DeliveryID).Logger()

	// Detached from the request context, which ends once the response is written
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	ctx = log.WithContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Err(fmt.Errorf("panic: %v", rec)).Msg("Recovered from panic while processing delivery")
		}
	}()

	start := time.Now()
	if err := p.handler.Route(ctx, event.Envelope); err != nil {
		log.Error().Err(err).Msg("Failed to process delivery")
		return
	}

	if ctx.Err() != nil {
		log.Warn().Dur("timeout", p.timeout).Msg("Delivery processing exceeded its deadline")
	}

	log.Debug().
		Dur("elapsed", time.Since(start)).
		Dur("queued", start.Sub(event.ReceivedAt)).
		Msg("Delivery processed")
}

// Wait stops accepting deliveries and blocks until all submitted ones
// finish or ctx is done.
func (p *Processor) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight deliveries: %w", ctx.Err())
	}
}
