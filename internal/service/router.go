package service

import (
	"context"
	"fmt"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/rs/zerolog"
)

// Router dispatches each event of a webhook envelope to its channel handler
type Router struct {
	business *BusinessHandler
}

// NewRouter creates a new event router
func NewRouter(business *BusinessHandler) *Router {
	return &Router{business: business}
}

// Route processes every entry of env in order. It fails only when env does not
// pass Validate; errors and panics raised by individual events are logged and
// never stop processing of sibling events or entries.
func (r *Router) Route(ctx context.Context, env *core.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}

	for i, raw := range env.Entry {
		isolate(ctx, "entry", func() error {
			entry, err := core.DecodeEntry(raw)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			r.routeEntry(ctx, entry)
			return nil
		})
	}

	return nil
}

func (r *Router) routeEntry(ctx context.Context, entry *core.EntryFrame) {
	log := zerolog.Ctx(ctx).With().Str("entry_id", entry.ID).Logger()
	ctx = log.WithContext(ctx)

	log.Debug().
		Int("messaging", len(entry.Messaging)).
		Int("changes", len(entry.Changes)).
		Msg("Processing entry")

	for _, raw := range entry.Messaging {
		isolate(ctx, "messenger", func() error {
			event, err := core.DecodeMessengerEvent(raw)
			if err != nil {
				return err
			}
			handleMessengerEvent(ctx, *event)
			return nil
		})
	}

	for _, raw := range entry.Changes {
		isolate(ctx, "change", func() error {
			change, err := core.DecodeChange(raw)
			if err != nil {
				return err
			}
			return r.routeChange(ctx, *change)
		})
	}
}

func (r *Router) routeChange(ctx context.Context, change core.Change) error {
	if change.Kind() != core.ChangeMessages {
		handlePageChange(ctx, change)
		return nil
	}

	value, err := change.BusinessMessageValue()
	if err != nil {
		return fmt.Errorf("field %q: %w", change.Field, err)
	}
	r.business.Handle(ctx, value)
	return nil
}

// isolate runs fn, logging any error or panic it raises.
func isolate(ctx context.Context, label string, fn func() error) {
	log := zerolog.Ctx(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("event", label).
				Err(fmt.Errorf("panic: %v", rec)).
				Msg("Recovered from panic while handling event")
		}
	}()

	if err := fn(); err != nil {
		log.Error().Str("event", label).Err(err).Msg("Failed to handle event")
	}
}
