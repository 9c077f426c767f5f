package service

import (
	"context"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/rs/zerolog"
)

// handleMessengerEvent logs Messenger messages and postbacks. No reply is sent.
func handleMessengerEvent(ctx context.Context, event core.MessengerEvent) {
	log := zerolog.Ctx(ctx).With().
		Str("sender_id", event.Sender.ID).
		Str("recipient_id", event.Recipient.ID).
		Int64("timestamp", event.Timestamp).
		Logger()

	if event.Message != nil {
		log.Info().Str("text", event.Message.Text).Msg("Messenger message received")
	}

	if event.Postback != nil {
		log.Info().Str("payload", event.Postback.Payload).Msg("Messenger postback received")
	}

	if event.Message == nil && event.Postback == nil {
		log.Debug().Msg("Messenger event without message or postback")
	}
}

// handlePageChange logs a Page or Instagram change, labeled by its field.
func handlePageChange(ctx context.Context, change core.Change) {
	event := zerolog.Ctx(ctx).Info().
		Str("field", change.Field).
		Stringer("kind", change.Kind())
	if len(change.Value) > 0 {
		event = event.RawJSON("value", change.Value)
	}

	switch change.Kind() {
	case core.ChangeFeed:
		event.Msg("Feed update")
	case core.ChangeComments:
		event.Msg("Comment update")
	case core.ChangeMessages:
		event.Msg("Message update")
	case core.ChangeUnhandled:
		event.Msg("Unhandled page change field")
	}
}
