package service

import (
	"context"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/rs/zerolog"
)

// Fixed acknowledgments for non-text business messages
const (
	ReplyImageAck    = "Thanks for the image! 📸"
	ReplyDocumentAck = "Thanks for the document! 📄"
	ReplyGenericAck  = "Thanks for your message! 👍"
)

// BusinessHandler replies to WhatsApp Business messages and logs status updates
type BusinessHandler struct {
	sender   core.MessageSender
	composer *Composer
}

// NewBusinessHandler creates a new business-messaging handler
func NewBusinessHandler(sender core.MessageSender, composer *Composer) *BusinessHandler {
	return &BusinessHandler{
		sender:   sender,
		composer: composer,
	}
}

// Handle processes one "messages" change value. Only the first message is
// answered; later messages in the same value are ignored. Status updates are
// logged and never answered. Send failures are logged and swallowed.
func (h *BusinessHandler) Handle(ctx context.Context, value *core.BusinessMessageValue) {
	log := zerolog.Ctx(ctx)

	if len(value.Messages) > 0 {
		message := value.Messages[0]
		if len(value.Messages) > 1 {
			log.Warn().
				Int("count", len(value.Messages)).
				Str("message_id", message.ID).
				Msg("Multiple messages in one event, only the first is answered")
		}

		reply := h.replyFor(message)
		log.Info().
			Str("from", message.From).
			Str("message_id", message.ID).
			Stringer("kind", message.Kind()).
			Str("type", message.Type).
			Msg("WhatsApp message received")

		if err := h.sender.SendText(ctx, message.From, reply); err != nil {
			log.Error().Err(err).Str("to", message.From).Msg("Failed to send WhatsApp reply")
		}
	}

	if len(value.Statuses) > 0 {
		status := value.Statuses[0]
		log.Info().
			Str("status", status.Status).
			Str("message_id", status.ID).
			Msg("WhatsApp message status update")
	}
}

func (h *BusinessHandler) replyFor(message core.InboundMessage) string {
	switch message.Kind() {
	case core.MessageText:
		return h.composer.Compose(message.TextBody())
	case core.MessageImage:
		return ReplyImageAck
	case core.MessageDocument:
		return ReplyDocumentAck
	case core.MessageUnhandled:
		return ReplyGenericAck
	}
	return ReplyGenericAck
}
