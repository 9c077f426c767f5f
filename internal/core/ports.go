package core

import "context"

// MessageSender defines the interface for outbound WhatsApp messaging
type MessageSender interface {
	SendText(ctx context.Context, to string, body string) error
}
