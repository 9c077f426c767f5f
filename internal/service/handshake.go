package service

import (
	"fmt"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
)

// SubscribeMode is the only hub.mode accepted during the handshake
const SubscribeMode = "subscribe"

// VerifyHandshake classifies a subscription handshake. It returns nil when the
// challenge should be echoed, core.ErrMalformedRequest when mode or token is
// absent, and core.ErrForbidden otherwise. Absence is checked before equality.
func VerifyHandshake(req core.VerificationRequest, expectedToken string) error {
	if req.Mode == "" || req.Token == "" {
		return fmt.Errorf("hub.mode and hub.verify_token are required: %w", core.ErrMalformedRequest)
	}

	if req.Mode != SubscribeMode || req.Token != expectedToken {
		return fmt.Errorf("handshake rejected for mode %q: %w", req.Mode, core.ErrForbidden)
	}

	return nil
}
