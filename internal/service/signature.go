package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
)

const (
	// SignatureHeader carries the HMAC-SHA256 of the raw request body
	SignatureHeader = "X-Hub-Signature-256"

	signaturePrefix = "sha256="
)

// SignatureVerifier checks X-Hub-Signature-256 against the raw request body
type SignatureVerifier struct {
	secret        []byte
	requireHeader bool
}

// NewSignatureVerifier creates a verifier. An empty secret disables verification.
// requireHeader selects the policy for a missing header when a secret is set:
// reject when true, let the request through when false.
func NewSignatureVerifier(secret string, requireHeader bool) *SignatureVerifier {
	return &SignatureVerifier{
		secret:        []byte(secret),
		requireHeader: requireHeader,
	}
}

// Enabled reports whether a secret is configured.
func (v *SignatureVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// RequiresHeader reports whether a missing header is rejected.
func (v *SignatureVerifier) RequiresHeader() bool {
	return v.requireHeader
}

// Verify validates signature against body. body must be the bytes exactly as
// received; a re-serialized payload will not match the sender's digest.
func (v *SignatureVerifier) Verify(body []byte, signature string) error {
	if !v.Enabled() {
		return nil
	}

	if signature == "" {
		if v.requireHeader {
			return core.ErrMissingSignature
		}
		return nil
	}

	// Signature format: sha256=<hex_string>
	if !strings.HasPrefix(signature, signaturePrefix) {
		return fmt.Errorf("signature lacks %q prefix: %w", signaturePrefix, core.ErrInvalidSignature)
	}

	expectedSig, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return fmt.Errorf("signature is not hex: %w", core.ErrInvalidSignature)
	}

	if !hmac.Equal(expectedSig, computeMAC(v.secret, body)) {
		return core.ErrInvalidSignature
	}

	return nil
}

// Sign returns the X-Hub-Signature-256 header value for body.
func Sign(secret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(computeMAC([]byte(secret), body))
}

func computeMAC(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
