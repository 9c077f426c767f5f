package core

import "errors"

// Inbound request failures. The HTTP adapter maps each to a distinct status code.
var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrForbidden        = errors.New("forbidden")
	ErrMissingSignature = errors.New("signature header is required")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNotFound         = errors.New("not found")
)

// Failures while acting on a validated event. These are logged and never
// change the response already committed to the platform.
var (
	ErrUpstreamSend        = errors.New("upstream send failed")
	ErrUnhandledEventShape = errors.New("unhandled event shape")
)
