package connector

import (
	"context"
)

// MaxResponseLength caps the maximum byte-length of responses that transports must support.
const MaxResponseLength = 1000000

//go:generate mockgen -destination ../../mocks/transport.go -package mocks . Transport

// Transport sends encoded requests to the vendor's servlets.
type Transport interface {
	// Post sends body to url and returns the response body.
	//
	// Failures are reported as *protocol.TransportError. Depending on the error, the vendor may
	// have received and even acted on the request; use protocol.MayHaveSucceeded to check.
	//
	// Implementations must be thread safe.
	Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, url, contentType string, body []byte) ([]byte, error)

func (f TransportFunc) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	return f(ctx, url, contentType, body)
}
