// Package inet implements connector.Transport over HTTPS.
package inet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/connector"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

// Connection implements the connector.Transport interface by POSTing requests to the vendor.
type Connection struct {
	UserAgent string
	client    *http.Client
}

// NewConnection creates a Connection. A nil client selects http.DefaultClient, so requests use
// the transport's default timeouts.
func NewConnection(client *http.Client, userAgent string) *Connection {
	if client == nil {
		client = http.DefaultClient
	}
	return &Connection{
		UserAgent: userAgent,
		client:    client,
	}
}

func ReadWithContext(ctx context.Context, r io.Reader, p []byte) ([]byte, error) {
	bytesRead := 0
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, err := r.Read(p[bytesRead:])
		bytesRead += n
		if err == io.EOF {
			return p[:bytesRead], nil
		}
		if err != nil {
			return p[:bytesRead], err
		}
		if bytesRead == len(p) {
			return p[:bytesRead], nil
		}
	}
}

func (c *Connection) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, protocol.NewRequestError(err)
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", "application/json, text/plain, */*")
	if c.UserAgent != "" {
		request.Header.Set("User-Agent", c.UserAgent)
	}

	result, err := c.client.Do(request)
	if err != nil {
		return nil, &protocol.TransportError{Err: err}
	}
	defer result.Body.Close()

	rsp := make([]byte, connector.MaxResponseLength+1)
	rsp, err = ReadWithContext(ctx, result.Body, rsp)
	if err != nil {
		return nil, &protocol.TransportError{Code: result.StatusCode, Err: err}
	}
	if len(rsp) == connector.MaxResponseLength+1 {
		return nil, &protocol.TransportError{Code: result.StatusCode, Err: fmt.Errorf("response exceeds maximum length")}
	}

	log.Debug("Server returned %d: %s", result.StatusCode, http.StatusText(result.StatusCode))
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return nil, &protocol.TransportError{Code: result.StatusCode, Message: string(rsp)}
	}
	return rsp, nil
}
