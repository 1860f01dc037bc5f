package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/connector"
	"github.com/bluelinky/bluelink/pkg/form"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

// State holds the per-vehicle values that bootstrap derives and every request carries.
type State struct {
	Generation     int
	RegistrationID string
}

// Dispatcher sends requests on behalf of a single vehicle. Each call to Dispatch results in
// exactly one POST; failures are never retried.
type Dispatcher struct {
	session   Session
	transport connector.Transport
	vin       string
	pin       string
	metrics   *Metrics
}

// New creates a Dispatcher for the vehicle identified by vin and pin.
func New(session Session, transport connector.Transport, vin, pin string) *Dispatcher {
	return &Dispatcher{
		session:   session,
		transport: transport,
		vin:       vin,
		pin:       pin,
	}
}

// SetMetrics enables request metrics. A nil m disables them.
func (d *Dispatcher) SetMetrics(m *Metrics) {
	d.metrics = m
}

// Fields returns the request body for an operation: session fields followed by the operation's
// fields, which take precedence.
func (d *Dispatcher) Fields(state State, operation *form.Fields) *form.Fields {
	fields := form.New(
		"vin", d.vin,
		"username", d.session.Username(),
		"pin", d.pin,
		"url", protocol.DashboardURL,
		"token", d.session.AccessToken(),
		"gen", state.Generation,
	)
	if state.RegistrationID != "" {
		fields.Set("regId", state.RegistrationID)
	}
	return fields.Merge(operation)
}

// Dispatch refreshes the session if needed and POSTs the operation to endpoint. It returns the
// raw response body.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, state State, operation *form.Fields) ([]byte, error) {
	service := serviceName(operation)
	logger := log.With("request_id", uuid.NewString())
	logger.Debug().Str("endpoint", endpoint).Interface("fields", operation.Map()).Msg("Dispatching request")

	start := time.Now()
	if err := d.session.RefreshIfNeeded(ctx); err != nil {
		d.metrics.observe(service, outcomeRefreshError, time.Since(start))
		return nil, fmt.Errorf("could not refresh session: %w", err)
	}

	body, contentType := d.Fields(state, operation).Encode()
	rsp, err := d.transport.Post(ctx, endpoint, contentType, body)
	if err != nil {
		var transportErr *protocol.TransportError
		if !errors.As(err, &transportErr) {
			err = &protocol.TransportError{Err: err}
		}
		d.metrics.observe(service, outcomeTransport, time.Since(start))
		logger.Debug().Err(err).Msg("Request failed")
		return nil, err
	}
	d.metrics.observe(service, outcomeOK, time.Since(start))
	logger.Debug().Bytes("body", rsp).Msg("Received response")
	return rsp, nil
}

func serviceName(fields *form.Fields) string {
	// The status servlet reads "services" rather than "service".
	for _, key := range []string{"service", "services"} {
		if v, ok := fields.Get(key); ok {
			return form.Render(v)
		}
	}
	return "unknown"
}
