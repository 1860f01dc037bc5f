package vehicle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"

	"github.com/bluelinky/bluelink/internal/dispatcher"
	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/connector"
	"github.com/bluelinky/bluelink/pkg/connector/inet"
	"github.com/bluelinky/bluelink/pkg/form"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

// Telematics generations. Status is only available on Gen2 vehicles.
const (
	Gen1 = 1
	Gen2 = 2
)

var (
	// ErrMissingVIN indicates the caller did not provide a VIN.
	ErrMissingVIN = errors.New("a VIN is required")
	// ErrMissingSession indicates the caller did not provide a Session.
	ErrMissingSession = errors.New("a session is required")
)

// Session supplies account credentials to a Vehicle. See [account.Account] for the standard
// implementation.
type Session = dispatcher.Session

// Metrics records vendor request counts and latencies. Create one with NewMetrics and share it
// between vehicles.
type Metrics = dispatcher.Metrics

// NewMetrics creates request metrics registered with reg.
var NewMetrics = dispatcher.NewMetrics

// Config holds the parameters used to create a Vehicle.
type Config struct {
	VIN     string
	PIN     string
	Session Session

	// Transport defaults to an HTTPS connection using http.DefaultClient.
	Transport connector.Transport
	// Endpoints defaults to protocol.DefaultEndpoints(). Empty fields are filled from the defaults.
	Endpoints protocol.Endpoints
	// Metrics may be nil.
	Metrics *Metrics
}

// A Vehicle represents a vehicle enrolled in the owner's account.
//
// A Vehicle starts loading its feature list and classification as soon as it is created. Until
// Ready() is closed, feature checks may fail for features the vehicle has and requests carry the
// default generation.
type Vehicle struct {
	vin        string
	endpoints  protocol.Endpoints
	dispatcher *dispatcher.Dispatcher

	lock           sync.RWMutex
	features       map[string]bool
	generation     int
	registrationID string
	electric       bool
	bootstrapErr   error

	machine   *fsm.FSM
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a Vehicle and starts its bootstrap sequence in a separate goroutine. Cancelling ctx
// aborts the bootstrap requests; the Vehicle still becomes ready, with default state.
func New(ctx context.Context, config Config) (*Vehicle, error) {
	v, err := newVehicle(config)
	if err != nil {
		return nil, err
	}
	go v.bootstrap(ctx)
	return v, nil
}

func newVehicle(config Config) (*Vehicle, error) {
	if config.VIN == "" {
		return nil, ErrMissingVIN
	}
	if config.Session == nil {
		return nil, ErrMissingSession
	}
	transport := config.Transport
	if transport == nil {
		transport = inet.NewConnection(nil, "")
	}
	v := &Vehicle{
		vin:        config.VIN,
		endpoints:  config.Endpoints.Merge(protocol.DefaultEndpoints()),
		dispatcher: dispatcher.New(config.Session, transport, config.VIN, config.PIN),
		features:   make(map[string]bool),
		generation: Gen2,
		ready:      make(chan struct{}),
	}
	v.dispatcher.SetMetrics(config.Metrics)
	v.machine = newLifecycle(v.markReady)
	return v, nil
}

// VIN returns the vehicle identification number.
func (v *Vehicle) VIN() string {
	return v.vin
}

// Generation returns the vehicle's telematics generation (Gen1 or Gen2).
func (v *Vehicle) Generation() int {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.generation
}

// RegistrationID returns the vendor registration id, which is empty until bootstrap finds it.
func (v *Vehicle) RegistrationID() string {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.registrationID
}

// IsElectric returns true for battery-electric vehicles.
func (v *Vehicle) IsElectric() bool {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.electric
}

// State returns StateInitializing or StateReady.
func (v *Vehicle) State() string {
	return v.machine.Current()
}

// Ready returns a channel that is closed once bootstrap completes, whether or not it succeeded.
func (v *Vehicle) Ready() <-chan struct{} {
	return v.ready
}

// Wait blocks until the vehicle is ready or ctx expires.
func (v *Vehicle) Wait(ctx context.Context) error {
	select {
	case <-v.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", protocol.ErrNotReady, ctx.Err())
	}
}

// BootstrapErr returns the error that interrupted bootstrap, if any. Bootstrap failures leave
// the vehicle usable with default state. The result is only meaningful after Ready() is closed.
func (v *Vehicle) BootstrapErr() error {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.bootstrapErr
}

func (v *Vehicle) markReady() {
	v.readyOnce.Do(func() { close(v.ready) })
}

func (v *Vehicle) state() dispatcher.State {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return dispatcher.State{Generation: v.generation, RegistrationID: v.registrationID}
}

func (v *Vehicle) request(ctx context.Context, endpoint string, fields *form.Fields) (*protocol.Response, error) {
	body, err := v.dispatcher.Dispatch(ctx, endpoint, v.state(), fields)
	if err != nil {
		return nil, err
	}
	rsp, err := protocol.Normalize(body)
	if err != nil {
		return nil, err
	}
	if rsp.IsRaw() {
		log.Debug("Vendor returned non-JSON reply from %s", endpoint)
	}
	return rsp, nil
}

// execute sends fields to endpoint and extracts the operation result found at path.
func (v *Vehicle) execute(ctx context.Context, endpoint string, fields *form.Fields, path ...string) (*protocol.Result, error) {
	rsp, err := v.request(ctx, endpoint, fields)
	if err != nil {
		return nil, err
	}
	return rsp.Result(path...), nil
}
