package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/account"
	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

const (
	// DefaultTimeout bounds a single request, including the wait for a newly created vehicle to
	// finish loading. Status refreshes that contact the vehicle are slow.
	DefaultTimeout      = 90 * time.Second
	maxRequestBodyBytes = 4096
	vinLength           = 17

	// PINHeader optionally carries the vehicle PIN. Requests without it use Proxy.PIN.
	PINHeader = "X-Bluelink-Pin"
)

//go:generate mockgen -destination ../../mocks/proxy.go -package mocks -mock_names Account=ProxyAccount,Vehicle=ProxyVehicle . Account,Vehicle

// Vehicle is the subset of [vehicle.Vehicle] used by the proxy.
type Vehicle interface {
	Wait(ctx context.Context) error
	BootstrapErr() error

	Lock(ctx context.Context) (*protocol.Result, error)
	Unlock(ctx context.Context) (*protocol.Result, error)
	Start(ctx context.Context, config *vehicle.StartConfig) (*protocol.Result, error)
	Stop(ctx context.Context) (*protocol.Result, error)
	FlashLights(ctx context.Context) (*protocol.Result, error)
	Panic(ctx context.Context) (*protocol.Result, error)
	SendPointOfInterest(ctx context.Context, poi vehicle.PointOfInterest) (*protocol.Result, error)

	Status(ctx context.Context, refresh bool) (*protocol.Result, error)
	Health(ctx context.Context) (*protocol.Result, error)
	AccountInfo(ctx context.Context) (*protocol.Result, error)
	OwnerInfo(ctx context.Context) (*protocol.Result, error)
	Features(ctx context.Context) (*protocol.Result, error)
	ServiceInfo(ctx context.Context) (*protocol.Result, error)
	PinStatus(ctx context.Context) (*protocol.Result, error)
	SubscriptionStatus(ctx context.Context) (*protocol.Result, error)
	Messages(ctx context.Context) (*protocol.Result, error)
	APIUsageStatus(ctx context.Context, from, to time.Time) (*protocol.Result, error)
}

// Account creates Vehicles. See [FromAccount].
type Account interface {
	GetVehicle(ctx context.Context, vin, pin string) (Vehicle, error)
}

type accountAdapter struct {
	acct *account.Account
}

func (a accountAdapter) GetVehicle(ctx context.Context, vin, pin string) (Vehicle, error) {
	car, err := a.acct.GetVehicle(ctx, vin, pin)
	if err != nil {
		return nil, err
	}
	return car, nil
}

// FromAccount adapts an [account.Account] for use with New.
func FromAccount(acct *account.Account) Account {
	return accountAdapter{acct: acct}
}

// Proxy exposes an HTTP API for sending vehicle commands.
type Proxy struct {
	Timeout time.Duration
	// PIN is used for requests that do not set PINHeader.
	PIN string

	ctx      context.Context
	account  Account
	vinLock  sync.Map
	vehicles sync.Map
	router   *gin.Engine
	requests *prometheus.CounterVec
}

// Response contains a server's response to a client request.
type Response struct {
	Response   interface{} `json:"response"`
	Error      string      `json:"error,omitempty"`
	ErrDetails string      `json:"error_description,omitempty"`
}

// New creates an http proxy that sends requests on behalf of acct. Vehicles are created on first
// use and cached until ctx is cancelled, which also aborts any vehicle that is still loading.
//
// Metrics are registered with registry and served from /metrics. A nil registry selects a new,
// private registry.
func New(ctx context.Context, acct Account, registry *prometheus.Registry) (*Proxy, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bluelink_proxy_requests_total",
		Help: "HTTP requests handled by the proxy, by route and status code.",
	}, []string{"route", "code"})
	if err := registry.Register(requests); err != nil {
		return nil, fmt.Errorf("could not register proxy metrics: %w", err)
	}

	p := &Proxy{
		Timeout:  DefaultTimeout,
		ctx:      ctx,
		account:  acct,
		requests: requests,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), p.instrument)
	router.POST("/api/1/vehicles/:vin/command/:command", p.handleCommand)
	router.GET("/api/1/vehicles/:vin/data/:query", p.handleQuery)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.NoRoute(func(c *gin.Context) {
		writeJSONError(c, http.StatusNotFound, fmt.Errorf("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})
	p.router = router
	return p, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.router.ServeHTTP(w, req)
}

func (p *Proxy) instrument(c *gin.Context) {
	start := time.Now()
	log.Info("Received %s request for %s", c.Request.Method, c.Request.URL.Path)
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	code := c.Writer.Status()
	p.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	log.Debug("Completed %s %s with %d in %s", c.Request.Method, c.Request.URL.Path, code, time.Since(start))
}

// lockVIN locks a VIN-specific mutex, blocking until the operation succeeds or ctx expires.
func (p *Proxy) lockVIN(ctx context.Context, vin string) error {
	lock := make(chan bool, 1)
	for {
		if obj, loaded := p.vinLock.LoadOrStore(vin, lock); loaded {
			select {
			case <-obj.(chan bool):
				// Whoever wakes up must still win LoadOrStore; the owner deletes the entry on
				// unlock, so the map only holds VINs with an operation in flight.
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			return nil
		}
	}
}

// unlockVIN releases a VIN-specific mutex.
func (p *Proxy) unlockVIN(vin string) {
	obj, ok := p.vinLock.Load(vin)
	if !ok {
		panic("called unlock without owning mutex")
	}
	p.vinLock.Delete(vin)
	close(obj.(chan bool))
}

func (p *Proxy) handleCommand(c *gin.Context) {
	vin := c.Param("vin")
	if len(vin) != vinLength {
		writeJSONError(c, http.StatusNotFound, errors.New("expected 17-character VIN in path"))
		return
	}
	params, err := readBodyParameters(c.Request)
	if err != nil {
		writeJSONError(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), p.Timeout)
	defer cancel()
	action, err := ExtractCommandAction(ctx, c.Param("command"), params)
	if err != nil {
		writeJSONError(c, http.StatusBadRequest, err)
		return
	}
	p.execute(ctx, c, vin, action)
}

func (p *Proxy) handleQuery(c *gin.Context) {
	vin := c.Param("vin")
	if len(vin) != vinLength {
		writeJSONError(c, http.StatusNotFound, errors.New("expected 17-character VIN in path"))
		return
	}
	params := make(RequestParameters)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), p.Timeout)
	defer cancel()
	action, err := ExtractQueryAction(ctx, c.Param("query"), params)
	if err != nil {
		writeJSONError(c, http.StatusBadRequest, err)
		return
	}
	p.execute(ctx, c, vin, action)
}

func (p *Proxy) execute(ctx context.Context, c *gin.Context, vin string, action Action) {
	// Requests for the same VIN are serialized. The vendor rejects overlapping remote commands.
	if err := p.lockVIN(ctx, vin); err != nil {
		writeJSONError(c, http.StatusServiceUnavailable, err)
		return
	}
	defer p.unlockVIN(vin)

	pin := c.GetHeader(PINHeader)
	if pin == "" {
		pin = p.PIN
	}
	car, err := p.loadVehicle(ctx, vin, pin)
	if err != nil {
		writeJSONError(c, statusForError(err), err)
		return
	}

	result, err := action(car)
	if err != nil {
		writeJSONError(c, statusForError(err), err)
		return
	}
	c.JSON(http.StatusOK, &Response{Response: result})
}

// cachedVehicle is a Vehicle along with the PIN it was created with.
type cachedVehicle struct {
	pin string
	car Vehicle
}

// loadVehicle returns the cached Vehicle for vin, creating it if necessary, and waits for it to
// finish loading. A cached Vehicle created with a different PIN is replaced. Vehicles that the
// account does not own are not cached.
func (p *Proxy) loadVehicle(ctx context.Context, vin, pin string) (Vehicle, error) {
	var car Vehicle
	if obj, ok := p.vehicles.Load(vin); ok && obj.(cachedVehicle).pin == pin {
		car = obj.(cachedVehicle).car
	} else {
		log.Debug("Creating vehicle %s", vin)
		created, err := p.account.GetVehicle(p.ctx, vin, pin)
		if err != nil {
			return nil, err
		}
		p.vehicles.Store(vin, cachedVehicle{pin: pin, car: created})
		car = created
	}

	if err := car.Wait(ctx); err != nil {
		return nil, err
	}
	var notFound *protocol.VehicleNotFoundError
	if err := car.BootstrapErr(); errors.As(err, &notFound) {
		p.vehicles.Delete(vin)
		return nil, err
	}
	return car, nil
}

func readBodyParameters(req *http.Request) (RequestParameters, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxRequestBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read request body: %w", err)
	}
	if len(body) > maxRequestBodyBytes {
		return nil, errors.New("request body too large")
	}
	if len(body) == 0 {
		return nil, nil
	}
	var params RequestParameters
	if err := json.Unmarshal(body, &params); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return params, nil
}

func statusForError(err error) int {
	var (
		paramErr      *ParamError
		featureErr    *protocol.UnsupportedFeatureError
		generationErr *protocol.UnsupportedGenerationError
		notFoundErr   *protocol.VehicleNotFoundError
		transportErr  *protocol.TransportError
	)
	switch {
	case errors.As(err, &paramErr), errors.Is(err, ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.As(err, &featureErr), errors.As(err, &generationErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, protocol.ErrPinLocked):
		return http.StatusLocked
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, protocol.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSONError(c *gin.Context, code int, err error) {
	reply := Response{}
	if err == nil {
		reply.Error = http.StatusText(code)
	} else {
		reply.Error = err.Error()
		reply.ErrDetails = http.StatusText(code)
	}
	if code >= http.StatusInternalServerError {
		log.Error("Returning error %s: %s", http.StatusText(code), reply.Error)
	} else {
		log.Warning("Returning error %s: %s", http.StatusText(code), reply.Error)
	}
	c.AbortWithStatusJSON(code, &reply)
}
