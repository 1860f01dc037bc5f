package proxy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

var (
	// ErrUnknownCommand indicates the command or query name is not recognized.
	ErrUnknownCommand = errors.New("unknown command")
)

// ParamError indicates a request parameter was missing or had the wrong type.
type ParamError struct {
	Key     string
	Missing bool
}

func (e *ParamError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing %s param", e.Key)
	}
	return fmt.Sprintf("invalid %s param", e.Key)
}

func missingParamError(key string) error {
	return &ParamError{Key: key, Missing: true}
}

func invalidParamError(key string) error {
	return &ParamError{Key: key}
}

// Action runs a single operation against a vehicle.
type Action func(Vehicle) (*protocol.Result, error)

// RequestParameters holds the decoded JSON body of a command, or the query string of a data
// request. Values are JSON types; query string values arrive as strings and are converted on
// access.
type RequestParameters map[string]interface{}

// ExtractCommandAction returns the Action that implements a POST to /command/<command>.
func ExtractCommandAction(ctx context.Context, command string, params RequestParameters) (Action, error) {
	switch command {
	case "door_lock":
		return func(v Vehicle) (*protocol.Result, error) { return v.Lock(ctx) }, nil
	case "door_unlock":
		return func(v Vehicle) (*protocol.Result, error) { return v.Unlock(ctx) }, nil
	case "flash_lights":
		return func(v Vehicle) (*protocol.Result, error) { return v.FlashLights(ctx) }, nil
	case "honk_horn", "panic":
		return func(v Vehicle) (*protocol.Result, error) { return v.Panic(ctx) }, nil
	case "remote_start":
		config, err := params.startConfig()
		if err != nil {
			return nil, err
		}
		return func(v Vehicle) (*protocol.Result, error) { return v.Start(ctx, config) }, nil
	case "remote_stop":
		return func(v Vehicle) (*protocol.Result, error) { return v.Stop(ctx) }, nil
	case "send_poi", "navigation_request":
		poi, err := params.pointOfInterest()
		if err != nil {
			return nil, err
		}
		return func(v Vehicle) (*protocol.Result, error) { return v.SendPointOfInterest(ctx, poi) }, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
}

// ExtractQueryAction returns the Action that implements a GET of /data/<query>.
func ExtractQueryAction(ctx context.Context, query string, params RequestParameters) (Action, error) {
	switch query {
	case "status", "vehicle_data":
		refresh, err := params.getBool("refresh", false)
		if err != nil {
			return nil, err
		}
		return func(v Vehicle) (*protocol.Result, error) { return v.Status(ctx, refresh) }, nil
	case "health":
		return func(v Vehicle) (*protocol.Result, error) { return v.Health(ctx) }, nil
	case "account_info":
		return func(v Vehicle) (*protocol.Result, error) { return v.AccountInfo(ctx) }, nil
	case "owner_info":
		return func(v Vehicle) (*protocol.Result, error) { return v.OwnerInfo(ctx) }, nil
	case "features":
		return func(v Vehicle) (*protocol.Result, error) { return v.Features(ctx) }, nil
	case "service_info":
		return func(v Vehicle) (*protocol.Result, error) { return v.ServiceInfo(ctx) }, nil
	case "pin_status":
		return func(v Vehicle) (*protocol.Result, error) { return v.PinStatus(ctx) }, nil
	case "subscriptions":
		return func(v Vehicle) (*protocol.Result, error) { return v.SubscriptionStatus(ctx) }, nil
	case "messages":
		return func(v Vehicle) (*protocol.Result, error) { return v.Messages(ctx) }, nil
	case "usage":
		from, err := params.getDate("from")
		if err != nil {
			return nil, err
		}
		to, err := params.getDate("to")
		if err != nil {
			return nil, err
		}
		return func(v Vehicle) (*protocol.Result, error) { return v.APIUsageStatus(ctx, from, to) }, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, query)
}

func (p RequestParameters) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p RequestParameters) getString(key string, required bool) (string, error) {
	value, exists := p[key]
	if exists {
		switch v := value.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
		return "", invalidParamError(key)
	}
	if !required {
		return "", nil
	}
	return "", missingParamError(key)
}

func (p RequestParameters) getBool(key string, required bool) (bool, error) {
	value, exists := p[key]
	if exists {
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return false, invalidParamError(key)
			}
			return b, nil
		}
		return false, invalidParamError(key)
	}
	if !required {
		return false, nil
	}
	return false, missingParamError(key)
}

func (p RequestParameters) getNumber(key string, required bool) (float64, error) {
	value, exists := p[key]
	if exists {
		switch v := value.(type) {
		case float64:
			return v, nil
		case string:
			num, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, invalidParamError(key)
			}
			return num, nil
		}
		return 0, invalidParamError(key)
	}
	if !required {
		return 0, nil
	}
	return 0, missingParamError(key)
}

// getDate accepts YYYY-MM-DD or YYYYMMDD. Absent dates are returned as the zero time.
func (p RequestParameters) getDate(key string) (time.Time, error) {
	text, err := p.getString(key, false)
	if err != nil || text == "" {
		return time.Time{}, err
	}
	for _, layout := range []string{time.DateOnly, "20060102"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidParamError(key)
}

func (p RequestParameters) startConfig() (*vehicle.StartConfig, error) {
	config := vehicle.DefaultStartConfig()
	var err error
	if p.has("air_control") {
		if config.AirControl, err = p.getBool("air_control", true); err != nil {
			return nil, err
		}
	}
	if p.has("duration") {
		minutes, err := p.getNumber("duration", true)
		if err != nil {
			return nil, err
		}
		if minutes < 1 {
			return nil, invalidParamError("duration")
		}
		config.Duration = int(minutes)
	}
	if p.has("temperature") {
		if config.Temperature, err = p.getNumber("temperature", true); err != nil {
			return nil, err
		}
	}
	if config.Defrost, err = p.getBool("defrost", false); err != nil {
		return nil, err
	}
	if config.Heating, err = p.getBool("heating", false); err != nil {
		return nil, err
	}
	if p.has("driver_seat_heat") {
		level, err := p.getString("driver_seat_heat", true)
		if err != nil {
			return nil, err
		}
		config.SeatHeaters.DriverSeatHeatState = strings.TrimSpace(level)
	}
	return config, nil
}

func (p RequestParameters) pointOfInterest() (vehicle.PointOfInterest, error) {
	var poi vehicle.PointOfInterest
	var err error
	if poi.Address, err = p.getString("address", true); err != nil {
		return poi, err
	}
	if poi.PlaceID, err = p.getString("place_id", false); err != nil {
		return poi, err
	}
	if poi.Location.Latitude, err = p.getNumber("lat", true); err != nil {
		return poi, err
	}
	if poi.Location.Longitude, err = p.getNumber("long", true); err != nil {
		return poi, err
	}
	return poi, nil
}
