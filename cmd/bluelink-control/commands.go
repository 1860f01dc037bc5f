package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bluelinky/bluelink/pkg/account"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

var (
	ErrCommandLineArgs = errors.New("invalid command line arguments")
	ErrInvalidDate     = errors.New("invalid date")
	ErrRequiresVIN     = errors.New("command requires a VIN")
)

type Argument struct {
	name string
	help string
}

// Option is a command-specific flag. Boolean options take no value.
type Option struct {
	name     string
	help     string
	fallback string
	boolean  bool
}

type Handler func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error)

type Command struct {
	help            string
	requiresVehicle bool // False for commands that only need an account session.
	args            []Argument
	optional        []Argument
	options         []Option
	handler         Handler
}

// GetDegree parses a latitude or longitude.
func GetDegree(degStr string) (float64, error) {
	deg, err := strconv.ParseFloat(degStr, 64)
	if err != nil {
		return 0.0, err
	}
	if deg < -180 || deg > 180 {
		return 0.0, errors.New("latitude and longitude must both be in the range [-180, 180]")
	}
	return deg, nil
}

// GetDate parses YYYY-MM-DD or YYYYMMDD. An empty string yields the zero time.
func GetDate(text string) (time.Time, error) {
	if text == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, "20060102"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: expected YYYY-MM-DD", ErrInvalidDate)
}

func getBool(args map[string]string, name string) (bool, error) {
	value, ok := args[name]
	if !ok || value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", ErrCommandLineArgs, name)
	}
	return b, nil
}

// GetStartConfig builds remote start settings from the start command's options.
func GetStartConfig(args map[string]string) (*vehicle.StartConfig, error) {
	config := vehicle.DefaultStartConfig()
	var err error
	if text := args["air-temp"]; text != "" {
		if config.Temperature, err = strconv.ParseFloat(text, 64); err != nil {
			return nil, fmt.Errorf("%w: invalid air-temp: %s", ErrCommandLineArgs, err)
		}
	}
	if text := args["duration"]; text != "" {
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes < 1 {
			return nil, fmt.Errorf("%w: duration must be a positive number of minutes", ErrCommandLineArgs)
		}
		config.Duration = minutes
	}
	if config.Defrost, err = getBool(args, "defrost"); err != nil {
		return nil, err
	}
	if config.Heating, err = getBool(args, "heating"); err != nil {
		return nil, err
	}
	noAir, err := getBool(args, "no-air")
	if err != nil {
		return nil, err
	}
	config.AirControl = !noAir
	if level := strings.TrimSpace(args["seat-heat"]); level != "" {
		config.SeatHeaters.DriverSeatHeatState = level
	}
	return config, nil
}

// vehicleInfo is the locally known classification of a vehicle.
type vehicleInfo struct {
	VIN            string          `json:"vin"`
	Generation     int             `json:"generation"`
	Electric       bool            `json:"electric"`
	RegistrationID string          `json:"registration_id"`
	Features       map[string]bool `json:"features"`
}

var commands = map[string]*Command{
	"lock": &Command{
		help:            "Lock vehicle",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Lock(ctx)
		},
	},
	"unlock": &Command{
		help:            "Unlock vehicle",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Unlock(ctx)
		},
	},
	"flash-lights": &Command{
		help:            "Flash lights",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.FlashLights(ctx)
		},
	},
	"panic": &Command{
		help:            "Sound horn and flash lights",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Panic(ctx)
		},
	},
	"start": &Command{
		help:            "Remote start with climate control",
		requiresVehicle: true,
		options: []Option{
			{name: "air-temp", help: "Cabin temperature in °F", fallback: "70"},
			{name: "duration", help: "Run time in minutes", fallback: "10"},
			{name: "seat-heat", help: "Driver seat heater level", fallback: "2"},
			{name: "defrost", help: "Enable defrost", boolean: true},
			{name: "heating", help: "Enable steering wheel and mirror heating", boolean: true},
			{name: "no-air", help: "Leave climate control off", boolean: true},
		},
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			config, err := GetStartConfig(args)
			if err != nil {
				return nil, err
			}
			return car.Start(ctx, config)
		},
	},
	"stop": &Command{
		help:            "Stop a remote start",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Stop(ctx)
		},
	},
	"status": &Command{
		help:            "Fetch vehicle status",
		requiresVehicle: true,
		options: []Option{
			{name: "refresh", help: "Wake the vehicle for fresh data instead of using the server cache", boolean: true},
		},
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			refresh, err := getBool(args, "refresh")
			if err != nil {
				return nil, err
			}
			return car.Status(ctx, refresh)
		},
	},
	"health": &Command{
		help:            "Fetch the recommended maintenance timeline",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Health(ctx)
		},
	},
	"features": &Command{
		help:            "Fetch the vehicle's enrolled features",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Features(ctx)
		},
	},
	"info": &Command{
		help:            "Show generation, drivetrain, and features detected when connecting",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return vehicleInfo{
				VIN:            car.VIN(),
				Generation:     car.Generation(),
				Electric:       car.IsElectric(),
				RegistrationID: car.RegistrationID(),
				Features:       car.FeatureMap(),
			}, nil
		},
	},
	"account-info": &Command{
		help:            "Fetch the account dashboard",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.AccountInfo(ctx)
		},
	},
	"owner-info": &Command{
		help:            "Fetch owner and vehicle records",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.OwnerInfo(ctx)
		},
	},
	"service-info": &Command{
		help:            "Fetch the owner's vehicle service records",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.ServiceInfo(ctx)
		},
	},
	"pin-status": &Command{
		help:            "Fetch PIN lockout status",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.PinStatus(ctx)
		},
	},
	"subscriptions": &Command{
		help:            "Fetch Blue Link subscription packages",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.SubscriptionStatus(ctx)
		},
	},
	"messages": &Command{
		help:            "Fetch message center entries",
		requiresVehicle: true,
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			return car.Messages(ctx)
		},
	},
	"usage": &Command{
		help:            "Fetch remote service usage between two dates",
		requiresVehicle: true,
		optional: []Argument{
			Argument{name: "FROM", help: "YYYY-MM-DD, defaults to the start of service history"},
			Argument{name: "TO", help: "YYYY-MM-DD, defaults to today"},
		},
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			from, err := GetDate(args["FROM"])
			if err != nil {
				return nil, err
			}
			to, err := GetDate(args["TO"])
			if err != nil {
				return nil, err
			}
			if !from.IsZero() && !to.IsZero() && to.Before(from) {
				return nil, fmt.Errorf("%w: TO is before FROM", ErrCommandLineArgs)
			}
			return car.APIUsageStatus(ctx, from, to)
		},
	},
	"send-poi": &Command{
		help:            "Send a destination to the vehicle's navigation system",
		requiresVehicle: true,
		args: []Argument{
			Argument{name: "ADDRESS", help: "Street address shown on the vehicle display"},
			Argument{name: "LATITUDE", help: "Latitude in degrees"},
			Argument{name: "LONGITUDE", help: "Longitude in degrees"},
		},
		options: []Option{
			{name: "place-id", help: "Google Maps place id"},
		},
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			lat, err := GetDegree(args["LATITUDE"])
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrCommandLineArgs, err)
			}
			long, err := GetDegree(args["LONGITUDE"])
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrCommandLineArgs, err)
			}
			return car.SendPointOfInterest(ctx, vehicle.PointOfInterest{
				Address:  args["ADDRESS"],
				PlaceID:  args["place-id"],
				Location: vehicle.Location{Latitude: lat, Longitude: long},
			})
		},
	},
	"login": &Command{
		help: "Log in and save the session token to the cache file",
		handler: func(ctx context.Context, acct *account.Account, car *vehicle.Vehicle, args map[string]string) (interface{}, error) {
			token := acct.Token()
			return map[string]interface{}{
				"username": acct.Username(),
				"expiry":   token.Expiry,
			}, nil
		},
	},
}
