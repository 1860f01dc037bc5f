package vehicle

import (
	"context"

	"github.com/bluelinky/bluelink/pkg/form"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

const resultPath = "RESPONSE_STRING"

// remoteAction sends a gated command to the remote action servlet.
func (v *Vehicle) remoteAction(ctx context.Context, feature, service string) (*protocol.Result, error) {
	if err := v.requireFeature(feature); err != nil {
		return nil, err
	}
	return v.execute(ctx, v.endpoints.RemoteAction, form.New("service", service), resultPath)
}

// Lock locks the doors. Fails with *protocol.UnsupportedFeatureError if the enrollment does not
// include remote locking.
func (v *Vehicle) Lock(ctx context.Context) (*protocol.Result, error) {
	return v.remoteAction(ctx, FeatureDoorLock, "remotelock")
}

// Unlock unlocks the doors.
func (v *Vehicle) Unlock(ctx context.Context) (*protocol.Result, error) {
	return v.remoteAction(ctx, FeatureDoorUnlock, "remoteunlock")
}

// FlashLights flashes the exterior lights without sounding the horn.
func (v *Vehicle) FlashLights(ctx context.Context) (*protocol.Result, error) {
	return v.remoteAction(ctx, FeatureLightsOnly, "light")
}

// Panic sounds the horn and flashes the lights.
func (v *Vehicle) Panic(ctx context.Context) (*protocol.Result, error) {
	return v.remoteAction(ctx, FeatureHornAndLights, "horn")
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"long"`
}

// PointOfInterest is a destination that can be sent to the vehicle's navigation system.
type PointOfInterest struct {
	Address  string   `json:"address"`
	PlaceID  string   `json:"placeId,omitempty"`
	Location Location `json:"location"`
}

// SendPointOfInterest pushes a destination to the vehicle's navigation system.
func (v *Vehicle) SendPointOfInterest(ctx context.Context, poi PointOfInterest) (*protocol.Result, error) {
	fields := form.New(
		"service", "sendPOI",
		"poiInfo", poi,
	)
	return v.execute(ctx, v.endpoints.RemoteAction, fields, resultPath)
}
