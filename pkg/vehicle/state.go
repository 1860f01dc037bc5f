package vehicle

import (
	"context"

	"github.com/bluelinky/bluelink/pkg/form"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

// Status fetches the vehicle status report. When refresh is true the vendor contacts the vehicle
// instead of returning its cached copy, which can take a minute or more.
//
// Gen 1 vehicles do not support status reports; Status returns
// *protocol.UnsupportedGenerationError for them without contacting the vendor.
func (v *Vehicle) Status(ctx context.Context, refresh bool) (*protocol.Result, error) {
	if gen := v.Generation(); gen == Gen1 {
		return nil, &protocol.UnsupportedGenerationError{Generation: gen, Operation: "status"}
	}
	fields := form.New(
		"services", "getVehicleStatus",
		"refresh", refresh,
	)
	return v.execute(ctx, v.endpoints.Status, fields, resultPath, "vehicleStatus")
}

// Health fetches the recommended maintenance timeline.
func (v *Vehicle) Health(ctx context.Context) (*protocol.Result, error) {
	return v.execute(ctx, v.endpoints.Health, form.New("service", "getRecMaintenanceTimeline"), resultPath)
}
