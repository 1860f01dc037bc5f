package vehicle

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/looplab/fsm"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

// Lifecycle states reported by Vehicle.State.
const (
	StateInitializing = "initializing"
	StateReady        = "ready"

	eventBootstrapped = "bootstrapped"
)

// electricModelIDs lists the vendor model ids of battery-electric vehicles.
var electricModelIDs = map[int]bool{
	1532: true,
}

func newLifecycle(onReady func()) *fsm.FSM {
	return fsm.NewFSM(
		StateInitializing,
		fsm.Events{
			{Name: eventBootstrapped, Src: []string{StateInitializing}, Dst: StateReady},
		},
		fsm.Callbacks{
			"enter_" + StateReady: func(_ context.Context, _ *fsm.Event) {
				onReady()
			},
		},
	)
}

type featureItem struct {
	Name   string `json:"featureName"`
	Status string `json:"featureStatus"`
}

type ownerInfo struct {
	Vehicles []ownerVehicle `json:"OwnersVehiclesInfo"`
}

type ownerVehicle struct {
	VIN            string         `json:"VinNumber"`
	ModelID        flexInt        `json:"ModelID"`
	IsGen2         generationFlag `json:"IsGen2"`
	RegistrationID flexString     `json:"RegistrationID"`
}

// bootstrap loads the feature list and owner records, then marks the vehicle ready. Failures are
// logged and recorded but never prevent the transition to ready.
func (v *Vehicle) bootstrap(ctx context.Context) {
	log.Debug("Bootstrapping vehicle %s", v.vin)
	v.loadFeatures(ctx)
	if err := v.loadOwnerInfo(ctx); err != nil {
		log.Warning("Bootstrap of %s incomplete: %s", v.vin, err)
		v.lock.Lock()
		v.bootstrapErr = err
		v.lock.Unlock()
	}
	if err := v.machine.Event(context.Background(), eventBootstrapped); err != nil {
		log.Error("Unexpected lifecycle error: %s", err)
		v.markReady()
	}
	log.Info("Vehicle %s ready (gen %d, electric: %t)", v.vin, v.Generation(), v.IsElectric())
}

func (v *Vehicle) loadFeatures(ctx context.Context) {
	result, err := v.Features(ctx)
	if err != nil {
		log.Warning("Could not load features: %s", err)
		return
	}
	if result.Failed() || result.Result == nil {
		log.Warning("Enrollment service returned no features (%s: %s)", result.Status, result.ErrorMessage)
		return
	}
	var items []featureItem
	if err := result.Decode(&items); err != nil {
		log.Warning("Could not parse features: %s", err)
		return
	}
	for _, item := range items {
		log.Debug("Feature %s: %s", item.Name, item.Status)
		v.setFeature(item.Name, item.Status)
	}
}

// loadOwnerInfo derives generation, drivetrain, and registration id from the owner's vehicle
// records. An unusable reply is skipped; a reply without this VIN is an error.
func (v *Vehicle) loadOwnerInfo(ctx context.Context) error {
	result, err := v.OwnerInfo(ctx)
	if err != nil {
		log.Warning("Could not load owner info: %s", err)
		return nil
	}
	if result.Failed() {
		log.Warning("Owner info request failed: %s", result.ErrorMessage)
		return nil
	}
	var info ownerInfo
	if err := result.Decode(&info); err != nil {
		log.Warning("Could not parse owner info: %s", err)
		return nil
	}

	for _, record := range info.Vehicles {
		if record.VIN != v.vin {
			continue
		}
		v.lock.Lock()
		v.electric = electricModelIDs[int(record.ModelID)]
		if gen, ok := record.IsGen2.generation(); ok {
			v.generation = gen
		}
		v.registrationID = string(record.RegistrationID)
		v.lock.Unlock()
		log.Debug("Registered a gen %d vehicle (model %d, registration %s)", v.Generation(), record.ModelID, record.RegistrationID)
		return nil
	}
	return &protocol.VehicleNotFoundError{VIN: v.vin}
}

// flexInt accepts JSON numbers and numeric strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if text == "" || text == "null" {
		return nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	*n = flexInt(value)
	return nil
}

// flexString accepts JSON strings and numbers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	text := string(bytes.TrimSpace(data))
	if text != "null" {
		*s = flexString(text)
	}
	return nil
}

// generationFlag holds the raw IsGen2 value, which the vendor sends as a generation number
// or, on some accounts, as a boolean-like flag.
type generationFlag struct {
	raw string
}

func (g *generationFlag) UnmarshalJSON(data []byte) error {
	g.raw = strings.Trim(string(bytes.TrimSpace(data)), `"`)
	return nil
}

func (g generationFlag) generation() (int, bool) {
	switch strings.ToLower(g.raw) {
	case "2", "true", "y", "yes":
		return Gen2, true
	case "1", "0", "false", "n", "no":
		return Gen1, true
	}
	return 0, false
}
