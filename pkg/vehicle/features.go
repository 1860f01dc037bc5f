package vehicle

import (
	"github.com/bluelinky/bluelink/pkg/protocol"
)

// Feature names reported by the enrollment service.
const (
	FeatureDoorLock      = "DOOR LOCK"
	FeatureDoorUnlock    = "DOOR UNLOCK"
	FeatureLightsOnly    = "LIGHTS ONLY"
	FeatureHornAndLights = "HORN AND LIGHTS"
	FeatureRemoteStart   = "REMOTE START"
	FeatureRemoteStop    = "REMOTE STOP"
)

const featureOn = "ON"

// HasFeature returns true if the vehicle's enrollment includes the named feature. Unknown
// features are reported as disabled.
func (v *Vehicle) HasFeature(name string) bool {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.features[name]
}

// FeatureMap returns a copy of the enrollment features, keyed by name.
func (v *Vehicle) FeatureMap() map[string]bool {
	v.lock.RLock()
	defer v.lock.RUnlock()
	features := make(map[string]bool, len(v.features))
	for name, enabled := range v.features {
		features[name] = enabled
	}
	return features
}

func (v *Vehicle) setFeature(name, status string) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.features[name] = status == featureOn
}

func (v *Vehicle) requireFeature(name string) error {
	if !v.HasFeature(name) {
		return &protocol.UnsupportedFeatureError{Feature: name}
	}
	return nil
}
