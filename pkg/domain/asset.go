package domain

// ControlSystem describes the control-system hardware attached to an asset.
type ControlSystem struct {
	ControllerMake  string `json:"controllerMake,omitempty"`
	ControllerModel string `json:"controllerModel,omitempty"`
}

// Asset is the caller's canonical representation of a monitored device.
// Descriptors arrive partially filled; only ID is required for enrichment
// and entries without one are skipped.
type Asset struct {
	ID            string         `json:"id"`
	TagNumber     string         `json:"tagNumber,omitempty"`
	ControlSystem *ControlSystem `json:"controlSystem,omitempty"`
}

// Vendor returns the controller make, or "" when no control system is set.
func (a Asset) Vendor() string {
	if a.ControlSystem == nil {
		return ""
	}
	return a.ControlSystem.ControllerMake
}

// Model returns the controller model, or "" when no control system is set.
func (a Asset) Model() string {
	if a.ControlSystem == nil {
		return ""
	}
	return a.ControlSystem.ControllerModel
}
