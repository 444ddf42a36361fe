package model

import "time"

// Position is a WGS84 coordinate.
type Position struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// VehicleStatus is the last state report of a vehicle. Battery is expected to
// be a percentage in [0, 100].
type VehicleStatus struct {
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Position  Position `json:"position" yaml:"position"`
	Battery   float64  `json:"battery" yaml:"battery"`
	State     string   `json:"state" yaml:"state"`
}

// ReportedAt converts the Unix timestamp of the report.
func (s VehicleStatus) ReportedAt() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// Vehicle is a fleet member. CurrentStatus is nil until the vehicle has
// reported at least once.
type Vehicle struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Model         string         `json:"model" yaml:"model"`
	CurrentStatus *VehicleStatus `json:"current_status" yaml:"current_status"`
}

// Status returns the current status and whether one is present.
func (v *Vehicle) Status() (VehicleStatus, bool) {
	if v == nil || v.CurrentStatus == nil {
		return VehicleStatus{}, false
	}
	return *v.CurrentStatus, true
}

// TelemetryUpdate is a live status report tagged with its vehicle.
type TelemetryUpdate struct {
	VehicleID string `json:"vehicle_id" yaml:"vehicle_id"`
	VehicleStatus `yaml:",inline"`
}

// TelemetryPoint is one row of a vehicle's telemetry history.
type TelemetryPoint struct {
	VehicleID string    `json:"vehicle_id" yaml:"vehicle_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Position  Position  `json:"position" yaml:"position"`
	Battery   float64   `json:"battery" yaml:"battery"`
	State     string    `json:"state" yaml:"state"`
}

// CommandReceipt acknowledges a queued vehicle command.
type CommandReceipt struct {
	Status    string `json:"status" yaml:"status"`
	CommandID string `json:"command_id" yaml:"command_id"`
}
