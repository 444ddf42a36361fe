package model

// ActionKind classifies a decision action label.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionPickup
	ActionSkip
)

func (k ActionKind) String() string {
	switch k {
	case ActionPickup:
		return "pickup"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Action is the categorical label of a decision. Labels the console does not
// know are kept verbatim and classify as ActionUnknown.
type Action string

const (
	Pickup Action = "pickup"
	Skip   Action = "skip"
)

// Kind classifies the label.
func (a Action) Kind() ActionKind {
	switch a {
	case Pickup:
		return ActionPickup
	case Skip:
		return ActionSkip
	default:
		return ActionUnknown
	}
}

// ServerDecision is the automated verdict for one captured image. Confidence
// is in [0, 1].
type ServerDecision struct {
	ImageID    string  `json:"image_id" yaml:"image_id"`
	Action     Action  `json:"action" yaml:"action"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Reason     string  `json:"reason" yaml:"reason"`
}

// DecisionLog records one decision taken by or for a vehicle.
type DecisionLog struct {
	ID        string         `json:"id" yaml:"id"`
	VehicleID string         `json:"vehicle_id" yaml:"vehicle_id"`
	Timestamp string         `json:"timestamp" yaml:"timestamp"`
	ImageURL  string         `json:"image_url" yaml:"image_url"`
	Decision  ServerDecision `json:"server_decision" yaml:"server_decision"`
}

// Pagination describes the page a DecisionLogPage was cut from. It is nil when
// the backend returned the whole collection.
type Pagination struct {
	Total      int `json:"total" yaml:"total"`
	Page       int `json:"page" yaml:"page"`
	PageSize   int `json:"pageSize" yaml:"pageSize"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`
}

// DecisionLogPage is a decision-log listing.
type DecisionLogPage struct {
	Logs       []DecisionLog `json:"logs" yaml:"logs"`
	Total      int           `json:"total" yaml:"total"`
	Pagination *Pagination   `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}
