package topic

import (
	"fmt"
	"strings"
)

// SuffixStatus is the last segment of a vehicle status topic.
// Structure: {root}/{vehicleID}/status
const SuffixStatus = "status"

// TopicBuilder constructs and parses the status topics vehicles publish to.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "vehicles").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.Trim(root, "/")}
}

// Status returns the status topic of a single vehicle.
func (b *TopicBuilder) Status(vehicleID string) string {
	return b.build(vehicleID, SuffixStatus)
}

// StatusWildcard returns the filter matching every vehicle's status topic.
// Result: {root}/+/status
func (b *TopicBuilder) StatusWildcard() string {
	return b.build("+", SuffixStatus)
}

// VehicleID extracts the vehicle identifier from a status topic. The second
// return value is false when topic is not a status topic under this root.
func (b *TopicBuilder) VehicleID(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, b.root+"/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/"+SuffixStatus)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{identifier}/{suffix}
func (b *TopicBuilder) build(id, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, id, suffix)
}
