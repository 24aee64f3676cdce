package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every Doorsense topic.
const TopicPrefix = "doorsense"

// Topics builds Doorsense MQTT topics.
//
//	topic := mqtt.Topics{}.SensorEntrance("front-door")
//	// Returns: "doorsense/sensor/front-door/entrance"
type Topics struct{}

// SensorEntrance returns the topic a sensor publishes entrance reports to.
func (Topics) SensorEntrance(sensorID string) string {
	return fmt.Sprintf("%s/sensor/%s/entrance", TopicPrefix, sensorID)
}

// AllSensorEntrances matches entrance reports from every sensor.
func (Topics) AllSensorEntrances() string {
	return TopicPrefix + "/sensor/+/entrance"
}

// EventEntrance is where stored entrance events are republished.
func (Topics) EventEntrance() string {
	return TopicPrefix + "/events/entrance"
}

// SystemStatus carries the retained online/offline status of one backend
// instance, keyed by its MQTT client ID.
func (Topics) SystemStatus(clientID string) string {
	return fmt.Sprintf("%s/system/%s/status", TopicPrefix, clientID)
}

// ParseSensorEntrance extracts the sensor ID from a sensor entrance topic.
func ParseSensorEntrance(topic string) (sensorID string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "sensor" || parts[3] != "entrance" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// validateTopicName checks a topic used for publishing. Wildcards are only
// meaningful in subscriptions.
func validateTopicName(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcard in publish topic %q", ErrInvalidTopic, topic)
	}
	return nil
}

// validateTopicFilter checks a subscription filter: + and # must fill a whole
// level and # may only be the last level.
func validateTopicFilter(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch {
		case level == "#" && i != len(levels)-1:
			return fmt.Errorf("%w: # must be the last level in %q", ErrInvalidTopic, filter)
		case level != "+" && level != "#" && strings.ContainsAny(level, "+#"):
			return fmt.Errorf("%w: wildcard must fill a whole level in %q", ErrInvalidTopic, filter)
		}
	}
	return nil
}
