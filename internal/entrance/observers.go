package entrance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PointWriter is the part of the InfluxDB client used to mirror events.
type PointWriter interface {
	WriteEntrance(source string, durationSeconds int, at time.Time)
}

// InfluxMirror copies each stored entrance into a time-series database.
func InfluxMirror(w PointWriter) Observer {
	return ObserverFunc(func(_ context.Context, ev Event) error {
		w.WriteEntrance(string(ev.Source), ev.Log.Duration, ev.Log.Timestamp)
		return nil
	})
}

// Publisher is the part of the MQTT client used to republish events.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTRepublisher publishes each stored entrance, with today's live stats,
// as JSON on topic.
func MQTTRepublisher(p Publisher, topic string, qos byte) Observer {
	return ObserverFunc(func(_ context.Context, ev Event) error {
		body, err := json.Marshal(struct {
			Log    Log        `json:"log"`
			Source Source     `json:"source"`
			Live   *LiveStats `json:"live,omitempty"`
		}{ev.Log, ev.Source, ev.Live})
		if err != nil {
			return fmt.Errorf("encoding entrance event: %w", err)
		}
		if err := p.Publish(topic, body, qos, false); err != nil {
			return fmt.Errorf("publishing entrance event: %w", err)
		}
		return nil
	})
}
