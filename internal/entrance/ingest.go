package entrance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/doorsense/internal/infrastructure/mqtt"
)

// sensorReport is the payload published by door sensors.
type sensorReport struct {
	Duration *float64 `json:"duration"`
}

// SensorHandler returns an MQTT message handler that records each report on
// doorsense/sensor/{sensor_id}/entrance. Malformed reports are returned as
// errors so the MQTT client logs them.
func (r *Recorder) SensorHandler(timeout time.Duration) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		sensorID, ok := mqtt.ParseSensorEntrance(topic)
		if !ok {
			return fmt.Errorf("unexpected sensor topic %q", topic)
		}

		seconds, err := decodeSensorReport(payload)
		if err != nil {
			return fmt.Errorf("sensor %s: %w", sensorID, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := r.Record(ctx, seconds, SourceMQTT); err != nil {
			return fmt.Errorf("sensor %s: %w", sensorID, err)
		}
		return nil
	}
}

// decodeSensorReport accepts {"duration": N} where N is a positive whole number.
func decodeSensorReport(payload []byte) (int, error) {
	var report sensorReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return 0, fmt.Errorf("decoding sensor report: %w", err)
	}
	if report.Duration == nil {
		return 0, fmt.Errorf("%w: missing", ErrInvalidDuration)
	}
	d := *report.Duration
	if d != float64(int(d)) {
		return 0, fmt.Errorf("%w: %v is not a whole number of seconds", ErrInvalidDuration, d)
	}
	return int(d), ValidateDuration(int(d))
}
