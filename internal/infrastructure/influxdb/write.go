package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementEntrance is the measurement entrance events are written to.
const MeasurementEntrance = "entrance"

// WriteEntrance records one entrance event, tagged with the transport it
// arrived on. The write is batched and non-blocking.
//
//	client.WriteEntrance("mqtt", 15, log.Timestamp)
func (c *Client) WriteEntrance(source string, durationSeconds int, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(entrancePoint(source, durationSeconds, at))
}

func entrancePoint(source string, durationSeconds int, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementEntrance,
		map[string]string{"source": source},
		map[string]any{"duration_s": durationSeconds},
		at,
	)
}
