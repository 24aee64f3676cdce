package entrance

import (
	"fmt"
	"math"
	"time"
)

// TimestampLayout is the storage format of entrance timestamps.
// It matches strftime('%Y-%m-%dT%H:%M:%fZ') so string order is time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Source identifies the transport a sensor report arrived on.
type Source string

const (
	SourceREST Source = "rest"
	SourceRPC  Source = "rpc"
	SourceMQTT Source = "mqtt"
)

// Log is one entrance event. Duration is the time spent in the doorway,
// in whole seconds.
type Log struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyStat aggregates the logs of one UTC calendar day.
type DailyStat struct {
	Date        string     `json:"date"`
	Count       int        `json:"count"`
	AvgDuration *float64   `json:"avgDuration"`
	LastEvent   *time.Time `json:"lastEvent"`
}

// LiveStats aggregates the logs of the current UTC day.
// AvgDuration and LastEvent are nil when Count is zero.
type LiveStats struct {
	Count       int        `json:"count"`
	AvgDuration *float64   `json:"avgDuration"`
	LastEvent   *time.Time `json:"lastEvent"`
}

// ValidateDuration rejects durations that are not positive.
func ValidateDuration(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, seconds)
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// roundTenth rounds to one decimal place.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
