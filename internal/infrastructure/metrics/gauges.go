package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const gaugeQueryTimeout = 2 * time.Second

// Counter reports the number of stored rows behind a gauge.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context) (int, error)

// Count calls f(ctx).
func (f CounterFunc) Count(ctx context.Context) (int, error) { return f(ctx) }

// Gauges names the counters read at scrape time. Nil fields register no gauge.
type Gauges struct {
	Users           Counter
	DevicesOn       Counter
	EntrancesStored Counter
	EntrancesToday  Counter
}

func registerGauges(g Gauges, logger Logger) {
	for _, gauge := range []struct {
		name, help string
		counter    Counter
	}{
		{"users", "Registered users", g.Users},
		{"devices_on", "Devices currently switched on", g.DevicesOn},
		{"entrance_events_stored", "Entrance events in storage", g.EntrancesStored},
		{"entrance_events_today", "Entrance events stored for the current UTC date", g.EntrancesToday},
	} {
		if gauge.counter == nil {
			continue
		}
		counter, name := gauge.counter, gauge.name
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + name,
				Help: gauge.help,
			},
			func() float64 {
				return readCount(counter, logger, name)
			},
		))
	}
}

func readCount(c Counter, logger Logger, gauge string) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), gaugeQueryTimeout)
	defer cancel()

	n, err := c.Count(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics gauge read failed", "gauge", gauge, "error", err)
		}
		return 0
	}
	if n < 0 {
		return 0
	}
	return float64(n)
}
