package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type warnLogger struct {
	warns []string
}

func (l *warnLogger) Warn(msg string, _ ...any) { l.warns = append(l.warns, msg) }

func fixedCount(n int) CounterFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestInitAndExpose(t *testing.T) {
	Init(Gauges{
		Users:           fixedCount(0),
		DevicesOn:       fixedCount(1),
		EntrancesStored: fixedCount(12),
		EntrancesToday:  fixedCount(3),
	}, nil)
	Init(Gauges{Users: fixedCount(99)}, nil) // second call is a no-op

	ObserveProcedure("getUsers", "", 3*time.Millisecond)
	ObserveProcedure("getUserById", "NOT_FOUND", time.Millisecond)
	ObserveEntrance("rest", 15)
	IncSensorRequest("201")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`doorsense_procedure_calls_total{code="OK",procedure="getUsers"} 1`,
		`doorsense_procedure_calls_total{code="NOT_FOUND",procedure="getUserById"} 1`,
		`doorsense_entrance_events_total{source="rest"} 1`,
		"doorsense_entrance_duration_seconds_bucket",
		"doorsense_sensor_requests_total",
		"doorsense_users 0",
		"doorsense_devices_on 1",
		"doorsense_entrance_events_stored 12",
		"doorsense_entrance_events_today 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestReadCount(t *testing.T) {
	logger := &warnLogger{}
	tests := []struct {
		name      string
		counter   Counter
		want      float64
		wantWarns int
	}{
		{"value", fixedCount(7), 7, 0},
		{"negative clamps to zero", fixedCount(-2), 0, 0},
		{"error reads zero", CounterFunc(func(context.Context) (int, error) {
			return 5, errors.New("database is locked")
		}), 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger.warns = nil
			if got := readCount(tt.counter, logger, "test"); got != tt.want {
				t.Errorf("readCount() = %v, want %v", got, tt.want)
			}
			if len(logger.warns) != tt.wantWarns {
				t.Errorf("warnings = %v, want %d", logger.warns, tt.wantWarns)
			}
		})
	}
}
