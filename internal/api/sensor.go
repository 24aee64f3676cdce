package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/infrastructure/metrics"
)

var errTrailingData = errors.New("unexpected data after JSON body")

// sensorRequest is the POST /sensor body.
type sensorRequest struct {
	Duration *float64 `json:"duration"`
}

// handleSensor stores one entrance report from a door sensor.
func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	status, resp := s.recordSensorReport(r)
	metrics.IncSensorRequest(strconv.Itoa(status))
	writeJSON(w, status, resp)
}

func (s *Server) recordSensorReport(r *http.Request) (int, sensorResponse) {
	var req sensorRequest
	if err := decodeSingleJSON(r.Body, &req); err != nil {
		return http.StatusBadRequest, sensorResponse{Error: "Request body must be JSON like {\"duration\": 15}"}
	}

	seconds, msg := sensorDuration(req.Duration)
	if msg != "" {
		return http.StatusBadRequest, sensorResponse{Error: msg}
	}

	l, err := s.recorder.Record(r.Context(), seconds, entrance.SourceREST)
	if err != nil {
		if errors.Is(err, entrance.ErrInvalidDuration) {
			return http.StatusBadRequest, sensorResponse{Error: "Duration must be a positive whole number of seconds"}
		}
		s.logger.Error("recording sensor report",
			"duration", seconds,
			"error", err,
			"request_id", requestID(r.Context()),
		)
		return http.StatusInternalServerError, sensorResponse{Error: "Internal server error"}
	}

	return http.StatusCreated, sensorResponse{Success: true, Log: l}
}

// decodeSingleJSON decodes exactly one JSON value from body. Anything after
// it other than whitespace is an error.
func decodeSingleJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// sensorDuration checks the reported duration and returns it in whole
// seconds, or a client message describing the problem.
func sensorDuration(d *float64) (int, string) {
	switch {
	case d == nil:
		return 0, "Duration is required"
	case *d <= 0:
		return 0, "Duration must be greater than 0"
	case *d != math.Trunc(*d) || *d > math.MaxInt32:
		return 0, "Duration must be a whole number of seconds"
	}
	return int(*d), ""
}
