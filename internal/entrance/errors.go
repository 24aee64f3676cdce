package entrance

import "errors"

// Domain errors for the entrance package.
var (
	// ErrInvalidDuration is returned when a duration is zero or negative.
	ErrInvalidDuration = errors.New("entrance: invalid duration")

	// ErrInvalidLimit is returned when a recent-logs limit is not positive.
	ErrInvalidLimit = errors.New("entrance: invalid limit")

	// ErrInvalidWindow is returned when a daily-stats window is not positive.
	ErrInvalidWindow = errors.New("entrance: invalid window")
)
