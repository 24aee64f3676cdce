package entrance

import (
	"context"
	"sync"
)

// Event is delivered to observers after a log has been stored.
type Event struct {
	Log    Log
	Source Source
	// Live holds today's statistics including the new log. It is nil when
	// the statistics could not be read.
	Live *LiveStats
}

// Observer is notified of every recorded entrance.
type Observer interface {
	OnEntrance(ctx context.Context, ev Event) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event) error

// OnEntrance calls f.
func (f ObserverFunc) OnEntrance(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Logger is the logging interface used by the recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Recorder is the single entry point for sensor reports.
// Safe for concurrent use.
type Recorder struct {
	repo   Repository
	logger Logger

	mu        sync.RWMutex
	observers []Observer
}

// NewRecorder creates a recorder storing logs in repo. A nil logger discards output.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// AddObserver registers o to be notified after each stored log.
func (r *Recorder) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Record validates and stores one sensor report, then notifies observers.
// With observers registered it also reads today's live stats for the event;
// that read is skipped otherwise. Observer failures are logged and never
// returned to the caller.
func (r *Recorder) Record(ctx context.Context, seconds int, source Source) (*Log, error) {
	if err := ValidateDuration(seconds); err != nil {
		return nil, err
	}

	l, err := r.repo.Create(ctx, seconds)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.RUnlock()

	if len(observers) == 0 {
		return l, nil
	}

	ev := Event{Log: *l, Source: source}
	if live, err := r.repo.LiveStats(ctx); err != nil {
		r.logger.Warn("reading live stats for entrance event", "log_id", l.ID, "error", err)
	} else {
		ev.Live = live
	}

	for _, o := range observers {
		if err := o.OnEntrance(ctx, ev); err != nil {
			r.logger.Warn("entrance observer failed", "log_id", l.ID, "source", string(source), "error", err)
		}
	}
	r.logger.Debug("entrance recorded", "log_id", l.ID, "duration", l.Duration, "source", string(source))
	return l, nil
}
