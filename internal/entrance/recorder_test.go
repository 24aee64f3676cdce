package entrance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRepository records calls without a database.
type fakeRepository struct {
	mu       sync.Mutex
	created  []int
	createFn  func(seconds int) (*Log, error)
	liveErr   error
	liveReads int
}

func (f *fakeRepository) Create(_ context.Context, seconds int) (*Log, error) {
	f.mu.Lock()
	f.created = append(f.created, seconds)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(seconds)
	}
	return &Log{ID: int64(len(f.created)), Duration: seconds, Timestamp: time.Now().UTC()}, nil
}

func (f *fakeRepository) Recent(context.Context, int) ([]Log, error)           { return nil, nil }
func (f *fakeRepository) DailyStats(context.Context, int) ([]DailyStat, error) { return nil, nil }

func (f *fakeRepository) LiveStats(context.Context) (*LiveStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveReads++
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return &LiveStats{Count: len(f.created)}, nil
}

func TestRecorder_RecordNotifiesObservers(t *testing.T) {
	repo := &fakeRepository{}
	rec := NewRecorder(repo, nil)

	var got []Event
	rec.AddObserver(ObserverFunc(func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	}))

	l, err := rec.Record(context.Background(), 15, SourceREST)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if l.Duration != 15 {
		t.Errorf("Duration = %d, want 15", l.Duration)
	}
	if len(repo.created) != 1 {
		t.Errorf("repository Create called %d times, want 1", len(repo.created))
	}
	if len(got) != 1 {
		t.Fatalf("observer called %d times, want 1", len(got))
	}
	if got[0].Source != SourceREST || got[0].Log.ID != l.ID {
		t.Errorf("event = %+v", got[0])
	}
	if got[0].Live == nil || got[0].Live.Count != 1 {
		t.Errorf("event live stats = %+v", got[0].Live)
	}
}

func TestRecorder_LiveStatsReadOnlyForObservers(t *testing.T) {
	repo := &fakeRepository{}
	rec := NewRecorder(repo, nil)

	if _, err := rec.Record(context.Background(), 10, SourceRPC); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if repo.liveReads != 0 {
		t.Errorf("LiveStats read %d times without observers, want 0", repo.liveReads)
	}

	rec.AddObserver(ObserverFunc(func(context.Context, Event) error { return nil }))
	rec.AddObserver(ObserverFunc(func(context.Context, Event) error { return nil }))
	if _, err := rec.Record(context.Background(), 20, SourceRPC); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if repo.liveReads != 1 {
		t.Errorf("LiveStats read %d times with two observers, want 1", repo.liveReads)
	}
	if len(repo.created) != 2 {
		t.Errorf("Create called %d times, want 2", len(repo.created))
	}
}

func TestRecorder_RejectsInvalidDuration(t *testing.T) {
	repo := &fakeRepository{}
	rec := NewRecorder(repo, nil)

	for _, d := range []int{0, -5} {
		if _, err := rec.Record(context.Background(), d, SourceMQTT); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Record(%d) error = %v, want ErrInvalidDuration", d, err)
		}
	}
	if len(repo.created) != 0 {
		t.Errorf("repository should not be called, got %v", repo.created)
	}
}

func TestRecorder_RepositoryErrorSkipsObservers(t *testing.T) {
	boom := errors.New("disk full")
	repo := &fakeRepository{createFn: func(int) (*Log, error) { return nil, boom }}
	rec := NewRecorder(repo, nil)

	called := false
	rec.AddObserver(ObserverFunc(func(context.Context, Event) error {
		called = true
		return nil
	}))

	if _, err := rec.Record(context.Background(), 10, SourceRPC); !errors.Is(err, boom) {
		t.Errorf("Record() error = %v, want %v", err, boom)
	}
	if called {
		t.Error("observer should not run when the log was not stored")
	}
}

func TestRecorder_ObserverErrorsAreNotReturned(t *testing.T) {
	repo := &fakeRepository{liveErr: errors.New("locked")}
	rec := NewRecorder(repo, nil)

	var second bool
	rec.AddObserver(ObserverFunc(func(context.Context, Event) error {
		return errors.New("influx down")
	}))
	rec.AddObserver(ObserverFunc(func(_ context.Context, ev Event) error {
		second = true
		if ev.Live != nil {
			t.Error("Live should be nil when live stats fail")
		}
		return nil
	}))

	if _, err := rec.Record(context.Background(), 12, SourceREST); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !second {
		t.Error("later observers should still be notified after a failure")
	}
}
