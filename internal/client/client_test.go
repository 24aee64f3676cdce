package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/nerrad567/doorsense/internal/api"
	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/infrastructure/config"
	"github.com/nerrad567/doorsense/internal/infrastructure/database"
	"github.com/nerrad567/doorsense/internal/infrastructure/logging"
	"github.com/nerrad567/doorsense/internal/rpc"
	"github.com/nerrad567/doorsense/internal/user"
	_ "github.com/nerrad567/doorsense/migrations"
)

// testBackend starts a real backend over a temporary database.
func testBackend(t *testing.T) (*Client, *device.SQLiteRepository, *user.SQLiteRepository) {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "client-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	users := user.NewSQLiteRepository(db.DB)
	devices := device.NewSQLiteRepository(db.DB)
	logs := entrance.NewSQLiteRepository(db.DB)
	recorder := entrance.NewRecorder(logs, nil)

	srv, err := api.New(api.Deps{
		Config: config.APIConfig{Host: "127.0.0.1"},
		Logger: logging.Discard(),
		Router: rpc.NewAppRouter(rpc.Deps{
			Users:    users,
			Devices:  devices,
			Logs:     logs,
			Recorder: recorder,
		}),
		Recorder: recorder,
	})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL + "/trpc/"), devices, users
}

func TestNew_NormalisesBaseURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":        "http://localhost:8080",
		"http://localhost:8080/":       "http://localhost:8080",
		"http://localhost:8080/trpc":   "http://localhost:8080",
		"http://localhost:8080/trpc/":  "http://localhost:8080",
		"https://doorsense.example/v1": "https://doorsense.example/v1",
	}
	for in, want := range tests {
		if got := New(in).baseURL; got != want {
			t.Errorf("New(%q).baseURL = %q, want %q", in, got, want)
		}
	}
}

func TestClient_Dashboard(t *testing.T) {
	c, devices, users := testBackend(t)
	ctx := context.Background()

	if err := users.Create(ctx, &user.User{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if err := devices.Create(ctx, &device.Device{Name: "Porch light", Location: "Front"}); err != nil {
		t.Fatalf("creating device: %v", err)
	}
	for _, d := range []int{10, 20, 30} {
		if _, err := c.ReportEntrance(ctx, d); err != nil {
			t.Fatalf("ReportEntrance(%d) error = %v", d, err)
		}
	}

	d, err := c.Dashboard(ctx, 2, 7)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if len(d.Users) != 1 || d.Users[0].Email != "ada@example.com" {
		t.Errorf("Users = %+v", d.Users)
	}
	if len(d.Devices) != 1 || d.Devices[0].Status != device.StatusOff {
		t.Errorf("Devices = %+v", d.Devices)
	}
	if d.Live.Count != 3 || d.Live.AvgDuration == nil || *d.Live.AvgDuration != 20 {
		t.Errorf("Live = %+v", d.Live)
	}
	if d.Live.LastEvent == nil || !d.Live.LastEvent.Equal(d.Recent[0].Timestamp) {
		t.Errorf("Live.LastEvent = %v, want newest log timestamp", d.Live.LastEvent)
	}
	if len(d.Recent) != 2 || d.Recent[0].Duration != 30 {
		t.Errorf("Recent = %+v", d.Recent)
	}
	if len(d.Daily) != 1 || d.Daily[0].Count != 3 {
		t.Errorf("Daily = %+v", d.Daily)
	}
}

func TestClient_BatchPartialFailure(t *testing.T) {
	c, _, _ := testBackend(t)

	var users []user.User
	var missing user.User
	err := c.Batch(context.Background(),
		Call{Path: "getUsers", Out: &users},
		Call{Path: "getUserById", Input: map[string]int{"id": 5}, Out: &missing},
	)
	if !IsNotFound(err) {
		t.Fatalf("Batch() error = %v, want NOT_FOUND", err)
	}
	if users == nil {
		t.Error("successful call in a failed batch should still be decoded")
	}

	var re *RemoteError
	if !errors.As(err, &re) || re.Path != "getUserById" || re.HTTPStatus != http.StatusNotFound {
		t.Errorf("RemoteError = %+v", re)
	}
}

func TestClient_ToggleDevice(t *testing.T) {
	c, devices, _ := testBackend(t)
	ctx := context.Background()

	d := &device.Device{Name: "Fan", Status: device.StatusOn}
	if err := devices.Create(ctx, d); err != nil {
		t.Fatalf("creating device: %v", err)
	}

	first, err := c.ToggleDevice(ctx, d.ID)
	if err != nil {
		t.Fatalf("ToggleDevice() error = %v", err)
	}
	if first.Status != device.StatusOff {
		t.Errorf("after first toggle status = %q, want off", first.Status)
	}

	second, err := c.ToggleDevice(ctx, d.ID)
	if err != nil {
		t.Fatalf("ToggleDevice() error = %v", err)
	}
	if second.Status != device.StatusOn {
		t.Errorf("after second toggle status = %q, want on", second.Status)
	}

	if _, err := c.ToggleDevice(ctx, 404); !IsNotFound(err) {
		t.Errorf("ToggleDevice(404) error = %v, want NOT_FOUND", err)
	}
}

func TestClient_ReportEntranceRejected(t *testing.T) {
	c, _, _ := testBackend(t)

	_, err := c.ReportEntrance(context.Background(), 0)
	var se *SensorError
	if !errors.As(err, &se) {
		t.Fatalf("ReportEntrance(0) error = %v, want *SensorError", err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Message == "" {
		t.Errorf("SensorError = %+v", se)
	}
}

func TestClient_SingleCalls(t *testing.T) {
	c, _, _ := testBackend(t)
	ctx := context.Background()

	var greeting struct {
		Greeting string `json:"greeting"`
	}
	if err := c.Query(ctx, "hello", map[string]string{"name": "Grace"}, &greeting); err != nil {
		t.Fatalf("Query(hello) error = %v", err)
	}
	if greeting.Greeting != "Hello, Grace!" {
		t.Errorf("greeting = %q", greeting.Greeting)
	}

	var created user.User
	if err := c.Mutate(ctx, "createUser", map[string]string{"name": "Grace", "email": "grace@example.com"}, &created); err != nil {
		t.Fatalf("Mutate(createUser) error = %v", err)
	}

	users, err := c.Users(ctx)
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != created.ID {
		t.Errorf("Users() = %+v", users)
	}

	devices, err := c.Devices(ctx)
	if err != nil || len(devices) != 0 {
		t.Errorf("Devices() = %+v, %v", devices, err)
	}

	recent, err := c.RecentLogs(ctx, 5)
	if err != nil || len(recent) != 0 {
		t.Errorf("RecentLogs() = %+v, %v", recent, err)
	}
	daily, err := c.DailyStats(ctx, 7)
	if err != nil || len(daily) != 0 {
		t.Errorf("DailyStats() = %+v, %v", daily, err)
	}
	live, err := c.LiveStats(ctx)
	if err != nil || live.Count != 0 || live.AvgDuration != nil || live.LastEvent != nil {
		t.Errorf("LiveStats() = %+v, %v", live, err)
	}

	if err := c.Mutate(ctx, "getUsers", nil, nil); err == nil {
		t.Error("Mutate on a query should fail")
	}
}
