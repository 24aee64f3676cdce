package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/infrastructure/database"
	"github.com/nerrad567/doorsense/internal/user"
	_ "github.com/nerrad567/doorsense/migrations"
)

// testRouter builds the application router over a fresh migrated database.
func testRouter(t *testing.T) *Router {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "rpc-test.db"),
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

	logs := entrance.NewSQLiteRepository(db.DB)
	return NewAppRouter(Deps{
		Users:    user.NewSQLiteRepository(db.DB),
		Devices:  device.NewSQLiteRepository(db.DB),
		Logs:     logs,
		Recorder: entrance.NewRecorder(logs, nil),
		Now:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func call(t *testing.T, r *Router, name string, kind Kind, input string) any {
	t.Helper()

	var raw json.RawMessage
	if input != "" {
		raw = json.RawMessage(input)
	}
	got, err := r.Call(context.Background(), name, kind, raw)
	if err != nil {
		t.Fatalf("%s(%s) error = %v", name, input, err)
	}
	return got
}

func callErr(t *testing.T, r *Router, name string, kind Kind, input string) Code {
	t.Helper()

	var raw json.RawMessage
	if input != "" {
		raw = json.RawMessage(input)
	}
	_, err := r.Call(context.Background(), name, kind, raw)
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("%s(%s) error = %v, want *Error", name, input, err)
	}
	return rpcErr.Code
}

func TestAppRouter_ProcedureTable(t *testing.T) {
	r := testRouter(t)

	want := map[string]Kind{
		"hello":              Query,
		"health":             Query,
		"getUsers":           Query,
		"getUserById":        Query,
		"createUser":         Mutation,
		"updateUser":         Mutation,
		"deleteUser":         Mutation,
		"getDevices":         Query,
		"getDeviceById":      Query,
		"createDevice":       Mutation,
		"updateDeviceStatus": Mutation,
		"deleteDevice":       Mutation,
		"logs.getRecent":     Query,
		"logs.getDailyStats": Query,
		"logs.getLiveStats":  Query,
		"logs.create":        Mutation,
	}

	if got := len(r.Names()); got != len(want) {
		t.Errorf("registered %d procedures, want %d: %v", got, len(want), r.Names())
	}
	for name, kind := range want {
		p, ok := r.Lookup(name)
		if !ok {
			t.Errorf("procedure %q not registered", name)
			continue
		}
		if p.Kind != kind {
			t.Errorf("procedure %q kind = %s, want %s", name, p.Kind, kind)
		}
	}
}

func TestAppRouter_Hello(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		input string
		want  string
	}{
		{`{"name":"Ada"}`, "Hello, Ada!"},
		{`{}`, "Hello, world!"},
		{``, "Hello, world!"},
	}
	for _, tt := range tests {
		got := call(t, r, "hello", Query, tt.input).(Greeting)
		if got.Greeting != tt.want {
			t.Errorf("hello(%s) = %q, want %q", tt.input, got.Greeting, tt.want)
		}
	}
}

func TestAppRouter_Health(t *testing.T) {
	got := call(t, testRouter(t), "health", Query, "").(Health)
	if got.Status != "ok" {
		t.Errorf("Status = %q, want ok", got.Status)
	}
	if got.Timestamp != "2026-03-01T12:00:00.000Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}
}

func TestAppRouter_UserLifecycle(t *testing.T) {
	r := testRouter(t)

	created := call(t, r, "createUser", Mutation, `{"name":"Ada","email":"ada@example.com"}`).(*user.User)
	if created.ID == 0 {
		t.Fatal("createUser should assign an ID")
	}

	if code := callErr(t, r, "createUser", Mutation, `{"name":"Other","email":"ada@example.com"}`); code != CodeConflict {
		t.Errorf("duplicate email code = %s, want CONFLICT", code)
	}
	if code := callErr(t, r, "createUser", Mutation, `{"name":"Bad","email":"not-an-email"}`); code != CodeBadRequest {
		t.Errorf("invalid email code = %s, want BAD_REQUEST", code)
	}

	updated := call(t, r, "updateUser", Mutation, `{"id":1,"name":"Ada L","email":"ada@example.org"}`).(*user.User)
	if updated.Name != "Ada L" || updated.Email != "ada@example.org" {
		t.Errorf("updateUser = %+v", updated)
	}

	got := call(t, r, "getUserById", Query, `{"id":1}`).(*user.User)
	if got.Email != "ada@example.org" {
		t.Errorf("getUserById email = %q", got.Email)
	}

	users := call(t, r, "getUsers", Query, "").([]user.User)
	if len(users) != 1 {
		t.Errorf("getUsers returned %d users, want 1", len(users))
	}

	res := call(t, r, "deleteUser", Mutation, `{"id":1}`).(Success)
	if !res.Success {
		t.Error("deleteUser should report success")
	}
	if code := callErr(t, r, "getUserById", Query, `{"id":1}`); code != CodeNotFound {
		t.Errorf("getUserById after delete code = %s, want NOT_FOUND", code)
	}
	if res := call(t, r, "deleteUser", Mutation, `{"id":1}`).(Success); !res.Success {
		t.Error("repeated deleteUser should succeed as a no-op")
	}
}

func TestAppRouter_DeviceLifecycle(t *testing.T) {
	r := testRouter(t)

	d := call(t, r, "createDevice", Mutation, `{"name":"Porch light","location":"Front"}`).(*device.Device)
	if d.Status != device.StatusOff {
		t.Errorf("default status = %q, want off", d.Status)
	}

	if code := callErr(t, r, "createDevice", Mutation, `{"name":"Fan","status":"maybe"}`); code != CodeBadRequest {
		t.Errorf("invalid status code = %s, want BAD_REQUEST", code)
	}

	on := call(t, r, "updateDeviceStatus", Mutation, `{"id":1,"status":"on"}`).(*device.Device)
	if on.Status != device.StatusOn || on.Name != "Porch light" {
		t.Errorf("updateDeviceStatus = %+v", on)
	}

	if code := callErr(t, r, "updateUser", Mutation, `{"id":99,"name":"X","email":"x@example.com"}`); code != CodeNotFound {
		t.Errorf("updateUser unknown id code = %s, want NOT_FOUND", code)
	}
	if code := callErr(t, r, "updateDeviceStatus", Mutation, `{"id":99,"status":"on"}`); code != CodeNotFound {
		t.Errorf("unknown device code = %s, want NOT_FOUND", code)
	}

	devices := call(t, r, "getDevices", Query, "").([]device.Device)
	if len(devices) != 1 || devices[0].Status != device.StatusOn {
		t.Errorf("getDevices = %+v", devices)
	}

	call(t, r, "deleteDevice", Mutation, `{"id":1}`)
	if code := callErr(t, r, "getDeviceById", Query, `{"id":1}`); code != CodeNotFound {
		t.Errorf("getDeviceById after delete code = %s, want NOT_FOUND", code)
	}
}

func TestAppRouter_Logs(t *testing.T) {
	r := testRouter(t)

	for _, d := range []int{10, 20, 30} {
		l := call(t, r, "logs.create", Mutation, `{"duration":`+itoa(d)+`}`).(*entrance.Log)
		if l.Duration != d {
			t.Errorf("logs.create duration = %d, want %d", l.Duration, d)
		}
	}

	recent := call(t, r, "logs.getRecent", Query, `{"limit":2}`).([]entrance.Log)
	if len(recent) != 2 || recent[0].Duration != 30 {
		t.Errorf("logs.getRecent = %+v", recent)
	}

	all := call(t, r, "logs.getRecent", Query, "").([]entrance.Log)
	if len(all) != 3 {
		t.Errorf("logs.getRecent default returned %d logs, want 3", len(all))
	}

	live := call(t, r, "logs.getLiveStats", Query, "").(*entrance.LiveStats)
	if live.Count != 3 || live.AvgDuration == nil || *live.AvgDuration != 20 {
		t.Errorf("logs.getLiveStats = %+v", live)
	}

	daily := call(t, r, "logs.getDailyStats", Query, `{"days":1}`).([]entrance.DailyStat)
	if len(daily) != 1 || daily[0].Count != 3 {
		t.Errorf("logs.getDailyStats = %+v", daily)
	}
}

func TestAppRouter_LogInputValidation(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		name  string
		proc  string
		kind  Kind
		input string
	}{
		{"zero duration", "logs.create", Mutation, `{"duration":0}`},
		{"negative duration", "logs.create", Mutation, `{"duration":-4}`},
		{"fractional duration", "logs.create", Mutation, `{"duration":2.5}`},
		{"missing duration", "logs.create", Mutation, `{}`},
		{"limit too large", "logs.getRecent", Query, `{"limit":1001}`},
		{"limit zero", "logs.getRecent", Query, `{"limit":0}`},
		{"days too large", "logs.getDailyStats", Query, `{"days":366}`},
		{"days zero", "logs.getDailyStats", Query, `{"days":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := callErr(t, r, tt.proc, tt.kind, tt.input); code != CodeBadRequest {
				t.Errorf("code = %s, want BAD_REQUEST", code)
			}
		})
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
