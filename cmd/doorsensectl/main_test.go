package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
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

// testBackend serves a fresh backend and returns its URL.
func testBackend(t *testing.T) (string, *user.SQLiteRepository, *device.SQLiteRepository) {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "ctl-test.db"),
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
		Config: config.APIConfig{},
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
	return ts.URL, users, devices
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"-url", "http://127.0.0.1:1", "frobnicate"}},
		{"toggle without id", []string{"-url", "http://127.0.0.1:1", "toggle"}},
		{"toggle bad id", []string{"-url", "http://127.0.0.1:1", "toggle", "abc"}},
		{"report bad duration", []string{"-url", "http://127.0.0.1:1", "report", "soon"}},
		{"logs bad limit", []string{"-url", "http://127.0.0.1:1", "logs", "-3"}},
		{"bad flag", []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if !strings.Contains(stderr, "usage:") {
				t.Errorf("stderr should contain usage, got %q", stderr)
			}
		})
	}
}

func TestRun_BackendUnreachable(t *testing.T) {
	code, _, stderr := runCLI(t, "-url", "http://127.0.0.1:1", "-timeout", "1s", "users")
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "Error:") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_Commands(t *testing.T) {
	url, users, devices := testBackend(t)
	ctx := context.Background()

	if err := users.Create(ctx, &user.User{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if err := devices.Create(ctx, &device.Device{Name: "Porch light", Location: "Front"}); err != nil {
		t.Fatalf("creating device: %v", err)
	}

	steps := []struct {
		args []string
		want []string
	}{
		{[]string{"users"}, []string{"ID", "EMAIL", "ada@example.com"}},
		{[]string{"devices"}, []string{"Porch light", "off", "Front"}},
		{[]string{"toggle", "1"}, []string{"Porch light is now on"}},
		{[]string{"toggle", "1"}, []string{"Porch light is now off"}},
		{[]string{"logs"}, []string{"no entrance logs"}},
		{[]string{"report", "15"}, []string{"recorded entrance #1 (15s)"}},
		{[]string{"report", "1m"}, []string{"recorded entrance #2 (60s)"}},
		{[]string{"logs", "1"}, []string{"60s"}},
		{[]string{"dashboard"}, []string{"Today: 2 entrances, average 37.5s", "Recent entrances", "Daily statistics", "Porch light", "ada@example.com"}},
	}

	for _, step := range steps {
		args := append([]string{"-url", url}, step.args...)
		code, stdout, stderr := runCLI(t, args...)
		if code != exitOK {
			t.Fatalf("%v: exit code = %d, stderr = %q", step.args, code, stderr)
		}
		for _, want := range step.want {
			if !strings.Contains(stdout, want) {
				t.Errorf("%v: stdout missing %q:\n%s", step.args, want, stdout)
			}
		}
	}
}

func TestRun_ReportRejected(t *testing.T) {
	url, _, _ := testBackend(t)

	code, _, stderr := runCLI(t, "-url", url, "report", "0")
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "400") {
		t.Errorf("stderr = %q, want the rejection status", stderr)
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"15", 15, false},
		{"90s", 90, false},
		{"1m30s", 90, false},
		{"1.5s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSeconds(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSeconds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSeconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
