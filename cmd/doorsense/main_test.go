package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DOORSENSE_CONFIG", writeConfig(t, "invalid: [yaml: content"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config")
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DOORSENSE_CONFIG", writeConfig(t, `
database:
  path: ""
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when database.path is empty")
	}
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	dbPath := filepath.Join(t.TempDir(), "doorsense.db")

	t.Setenv("PORT", "")
	t.Setenv("DOORSENSE_DATABASE_PATH", "")
	t.Setenv("DOORSENSE_CONFIG", writeConfig(t, fmt.Sprintf(`
database:
  path: %q
  wal_mode: true
  busy_timeout: 5
  seed_sample_logs: 10
api:
  host: "127.0.0.1"
  port: %d
logging:
  level: error
  format: text
  output: stderr
`, dbPath, port)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/", port)
	deadline := time.Now().Add(5 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			lastErr = nil
			if resp.StatusCode != http.StatusOK {
				t.Errorf("GET / status = %d, want 200", resp.StatusCode)
			}
			break
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	if lastErr != nil {
		cancel()
		t.Fatalf("server never answered: %v", lastErr)
	}

	resp, err := http.Get(url + "metrics")
	if err != nil {
		cancel()
		t.Fatalf("GET /metrics error = %v", err)
	}
	exposition, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		cancel()
		t.Fatalf("reading /metrics: %v", err)
	}
	for _, want := range []string{
		"doorsense_users 0",
		"doorsense_devices_on 0",
		"doorsense_entrance_events_stored 10",
		"doorsense_entrance_events_today",
	} {
		if !strings.Contains(string(exposition), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("DOORSENSE_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("DOORSENSE_CONFIG", "/etc/doorsense.yaml")
	if got := getConfigPath(); got != "/etc/doorsense.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/doorsense.yaml", got)
	}
}
