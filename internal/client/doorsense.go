package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/user"
)

// Dashboard is everything the overview screen shows, fetched in one batch.
type Dashboard struct {
	Users   []user.User
	Devices []device.Device
	Live    entrance.LiveStats
	Recent  []entrance.Log
	Daily   []entrance.DailyStat
}

// Dashboard fetches users, devices and entrance statistics in a single request.
func (c *Client) Dashboard(ctx context.Context, recentLimit, days int) (*Dashboard, error) {
	var d Dashboard
	err := c.Batch(ctx,
		Call{Path: "getUsers", Out: &d.Users},
		Call{Path: "getDevices", Out: &d.Devices},
		Call{Path: "logs.getLiveStats", Out: &d.Live},
		Call{Path: "logs.getRecent", Input: map[string]int{"limit": recentLimit}, Out: &d.Recent},
		Call{Path: "logs.getDailyStats", Input: map[string]int{"days": days}, Out: &d.Daily},
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Users lists every user.
func (c *Client) Users(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if err := c.Query(ctx, "getUsers", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Devices lists every device.
func (c *Client) Devices(ctx context.Context) ([]device.Device, error) {
	var devices []device.Device
	if err := c.Query(ctx, "getDevices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// ToggleDevice flips a device between on and off and returns the updated row.
// Concurrent toggles are not coordinated; the last write wins.
func (c *Client) ToggleDevice(ctx context.Context, id int64) (*device.Device, error) {
	var current device.Device
	if err := c.Query(ctx, "getDeviceById", map[string]int64{"id": id}, &current); err != nil {
		return nil, err
	}

	var updated device.Device
	input := map[string]any{"id": id, "status": current.Status.Toggled()}
	if err := c.Mutate(ctx, "updateDeviceStatus", input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RecentLogs returns up to limit of the newest entrance logs.
func (c *Client) RecentLogs(ctx context.Context, limit int) ([]entrance.Log, error) {
	var logs []entrance.Log
	if err := c.Query(ctx, "logs.getRecent", map[string]int{"limit": limit}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// DailyStats returns per-day statistics for the trailing window.
func (c *Client) DailyStats(ctx context.Context, days int) ([]entrance.DailyStat, error) {
	var stats []entrance.DailyStat
	if err := c.Query(ctx, "logs.getDailyStats", map[string]int{"days": days}, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// LiveStats returns today's statistics.
func (c *Client) LiveStats(ctx context.Context) (*entrance.LiveStats, error) {
	var live entrance.LiveStats
	if err := c.Query(ctx, "logs.getLiveStats", nil, &live); err != nil {
		return nil, err
	}
	return &live, nil
}

// SensorError is a rejected POST /sensor report.
type SensorError struct {
	StatusCode int
	Message    string
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("sensor report rejected (%d): %s", e.StatusCode, e.Message)
}

// ReportEntrance posts a sensor reading the way a door sensor does.
func (c *Client) ReportEntrance(ctx context.Context, seconds int) (*entrance.Log, error) {
	body, err := json.Marshal(map[string]int{"duration": seconds})
	if err != nil {
		return nil, fmt.Errorf("encoding sensor report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sensor", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting sensor report: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool          `json:"success"`
		Log     *entrance.Log `json:"log"`
		Error   string        `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding sensor response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated || !out.Success || out.Log == nil {
		return nil, &SensorError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return out.Log, nil
}
