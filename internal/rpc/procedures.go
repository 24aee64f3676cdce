package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/user"
)

// Defaults applied when optional inputs are omitted.
const (
	DefaultRecentLimit = 10
	DefaultStatsDays   = 7
)

// Deps holds the repositories the procedures delegate to.
type Deps struct {
	Users    user.Repository
	Devices  device.Repository
	Logs     entrance.Repository
	Recorder *entrance.Recorder

	// Now is used by the health procedure. Defaults to time.Now.
	Now func() time.Time
}

type helloInput struct {
	Name *string `json:"name"`
}

type idInput struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type createUserInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type updateUserInput struct {
	ID    int64  `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type createDeviceInput struct {
	Name     string `json:"name" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=on off"`
	Location string `json:"location"`
}

type updateDeviceStatusInput struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	Status string `json:"status" validate:"required,oneof=on off"`
}

type recentLogsInput struct {
	Limit *int `json:"limit" validate:"omitempty,min=1,max=1000"`
}

type dailyStatsInput struct {
	Days *int `json:"days" validate:"omitempty,min=1,max=365"`
}

type createLogInput struct {
	Duration int `json:"duration" validate:"required,gt=0"`
}

// Greeting is the result of the hello procedure.
type Greeting struct {
	Greeting string `json:"greeting"`
}

// Health is the result of the health procedure.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Success acknowledges a delete.
type Success struct {
	Success bool `json:"success"`
}

// NewAppRouter registers every Doorsense procedure.
func NewAppRouter(deps Deps) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := NewRouter()
	v := r.validate

	query := func(name string, h Handler) { r.Register(Procedure{Name: name, Kind: Query, Handler: h}) }
	mutation := func(name string, h Handler) { r.Register(Procedure{Name: name, Kind: Mutation, Handler: h}) }

	query("hello", func(_ context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[helloInput](v, raw)
		if err != nil {
			return nil, err
		}
		name := "world"
		if in.Name != nil && *in.Name != "" {
			name = *in.Name
		}
		return Greeting{Greeting: "Hello, " + name + "!"}, nil
	})

	query("health", func(context.Context, json.RawMessage) (any, error) {
		return Health{
			Status:    "ok",
			Timestamp: deps.Now().UTC().Format(entrance.TimestampLayout),
		}, nil
	})

	// Users

	query("getUsers", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return deps.Users.List(ctx)
	})

	query("getUserById", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[idInput](v, raw)
		if err != nil {
			return nil, err
		}
		return deps.Users.GetByID(ctx, in.ID)
	})

	mutation("createUser", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[createUserInput](v, raw)
		if err != nil {
			return nil, err
		}
		u := &user.User{Name: in.Name, Email: in.Email}
		if err := deps.Users.Create(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	})

	mutation("updateUser", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[updateUserInput](v, raw)
		if err != nil {
			return nil, err
		}
		u := &user.User{ID: in.ID, Name: in.Name, Email: in.Email}
		if err := deps.Users.Update(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	})

	mutation("deleteUser", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[idInput](v, raw)
		if err != nil {
			return nil, err
		}
		if err := deps.Users.Delete(ctx, in.ID); err != nil {
			return nil, err
		}
		return Success{Success: true}, nil
	})

	// Devices

	query("getDevices", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return deps.Devices.List(ctx)
	})

	query("getDeviceById", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[idInput](v, raw)
		if err != nil {
			return nil, err
		}
		return deps.Devices.GetByID(ctx, in.ID)
	})

	mutation("createDevice", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[createDeviceInput](v, raw)
		if err != nil {
			return nil, err
		}
		d := &device.Device{Name: in.Name, Status: device.Status(in.Status), Location: in.Location}
		if err := deps.Devices.Create(ctx, d); err != nil {
			return nil, err
		}
		return d, nil
	})

	mutation("updateDeviceStatus", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[updateDeviceStatusInput](v, raw)
		if err != nil {
			return nil, err
		}
		return deps.Devices.UpdateStatus(ctx, in.ID, device.Status(in.Status))
	})

	mutation("deleteDevice", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[idInput](v, raw)
		if err != nil {
			return nil, err
		}
		if err := deps.Devices.Delete(ctx, in.ID); err != nil {
			return nil, err
		}
		return Success{Success: true}, nil
	})

	// Entrance logs

	query("logs.getRecent", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[recentLogsInput](v, raw)
		if err != nil {
			return nil, err
		}
		limit := DefaultRecentLimit
		if in.Limit != nil {
			limit = *in.Limit
		}
		return deps.Logs.Recent(ctx, limit)
	})

	query("logs.getDailyStats", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[dailyStatsInput](v, raw)
		if err != nil {
			return nil, err
		}
		days := DefaultStatsDays
		if in.Days != nil {
			days = *in.Days
		}
		return deps.Logs.DailyStats(ctx, days)
	})

	query("logs.getLiveStats", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return deps.Logs.LiveStats(ctx)
	})

	mutation("logs.create", func(ctx context.Context, raw json.RawMessage) (any, error) {
		in, err := decodeInput[createLogInput](v, raw)
		if err != nil {
			return nil, err
		}
		return deps.Recorder.Record(ctx, in.Duration, entrance.SourceRPC)
	})

	return r
}
