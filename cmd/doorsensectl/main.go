// doorsensectl is a terminal client for a running Doorsense backend.
//
// Usage:
//
//	doorsensectl [-url http://localhost:8080] [-timeout 10s] <command> [args]
//
// Commands:
//
//	dashboard         users, devices and entrance statistics in one request
//	users             list users
//	devices           list devices
//	toggle <id>       flip a device between on and off
//	logs [limit]      recent entrance logs (default 10)
//	report <seconds>  post an entrance the way a door sensor does
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nerrad567/doorsense/internal/client"
	"github.com/nerrad567/doorsense/internal/infrastructure/config"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const (
	dashboardRecent = 5
	dashboardDays   = 7
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "Error: loading .env: %v\n", err)
		return exitError
	}
	defaults := config.Default().Client

	flags := flag.NewFlagSet("doorsensectl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	baseURL := flags.String("url", defaults.BackendURL, "backend base URL")
	timeout := flags.Duration("timeout", time.Duration(defaults.Timeout)*time.Second, "per-request timeout")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: doorsensectl [flags] dashboard|users|devices|toggle <id>|logs [limit]|report <seconds>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return exitUsage
	}

	c := client.New(*baseURL, client.WithTimeout(*timeout))
	cmd, cmdArgs := flags.Arg(0), flags.Args()[1:]

	err := dispatch(ctx, c, cmd, cmdArgs, stdout)
	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		flags.Usage()
		return exitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

// usageError marks bad command-line input.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func dispatch(ctx context.Context, c *client.Client, cmd string, args []string, w io.Writer) error {
	switch cmd {
	case "dashboard":
		d, err := c.Dashboard(ctx, dashboardRecent, dashboardDays)
		if err != nil {
			return err
		}
		return renderDashboard(w, d)

	case "users":
		users, err := c.Users(ctx)
		if err != nil {
			return err
		}
		return renderUsers(w, users)

	case "devices":
		devices, err := c.Devices(ctx)
		if err != nil {
			return err
		}
		return renderDevices(w, devices)

	case "toggle":
		if len(args) != 1 {
			return usageError{"toggle needs exactly one device id"}
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return usageError{fmt.Sprintf("invalid device id %q", args[0])}
		}
		d, err := c.ToggleDevice(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s is now %s\n", d.Name, d.Status)
		return nil

	case "logs":
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return usageError{fmt.Sprintf("invalid limit %q", args[0])}
			}
			limit = n
		}
		logs, err := c.RecentLogs(ctx, limit)
		if err != nil {
			return err
		}
		return renderLogs(w, logs)

	case "report":
		if len(args) != 1 {
			return usageError{"report needs a duration in seconds"}
		}
		seconds, err := parseSeconds(args[0])
		if err != nil {
			return usageError{err.Error()}
		}
		l, err := c.ReportEntrance(ctx, seconds)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "recorded entrance #%d (%ds) at %s\n", l.ID, l.Duration, formatTime(l.Timestamp))
		return nil

	default:
		return usageError{fmt.Sprintf("unknown command %q", cmd)}
	}
}

// parseSeconds accepts a bare number of seconds or a Go duration such as 1m30s.
func parseSeconds(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("duration %q is not a whole number of seconds", s)
	}
	return int(d / time.Second), nil
}
