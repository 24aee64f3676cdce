package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/doorsense/internal/client"
	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/user"
)

// displayLayout is how timestamps are shown in tables.
const displayLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderUsers(w io.Writer, users []user.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "no users")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	return tw.Flush()
}

func renderDevices(w io.Writer, devices []device.Device) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "no devices")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tLOCATION")
	for _, d := range devices {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, d.Name, d.Status, d.Location)
	}
	return tw.Flush()
}

func renderLogs(w io.Writer, logs []entrance.Log) error {
	if len(logs) == 0 {
		_, err := fmt.Fprintln(w, "no entrance logs")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTIME\tDURATION")
	for _, l := range logs {
		fmt.Fprintf(tw, "%d\t%s\t%ds\n", l.ID, formatTime(l.Timestamp), l.Duration)
	}
	return tw.Flush()
}

func renderDailyStats(w io.Writer, stats []entrance.DailyStat) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "no entrances in window")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tCOUNT\tAVG\tLAST")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Date, s.Count, formatAvg(s.AvgDuration), formatTimePtr(s.LastEvent))
	}
	return tw.Flush()
}

func renderDashboard(w io.Writer, d *client.Dashboard) error {
	fmt.Fprintf(w, "Today: %d entrances, average %s, last %s\n\n",
		d.Live.Count, formatAvg(d.Live.AvgDuration), formatTimePtr(d.Live.LastEvent))

	sections := []struct {
		title  string
		render func() error
	}{
		{"Recent entrances", func() error { return renderLogs(w, d.Recent) }},
		{"Daily statistics", func() error { return renderDailyStats(w, d.Daily) }},
		{"Devices", func() error { return renderDevices(w, d.Devices) }},
		{"Users", func() error { return renderUsers(w, d.Users) }},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", s.title)
		if err := s.render(); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format(displayLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func formatAvg(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + "s"
}
