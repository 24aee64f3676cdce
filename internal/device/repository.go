package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository defines persistence operations for devices.
type Repository interface {
	// List returns every device ordered by ID.
	List(ctx context.Context) ([]Device, error)

	// GetByID returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id int64) (*Device, error)

	// Create inserts the device and fills in ID and, when empty, Status.
	Create(ctx context.Context, d *Device) error

	// UpdateStatus overwrites the status and returns the updated device.
	// Returns ErrDeviceNotFound if the device does not exist.
	UpdateStatus(ctx context.Context, id int64, status Status) (*Device, error)

	// Delete removes a device. Deleting a missing device is not an error.
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, name, status, location`

// List returns every device ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// GetByID retrieves a device by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// Create inserts a new device. When d.Status is empty the column default
// applies and the stored value is written back into d.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if err := d.Validate(); err != nil {
		return err
	}

	var row *sql.Row
	if d.Status == "" {
		row = r.db.QueryRowContext(ctx,
			`INSERT INTO devices (name, location) VALUES (?, ?) RETURNING `+deviceColumns,
			d.Name, d.Location)
	} else {
		row = r.db.QueryRowContext(ctx,
			`INSERT INTO devices (name, status, location) VALUES (?, ?, ?) RETURNING `+deviceColumns,
			d.Name, string(d.Status), d.Location)
	}

	created, err := scanDevice(row)
	if err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}
	*d = *created
	return nil
}

// UpdateStatus sets the status of a device.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Device, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE devices SET status = ? WHERE id = ? RETURNING `+deviceColumns,
		string(status), id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("updating device status: %w", err)
	}
	return d, nil
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return nil
}

// CountByStatus returns the number of devices in each status.
func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM devices GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting devices: %w", err)
	}
	defer rows.Close()

	counts := map[Status]int{StatusOn: 0, StatusOff: 0}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning device count: %w", err)
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device counts: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDevice maps a row to a Device and rejects unknown status values.
func scanDevice(s scanner) (*Device, error) {
	var d Device
	var status string
	if err := s.Scan(&d.ID, &d.Name, &status, &d.Location); err != nil {
		return nil, err
	}

	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("device %d: stored record: %w", d.ID, err)
	}
	d.Status = parsed
	return &d, nil
}
