package entrance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Repository defines persistence and aggregation operations for entrance logs.
type Repository interface {
	// Create stores a log with a server-assigned timestamp.
	// Returns ErrInvalidDuration when seconds <= 0.
	Create(ctx context.Context, seconds int) (*Log, error)

	// Recent returns up to limit logs, newest first.
	Recent(ctx context.Context, limit int) ([]Log, error)

	// DailyStats aggregates the trailing days×24h per UTC date, newest date first.
	DailyStats(ctx context.Context, days int) ([]DailyStat, error)

	// LiveStats aggregates the current UTC date.
	LiveStats(ctx context.Context) (*LiveStats, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed entrance log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const logColumns = `id, timestamp, duration, created_at`

// Create inserts one log row.
func (r *SQLiteRepository) Create(ctx context.Context, seconds int) (*Log, error) {
	if err := ValidateDuration(seconds); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO entrance_logs (duration) VALUES (?) RETURNING `+logColumns,
		seconds)
	l, err := scanLog(row)
	if err != nil {
		return nil, fmt.Errorf("inserting entrance log: %w", err)
	}
	return l, nil
}

// Recent returns the newest logs.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Log, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM entrance_logs ORDER BY timestamp DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent entrance logs: %w", err)
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entrance logs: %w", err)
	}
	return logs, nil
}

// DailyStats groups the logs of the trailing window by UTC date.
// Days without events are omitted.
func (r *SQLiteRepository) DailyStats(ctx context.Context, days int) ([]DailyStat, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, days)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date(timestamp) AS day, COUNT(*), AVG(duration), MAX(timestamp)
		FROM entrance_logs
		WHERE timestamp >= strftime('%Y-%m-%dT%H:%M:%fZ', 'now', ?)
		GROUP BY day
		ORDER BY day DESC`,
		"-"+strconv.Itoa(days)+" days")
	if err != nil {
		return nil, fmt.Errorf("querying daily stats: %w", err)
	}
	defer rows.Close()

	stats := []DailyStat{}
	for rows.Next() {
		var (
			s    DailyStat
			avg  sql.NullFloat64
			last sql.NullString
		)
		if err := rows.Scan(&s.Date, &s.Count, &avg, &last); err != nil {
			return nil, fmt.Errorf("scanning daily stat: %w", err)
		}
		if avg.Valid {
			s.AvgDuration = &avg.Float64
		}
		if last.Valid {
			t, err := parseTimestamp(last.String)
			if err != nil {
				return nil, fmt.Errorf("daily stat %s: %w", s.Date, err)
			}
			s.LastEvent = &t
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily stats: %w", err)
	}
	return stats, nil
}

// LiveStats aggregates today's logs.
func (r *SQLiteRepository) LiveStats(ctx context.Context) (*LiveStats, error) {
	var (
		stats LiveStats
		avg   sql.NullFloat64
		last  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(duration), MAX(timestamp)
		FROM entrance_logs
		WHERE date(timestamp) = date('now')`,
	).Scan(&stats.Count, &avg, &last)
	if err != nil {
		return nil, fmt.Errorf("querying live stats: %w", err)
	}

	if stats.Count == 0 {
		return &stats, nil
	}
	if avg.Valid {
		rounded := roundTenth(avg.Float64)
		stats.AvgDuration = &rounded
	}
	if last.Valid {
		t, err := parseTimestamp(last.String)
		if err != nil {
			return nil, fmt.Errorf("live stats: %w", err)
		}
		stats.LastEvent = &t
	}
	return &stats, nil
}

// Count returns the total number of stored logs.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entrance_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entrance logs: %w", err)
	}
	return n, nil
}

// SeedSamples fills an empty table with n demo logs spaced one hour apart
// going back from now, with durations between 10 and 129 seconds.
// It does nothing when the table already has rows and returns the number
// of rows inserted.
func (r *SQLiteRepository) SeedSamples(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `
		WITH RECURSIVE seq(i) AS (
			SELECT 0
			UNION ALL
			SELECT i + 1 FROM seq WHERE i + 1 < ?
		)
		INSERT INTO entrance_logs (timestamp, duration)
		SELECT strftime('%Y-%m-%dT%H:%M:%fZ', 'now', '-' || i || ' hours'),
			10 + abs(random() % 120)
		FROM seq
		WHERE NOT EXISTS (SELECT 1 FROM entrance_logs)`,
		n)
	if err != nil {
		return 0, fmt.Errorf("seeding entrance logs: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return int(inserted), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanLog maps a row to a Log, rejecting malformed timestamps and
// non-positive durations.
func scanLog(s scanner) (*Log, error) {
	var (
		l                  Log
		timestamp, created string
	)
	if err := s.Scan(&l.ID, &timestamp, &l.Duration, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning entrance log: %w", err)
	}

	var err error
	if l.Timestamp, err = parseTimestamp(timestamp); err != nil {
		return nil, fmt.Errorf("entrance log %d: %w", l.ID, err)
	}
	if l.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, fmt.Errorf("entrance log %d: %w", l.ID, err)
	}
	if l.Duration <= 0 {
		return nil, fmt.Errorf("entrance log %d: stored duration %d: %w", l.ID, l.Duration, ErrInvalidDuration)
	}
	return &l, nil
}
