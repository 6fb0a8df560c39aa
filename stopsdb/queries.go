package stopsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/routing"
)

// ErrDuplicateName is returned when creating a stop whose name already
// exists, compared case-insensitively.
var ErrDuplicateName = fmt.Errorf("%w: stop name already exists", routing.ErrInvalidInput)

// ErrDuplicateID is returned when creating a stop with an id in use.
var ErrDuplicateID = fmt.Errorf("%w: stop id already exists", routing.ErrInvalidInput)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db   DBTX
	conn *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db, conn: db}
}

func (q *Queries) withTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, conn: q.conn}
}

// inTx runs fn inside a transaction, rolling back when fn fails.
func (q *Queries) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := q.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(q.withTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func rowsLogger() *slog.Logger {
	return slog.Default().With(slog.String("component", "stopsdb"))
}

const listStops = `
SELECT id, name, latitude, longitude FROM stops ORDER BY seq
`

const listStopRoutes = `
SELECT stop_id, route FROM stop_routes ORDER BY stop_id, route
`

// ListStops returns every stop with its routes, in dataset order.
func (q *Queries) ListStops(ctx context.Context) ([]routing.Stop, error) {
	rows, err := q.db.QueryContext(ctx, listStops)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, rowsLogger(), "stop_rows")

	stops := []routing.Stop{}
	index := make(map[int]int)
	for rows.Next() {
		var s routing.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		s.Routes = []string{}
		index[s.ID] = len(stops)
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	routeRows, err := q.db.QueryContext(ctx, listStopRoutes)
	if err != nil {
		return nil, fmt.Errorf("failed to list stop routes: %w", err)
	}
	defer logging.SafeCloseWithLogging(routeRows, rowsLogger(), "stop_route_rows")

	for routeRows.Next() {
		var stopID int
		var route string
		if err := routeRows.Scan(&stopID, &route); err != nil {
			return nil, fmt.Errorf("failed to scan stop route: %w", err)
		}
		if i, ok := index[stopID]; ok {
			stops[i].Routes = append(stops[i].Routes, route)
		}
	}
	return stops, routeRows.Err()
}

const getStop = `
SELECT id, name, latitude, longitude FROM stops WHERE id = ?
`

const getStopRoutes = `
SELECT route FROM stop_routes WHERE stop_id = ? ORDER BY route
`

// GetStop returns one stop or an error wrapping routing.ErrNotFound.
func (q *Queries) GetStop(ctx context.Context, id int) (routing.Stop, error) {
	var s routing.Stop
	err := q.db.QueryRowContext(ctx, getStop, id).Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return routing.Stop{}, fmt.Errorf("%w: stop %d", routing.ErrNotFound, id)
	}
	if err != nil {
		return routing.Stop{}, fmt.Errorf("failed to get stop %d: %w", id, err)
	}

	rows, err := q.db.QueryContext(ctx, getStopRoutes, id)
	if err != nil {
		return routing.Stop{}, fmt.Errorf("failed to get routes for stop %d: %w", id, err)
	}
	defer logging.SafeCloseWithLogging(rows, rowsLogger(), "stop_route_rows")

	s.Routes = []string{}
	for rows.Next() {
		var route string
		if err := rows.Scan(&route); err != nil {
			return routing.Stop{}, err
		}
		s.Routes = append(s.Routes, route)
	}
	return s, rows.Err()
}

const nameExists = `
SELECT COUNT(*) FROM stops WHERE name = ? COLLATE NOCASE AND id != ?
`

const idExists = `
SELECT COUNT(*) FROM stops WHERE id = ?
`

const nextID = `
SELECT COALESCE(MAX(id), 0) + 1 FROM stops
`

const insertStop = `
INSERT INTO stops (id, name, latitude, longitude, seq)
VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM stops))
`

const insertStopRoute = `
INSERT OR IGNORE INTO stop_routes (stop_id, route) VALUES (?, ?)
`

// CreateStop validates and inserts a stop. An ID <= 0 is replaced with the
// next free id. Names must be unique ignoring case.
func (q *Queries) CreateStop(ctx context.Context, stop routing.Stop) (routing.Stop, error) {
	stop = stop.Normalized()
	var created routing.Stop
	err := q.inTx(ctx, func(tx *Queries) error {
		if stop.ID <= 0 {
			if err := tx.db.QueryRowContext(ctx, nextID).Scan(&stop.ID); err != nil {
				return fmt.Errorf("failed to allocate stop id: %w", err)
			}
		}
		if err := routing.ValidateStop(stop); err != nil {
			return err
		}

		var n int
		if err := tx.db.QueryRowContext(ctx, idExists, stop.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d", ErrDuplicateID, stop.ID)
		}
		if err := tx.db.QueryRowContext(ctx, nameExists, stop.Name, stop.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateName, stop.Name)
		}

		if _, err := tx.db.ExecContext(ctx, insertStop, stop.ID, stop.Name, stop.Latitude, stop.Longitude); err != nil {
			return fmt.Errorf("failed to insert stop: %w", err)
		}
		if err := tx.insertRoutes(ctx, stop.ID, stop.Routes); err != nil {
			return err
		}

		var err error
		created, err = tx.GetStop(ctx, stop.ID)
		return err
	})
	return created, err
}

func (q *Queries) insertRoutes(ctx context.Context, stopID int, routes []string) error {
	for _, r := range routes {
		if _, err := q.db.ExecContext(ctx, insertStopRoute, stopID, r); err != nil {
			return fmt.Errorf("failed to insert route %q for stop %d: %w", r, stopID, err)
		}
	}
	return nil
}

const updateStop = `
UPDATE stops SET name = ?, latitude = ?, longitude = ? WHERE id = ?
`

const deleteStopRoutes = `
DELETE FROM stop_routes WHERE stop_id = ?
`

// UpdateStop replaces the fields and routes of stop id. The id itself is
// immutable; stop.ID is ignored.
func (q *Queries) UpdateStop(ctx context.Context, id int, stop routing.Stop) (routing.Stop, error) {
	stop.ID = id
	stop = stop.Normalized()
	if err := routing.ValidateStop(stop); err != nil {
		return routing.Stop{}, err
	}

	var updated routing.Stop
	err := q.inTx(ctx, func(tx *Queries) error {
		res, err := tx.db.ExecContext(ctx, updateStop, stop.Name, stop.Latitude, stop.Longitude, id)
		if err != nil {
			return fmt.Errorf("failed to update stop %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: stop %d", routing.ErrNotFound, id)
		}

		if _, err := tx.db.ExecContext(ctx, deleteStopRoutes, id); err != nil {
			return fmt.Errorf("failed to clear routes for stop %d: %w", id, err)
		}
		if err := tx.insertRoutes(ctx, id, stop.Routes); err != nil {
			return err
		}

		updated, err = tx.GetStop(ctx, id)
		return err
	})
	return updated, err
}

const deleteStop = `
DELETE FROM stops WHERE id = ?
`

// DeleteStop removes stop id and returns what was deleted.
func (q *Queries) DeleteStop(ctx context.Context, id int) (routing.Stop, error) {
	var deleted routing.Stop
	err := q.inTx(ctx, func(tx *Queries) error {
		var err error
		deleted, err = tx.GetStop(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.db.ExecContext(ctx, deleteStopRoutes, id); err != nil {
			return fmt.Errorf("failed to delete routes for stop %d: %w", id, err)
		}
		if _, err := tx.db.ExecContext(ctx, deleteStop, id); err != nil {
			return fmt.Errorf("failed to delete stop %d: %w", id, err)
		}
		return nil
	})
	return deleted, err
}

// ReplaceAll swaps the whole dataset in one transaction. Stops keep the
// order of the slice.
func (q *Queries) ReplaceAll(ctx context.Context, stops []routing.Stop) error {
	normalized := make([]routing.Stop, len(stops))
	for i, s := range stops {
		normalized[i] = s.Normalized()
		if err := routing.ValidateStop(normalized[i]); err != nil {
			return err
		}
	}
	stops = normalized

	return q.inTx(ctx, func(tx *Queries) error {
		if _, err := tx.db.ExecContext(ctx, "DELETE FROM stop_routes"); err != nil {
			return fmt.Errorf("failed to clear stop routes: %w", err)
		}
		if _, err := tx.db.ExecContext(ctx, "DELETE FROM stops"); err != nil {
			return fmt.Errorf("failed to clear stops: %w", err)
		}
		for _, s := range stops {
			if _, err := tx.db.ExecContext(ctx, insertStop, s.ID, s.Name, s.Latitude, s.Longitude); err != nil {
				return fmt.Errorf("failed to insert stop %d: %w", s.ID, err)
			}
			if err := tx.insertRoutes(ctx, s.ID, s.Routes); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountStops returns the number of stored stops.
func (q *Queries) CountStops(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stops").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count stops: %w", err)
	}
	return n, nil
}

// ImportMetadata records the last bulk import.
type ImportMetadata struct {
	Source     string
	StopCount  int
	ImportedAt time.Time
}

const upsertImportMetadata = `
INSERT INTO import_metadata (id, source, stop_count, imported_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET source = excluded.source, stop_count = excluded.stop_count, imported_at = excluded.imported_at
`

func (q *Queries) SetImportMetadata(ctx context.Context, source string, count int, at time.Time) error {
	if _, err := q.db.ExecContext(ctx, upsertImportMetadata, source, count, at.UnixMilli()); err != nil {
		return fmt.Errorf("failed to record import metadata: %w", err)
	}
	return nil
}

// GetImportMetadata returns routing.ErrNotFound before the first import.
func (q *Queries) GetImportMetadata(ctx context.Context) (ImportMetadata, error) {
	var m ImportMetadata
	var at int64
	err := q.db.QueryRowContext(ctx, "SELECT source, stop_count, imported_at FROM import_metadata WHERE id = 1").
		Scan(&m.Source, &m.StopCount, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return ImportMetadata{}, fmt.Errorf("%w: no import recorded", routing.ErrNotFound)
	}
	if err != nil {
		return ImportMetadata{}, err
	}
	m.ImportedAt = time.UnixMilli(at)
	return m, nil
}
