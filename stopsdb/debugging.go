package stopsdb

import (
	"fmt"
	"log/slog"
	"strings"

	"koox.dev/busrouter/internal/logging"
)

// LogSchema logs every table, index and trigger definition in the database.
func (c *Client) LogSchema(logger *slog.Logger) error {
	rows, err := c.DB.Query(`
		SELECT type, name, sql
		FROM sqlite_master
		WHERE type IN ('table', 'index', 'view', 'trigger')
		  AND name NOT LIKE 'sqlite_%'
		  AND sql IS NOT NULL
		ORDER BY type, name
	`)
	if err != nil {
		return fmt.Errorf("failed to query schema: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, logger, "database_rows")

	for rows.Next() {
		var objType, objName, objSQL string
		if err := rows.Scan(&objType, &objName, &objSQL); err != nil {
			return fmt.Errorf("failed to scan schema row: %w", err)
		}
		logger.Info("schema_object",
			slog.String("type", strings.ToUpper(objType)),
			slog.String("name", objName),
			slog.String("sql", objSQL))
	}

	return rows.Err()
}

// TableCounts returns the row count of every known table.
func (c *Client) TableCounts() (map[string]int, error) {
	rows, err := c.DB.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows,
		slog.Default().With(slog.String("component", "debugging")),
		"database_rows")
	var tables []string

	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)

	for _, table := range tables {
		var query string

		// Constant queries only; table names never reach SQL text.
		switch table {
		case "stops":
			query = "SELECT COUNT(*) FROM stops"
		case "stop_routes":
			query = "SELECT COUNT(*) FROM stop_routes"
		case "import_metadata":
			query = "SELECT COUNT(*) FROM import_metadata"
		default:
			continue
		}

		var count int
		if err := c.DB.QueryRow(query).Scan(&count); err != nil {
			return nil, err
		}
		counts[table] = count
	}

	return counts, nil
}
