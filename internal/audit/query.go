package audit

import (
	"database/sql"
	"time"
)

const eventColumns = `id, op_id, timestamp, op, action, path, file_name, object_type, size, error_message`

// Recent returns the N most recent events
func (l *Log) Recent(limit int) ([]Event, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM events
	ORDER BY timestamp DESC
	LIMIT ?
	`

	return l.queryEvents(query, limit)
}

// ByOperation returns all events recorded under one operation ID, in
// insertion order (the operation's processing order)
func (l *Log) ByOperation(opID string) ([]Event, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM events
	WHERE op_id = ?
	ORDER BY id ASC
	`

	return l.queryEvents(query, opID)
}

// ByAction returns events filtered by action type
func (l *Log) ByAction(action string) ([]Event, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM events
	WHERE action = ?
	ORDER BY timestamp DESC
	`

	return l.queryEvents(query, action)
}

// ByPath returns events matching a path pattern (SQL LIKE syntax)
func (l *Log) ByPath(pathPattern string) ([]Event, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM events
	WHERE path LIKE ?
	ORDER BY timestamp DESC
	`

	return l.queryEvents(query, pathPattern)
}

// Largest returns the N largest removed or copied nodes by size
func (l *Log) Largest(limit int) ([]Event, error) {
	query := `
	SELECT ` + eventColumns + `
	FROM events
	WHERE action IN ('DELETE', 'COPY')
	ORDER BY size DESC
	LIMIT ?
	`

	return l.queryEvents(query, limit)
}

// Stats holds aggregated statistics for a time period
type Stats struct {
	TotalRemoved int
	TotalCopied  int
	TotalSkipped int
	TotalErrors  int
	BytesRemoved int64
	BytesCopied  int64
	ByAction     map[string]int
	StartDate    time.Time
	EndDate      time.Time
}

// GetStats returns comprehensive statistics for the last N days
func (l *Log) GetStats(days int) (*Stats, error) {
	since := time.Now().AddDate(0, 0, -days)
	now := time.Now()

	stats := &Stats{
		StartDate: since,
		EndDate:   now,
	}

	err := l.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN action = 'DELETE' THEN 1 END),
			COUNT(CASE WHEN action = 'COPY' THEN 1 END),
			COUNT(CASE WHEN action = 'SKIP' THEN 1 END),
			COUNT(CASE WHEN action = 'ERROR' THEN 1 END),
			COALESCE(SUM(CASE WHEN action = 'DELETE' THEN size ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'COPY' THEN size ELSE 0 END), 0)
		FROM events
		WHERE timestamp >= ?
	`, since).Scan(
		&stats.TotalRemoved, &stats.TotalCopied, &stats.TotalSkipped,
		&stats.TotalErrors, &stats.BytesRemoved, &stats.BytesCopied,
	)
	if err != nil {
		return nil, err
	}

	stats.ByAction, err = l.countByAction(since)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// countByAction returns event counts grouped by action since a cutoff
func (l *Log) countByAction(since time.Time) (map[string]int, error) {
	rows, err := l.db.Query(`
		SELECT action, COUNT(*)
		FROM events
		WHERE timestamp >= ?
		GROUP BY action
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		counts[action] = count
	}

	return counts, rows.Err()
}

// DeleteOldEvents removes records older than the specified days
func (l *Log) DeleteOldEvents(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	result, err := l.db.Exec(`
		DELETE FROM events WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryEvents executes a query and scans the result rows
func (l *Log) queryEvents(query string, args ...interface{}) ([]Event, error) {
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var errMsg sql.NullString

		err := rows.Scan(
			&e.ID, &e.OpID, &e.Timestamp, &e.Op, &e.Action, &e.Path,
			&e.FileName, &e.ObjectType, &e.Size, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		if errMsg.Valid {
			e.ErrorMessage = errMsg.String
		}

		events = append(events, e)
	}

	return events, rows.Err()
}
