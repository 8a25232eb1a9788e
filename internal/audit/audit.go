package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"treekit/internal/fsops"
)

// Log manages the SQLite database recording bulk-operation history
type Log struct {
	db *sql.DB
}

// Event represents one recorded action against one node
type Event struct {
	ID           int64
	OpID         string // correlates all rows of one bulk operation
	Timestamp    time.Time
	Op           string // remove, copy, mktree
	Action       string // DELETE, SKIP, ERROR, COPY, MKDIR, DRY_RUN
	Path         string
	FileName     string
	ObjectType   string // file, directory, other
	Size         int64
	ErrorMessage string
	CreatedAt    time.Time
}

// Open creates a new database connection and initializes the schema
func Open(dbPath string) (*Log, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// file: prefix with _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// A trivial query both verifies the connection and creates the file
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// WAL mode for better concurrency (multiple readers, one writer)
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	l := &Log{db: db}
	if err = l.initSchema(); err != nil {
		return nil, err
	}

	err = nil
	return l, nil
}

// initSchema creates tables and indexes if they don't exist
func (l *Log) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		op_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		op TEXT NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		object_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		error_message TEXT,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_op_id ON events(op_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_action ON events(action);
	CREATE INDEX IF NOT EXISTS idx_path ON events(path);
	CREATE INDEX IF NOT EXISTS idx_size ON events(size);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Record inserts one event row
func (l *Log) Record(opID, op, action, path string, kind fsops.NodeKind, size int64, errMsg string) error {
	query := `
	INSERT INTO events (
		op_id, timestamp, op, action, path, file_name, object_type, size, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.Exec(
		query,
		opID,
		time.Now().UTC(),
		op,
		action,
		path,
		filepath.Base(path),
		kind.String(),
		size,
		errMsg,
	)

	return err
}

// Close closes the database connection
func (l *Log) Close() error {
	return l.db.Close()
}

// Vacuum optimizes the database (run periodically)
func (l *Log) Vacuum() error {
	_, err := l.db.Exec("VACUUM")
	return err
}
