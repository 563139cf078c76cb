package query

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	TableDatabaseVersion = "database_version"
	TableActivities      = "activities"

	// dbVersion is the schema version Init migrates to.
	dbVersion = 2
)

// Database is the activity store. Reads run concurrently; appends are
// serialized through writeMu and each one is a single transaction.
type Database struct {
	*sqlx.DB
	path    string
	log     hclog.Logger
	writeMu sync.Mutex
	ready   atomic.Bool
}

// Open prepares a handle on the database at path without touching the
// filesystem. driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3).
func Open(driver, path string, logger hclog.Logger) (*Database, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	dsn, err := dataSourceName(driver, path)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, ioFailure("open", err)
	}
	return &Database{DB: db, path: path, log: logger.Named("store")}, nil
}

func dataSourceName(driver, path string) (string, error) {
	switch driver {
	case "sqlite":
		return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", nil
	case "sqlite3":
		return path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

func (db *Database) Path() string {
	return db.path
}

func (db *Database) GetDbVersion(ctx context.Context) (int, error) {
	var version int
	err := db.GetContext(ctx, &version, "SELECT db_version FROM database_version LIMIT 1")
	if err != nil {
		return 0, fmt.Errorf("GetDbVersion: %w", err)
	}
	return version, nil
}

func (db *Database) TableExists(ctx context.Context, tableName string) (bool, error) {
	query := `
		SELECT count(name)
		FROM sqlite_master
		WHERE type='table' AND name=?
	`

	var count int
	if err := db.QueryRowContext(ctx, query, tableName).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// checkReady fails with ErrNotInitialized when the file or schema is absent.
// The file existence check comes first so that reads never create it.
func (db *Database) checkReady(ctx context.Context, op string) error {
	if db.ready.Load() {
		return nil
	}
	if _, err := os.Stat(db.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notInitialized(op)
		}
		return ioFailure(op, err)
	}
	exist, err := db.TableExists(ctx, TableDatabaseVersion)
	if err != nil {
		return ioFailure(op, err)
	}
	if !exist {
		return notInitialized(op)
	}
	version, err := db.GetDbVersion(ctx)
	if err != nil {
		return ioFailure(op, err)
	}
	if version < dbVersion {
		return notInitialized(op)
	}
	db.ready.Store(true)
	return nil
}

// Init creates the storage directory and schema and applies pending
// migrations. Running it on an initialized store changes nothing.
func (db *Database) Init(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
		return ioFailure("init", err)
	}

	exist, err := db.TableExists(ctx, TableDatabaseVersion)
	if err != nil {
		return ioFailure("init", err)
	}
	if !exist {
		_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS database_version (
			db_version INTEGER DEFAULT 0);
		INSERT INTO database_version VALUES(0);`)
		if err != nil {
			return ioFailure("init", err)
		}
		db.log.Info("created database", "path", db.path)
	}

	if err := db.updateDb(ctx); err != nil {
		return ioFailure("init", err)
	}
	db.ready.Store(true)
	return nil
}

func (db *Database) updateDb(ctx context.Context) error {
	version, err := db.GetDbVersion(ctx)
	if err != nil {
		return fmt.Errorf("updateDb: %w", err)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("updateDb: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_time TEXT NOT NULL,
			application_name TEXT NOT NULL,
			window_title TEXT NOT NULL DEFAULT '',
			duration REAL NOT NULL,
			activity_type TEXT NOT NULL DEFAULT 'general',
			date TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_activities_start ON activities(start_time);
		CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date);
		UPDATE database_version SET db_version=1;`)
		if err != nil {
			return fmt.Errorf("updateDb version 1: %w", err)
		}
		db.log.Info("db version up to 1")
	}

	if version < 2 {
		_, err = tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_activities_app ON activities(application_name);
		UPDATE database_version SET db_version=2;`)
		if err != nil {
			return fmt.Errorf("updateDb version 2: %w", err)
		}
		db.log.Info("db version up to 2")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("updateDb: commit: %w", err)
	}
	return nil
}

// Ready reports ErrNotInitialized when Init has not been run on this database.
func (db *Database) Ready(ctx context.Context) error {
	return db.checkReady(ctx, "ready")
}
