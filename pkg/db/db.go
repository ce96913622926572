package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds database configuration
type Config struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	CacheSize    int    // In KB, negative for pages
	BusyTimeout  int    // In milliseconds
	WalMode      bool   // Use Write-Ahead Logging
	SyncMode     string // OFF, NORMAL, FULL, EXTRA
	ForeignKeys  bool
	JournalMode  string // DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF
	TxLock       string // deferred, immediate, exclusive
}

// DefaultConfig returns the file-backed configuration used by both server modes
func DefaultConfig() *Config {
	return &Config{
		Path:         "data/todos.db",
		MaxOpenConns: 25,
		MaxIdleConns: 5,
		CacheSize:    -64000, // 64MB cache (negative = pages)
		BusyTimeout:  5000,   // 5 seconds
		WalMode:      true,
		SyncMode:     "NORMAL",
		ForeignKeys:  true,
		JournalMode:  "WAL",
		TxLock:       "immediate", // writers take the lock at BEGIN, not on first write
	}
}

// MemoryConfig returns a configuration for a private in-memory database.
// A single connection keeps every caller on the same database.
func MemoryConfig() *Config {
	return &Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		CacheSize:    -2000,
		BusyTimeout:  5000,
		WalMode:      false, // WAL mode not available for :memory:
		SyncMode:     "NORMAL",
		ForeignKeys:  true,
		JournalMode:  "MEMORY",
		TxLock:       "immediate",
	}
}

// Open opens the todo database, creating its directory when needed
func Open(cfg *Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	connStr := buildConnectionString(cfg)

	logger.Info("opening database",
		"path", cfg.Path,
		"wal_mode", cfg.WalMode,
		"cache_size_kb", cfg.CacheSize/-1,
		"busy_timeout_ms", cfg.BusyTimeout,
		"tx_lock", cfg.TxLock,
	)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	logger.Info("database connection established",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	return db, nil
}

// buildConnectionString renders cfg as a modernc.org/sqlite DSN. Pragmas are
// applied by the driver to every pooled connection, not just the first.
func buildConnectionString(cfg *Config) string {
	params := []string{
		fmt.Sprintf("_pragma=journal_mode(%s)", cfg.JournalMode),
		fmt.Sprintf("_pragma=synchronous(%s)", cfg.SyncMode),
		fmt.Sprintf("_pragma=cache_size(%d)", cfg.CacheSize),
		fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout),
		"_pragma=temp_store(MEMORY)",
	}
	if cfg.ForeignKeys {
		params = append(params, "_pragma=foreign_keys(ON)")
	}
	if cfg.TxLock != "" {
		params = append(params, "_txlock="+cfg.TxLock)
	}

	return fmt.Sprintf("file:%s?%s", cfg.Path, strings.Join(params, "&"))
}

// Migrate runs all pending migrations
func Migrate(db *sql.DB, logger *slog.Logger) error {
	logger.Info("running database migrations")

	if err := createMigrationsTable(db); err != nil {
		return errors.Wrap(err, "failed to create migrations table")
	}

	applied, err := getAppliedMigrations(db)
	if err != nil {
		return errors.Wrap(err, "failed to get applied migrations")
	}

	available, err := getAvailableMigrations()
	if err != nil {
		return errors.Wrap(err, "failed to get available migrations")
	}

	pending := getPendingMigrations(available, applied)
	if len(pending) == 0 {
		logger.Info("no pending migrations")
		return nil
	}

	logger.Info("applying migrations", "count", len(pending))

	for _, name := range pending {
		if err := applyMigration(db, name, logger); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", name)
		}
	}

	logger.Info("migrations completed successfully", "applied", len(pending))
	return nil
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// getAppliedMigrations returns the versions recorded in schema_migrations
func getAppliedMigrations(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied = append(applied, version)
	}

	return applied, rows.Err()
}

// getAvailableMigrations returns all available migration versions (*.up.sql)
func getAvailableMigrations() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			// "001_create_todos.up.sql" -> "001_create_todos"
			migrations = append(migrations, strings.TrimSuffix(name, ".up.sql"))
		}
	}

	sort.Strings(migrations)
	return migrations, nil
}

// getPendingMigrations returns available versions not yet applied, in order
func getPendingMigrations(available, applied []string) []string {
	appliedSet := make(map[string]bool, len(applied))
	for _, v := range applied {
		appliedSet[v] = true
	}

	var pending []string
	for _, v := range available {
		if !appliedSet[v] {
			pending = append(pending, v)
		}
	}

	return pending
}

// applyMigration applies a single migration inside a transaction
func applyMigration(db *sql.DB, version string, logger *slog.Logger) error {
	logger.Info("applying migration", "version", version)

	content, err := migrationsFS.ReadFile(fmt.Sprintf("migrations/%s.up.sql", version))
	if err != nil {
		return errors.Wrap(err, "failed to read migration file")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return errors.Wrap(err, "failed to execute migration")
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return errors.Wrap(err, "failed to record migration")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration")
	}

	logger.Info("migration applied successfully", "version", version)
	return nil
}

// Close closes the database, logging the shutdown
func Close(db *sql.DB, logger *slog.Logger) error {
	logger.Info("closing database connection")
	return db.Close()
}
