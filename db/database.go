package db

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects and tunes the backing store
type Options struct {
	// PostgresURL wins over everything else when set
	PostgresURL string
	// TursoURL and TursoToken select a remote libsql database
	TursoURL   string
	TursoToken string
	// SQLitePath is the local fallback
	SQLitePath  string
	Environment string
}

// Open connects to the configured store. Unique-constraint violations are translated
// into gorm.ErrDuplicatedKey so callers can detect allocation conflicts portably.
func Open(opts Options) (*gorm.DB, error) {
	// Determine log level based on environment
	logLevel := logger.Info
	if opts.Environment == "production" {
		logLevel = logger.Warn
	}
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var (
		dialector gorm.Dialector
		backend   string
	)
	switch {
	case opts.PostgresURL != "":
		dialector = postgres.Open(opts.PostgresURL)
		backend = "PostgreSQL"
	case opts.TursoURL != "":
		dialector = sqlite.New(sqlite.Config{
			DriverName: "libsql",
			DSN:        tursoDSN(opts.TursoURL, opts.TursoToken),
		})
		backend = "Turso (libsql)"
	default:
		dialector = sqlite.Open(SQLiteDSN(opts.SQLitePath))
		backend = "SQLite (WAL mode)"
	}

	database, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("[DB] Database connection established (%s)", backend)
	return database, nil
}

// SQLiteDSN builds a local SQLite DSN tuned for concurrent writers: WAL journal, a busy
// timeout instead of immediate SQLITE_BUSY failures, and BEGIN IMMEDIATE transactions
// so two allocators never both read the counter before one of them writes it.
func SQLiteDSN(path string) string {
	params := "_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

func tursoDSN(rawURL, token string) string {
	if token == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL + "?authToken=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(database *gorm.DB, models ...interface{}) error {
	if database == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := database.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("[DB] Database migrations completed")
	return nil
}

// Close closes the database connection
func Close(database *gorm.DB) error {
	if database == nil {
		return nil
	}

	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
