package stepflow

import (
	"database/sql"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/stepflowhq/stepflow/internal/config"
	"github.com/stepflowhq/stepflow/internal/migrations"
	"github.com/stepflowhq/stepflow/internal/repository"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lmittmann/tint"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenStore builds the Store selected by SFLOW_DATABASE_TYPE: the in-memory
// store, or a SQL store on Postgres, MySQL or SQLite with migrations applied.
// The returned closer is a no-op for the memory store.
func OpenStore() (Store, func() error, error) {
	databaseType := config.GetSystemSettingString(config.DATABASE_TYPE)

	switch databaseType {
	case config.DATABASE_TYPE_MEMORY:
		slog.Info("Using in-memory instance store")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	case config.DATABASE_TYPE_POSTGRES:
		db := setupPostgresDatabase()
		return repository.NewInstanceRepository(db), db.Close, nil
	case config.DATABASE_TYPE_MYSQL:
		db := setupMysqlDatabase()
		return repository.NewInstanceRepository(db), db.Close, nil
	case config.DATABASE_TYPE_SQLITE:
		db := setupSqliteDatabase()
		return repository.NewInstanceRepository(db), db.Close, nil
	}
	panic("SFLOW_DATABASE_TYPE must be set to one of the following values: MEMORY, POSTGRES, MYSQL, SQLITE")
}

func setupPostgresDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("SFLOW_DATABASE_URL must be set when using the POSTGRES database type")
	}
	slog.Info("Using Postgres instance store", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return db
}

func setupSqliteDatabase() *sql.DB {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLITE_FILE_NAME)
	if fileName == "" {
		panic("SFLOW_DATABASE_SQLITE_FILE_NAME must be set")
	}
	dbURL := "sqlite3://" + fileName
	slog.Info("Using SQLite instance store", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqlite3", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	db, err := sql.Open("sqlite3", fileName)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite DB: %v", err)
	}
	return db
}

func setupMysqlDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("SFLOW_DATABASE_URL must be set when using the MYSQL database type")
	}
	if !strings.Contains(dbURL, "parseTime=true") {
		panic("SFLOW_DATABASE_URL must contain 'parseTime=true' for MySQL")
	}
	if !strings.HasPrefix(dbURL, "mysql://") {
		panic("SFLOW_DATABASE_URL must start with 'mysql://' for MySQL")
	}

	slog.Info("Using MySQL instance store", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	db, err := sql.Open("mysql", strings.Replace(dbURL, "mysql://", "", 1))
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return db
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// SetupLogger installs a tinted slog handler as the default logger. Hosts may
// skip this and configure slog themselves.
func SetupLogger() {
	w := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
