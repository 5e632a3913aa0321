package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// InitDB opens the database and brings the schema up to date.
// With an empty primaryURL the database is a local sqlite file (or ":memory:");
// otherwise it is the remote Turso database at primaryURL.
// The returned teardown closes the connection.
func InitDB(dbPath string, primaryURL string, authToken string) (*sql.DB, func(), error) {
	var (
		db  *sql.DB
		err error
	)
	if primaryURL == "" {
		log.Info("Initializing local SQLite database", "path", dbPath)
		db, err = sql.Open("sqlite3", dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local database: %w", err)
		}
		// sqlite serializes writers anyway, and an in-memory database only
		// lives as long as its single connection.
		db.SetMaxOpenConns(1)
		if err = applyPragmas(db, dbPath == ":memory:"); err != nil {
			db.Close()
			return nil, nil, err
		}
	} else {
		log.Info("Initializing Turso database", "url", primaryURL)
		db, err = sql.Open("libsql", primaryURL+"?authToken="+authToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db %s: %w", primaryURL, err)
		}
	}

	if err = runMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	teardown := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
	log.Info("Database initialized successfully")
	return db, teardown, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(log.Default())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB, inMemory bool) error {
	pragmas := [][2]string{
		{"foreign_keys", "ON"},
		{"busy_timeout", "5000"},
	}
	if !inMemory {
		pragmas = append(pragmas, [2]string{"journal_mode", "WAL"}, [2]string{"synchronous", "NORMAL"})
	}
	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p[0], p[1])); err != nil {
			log.Error("Failed to set pragma", "pragma", p[0], "error", err)
			return fmt.Errorf("failed to set PRAGMA %s: %w", p[0], err)
		}
	}
	return nil
}
