// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/hdpredict/internal/store"
)

const busyTimeoutMillis = 5000

type SQLiteStore struct {
	store.BaseStore
}

// NewSQLiteStore opens an existing database file. The file is never created
// here; ":memory:" is accepted for tests.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", readWriteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// One connection: SQLite allows a single writer, and every ":memory:"
	// connection would otherwise be a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteStore{BaseStore: store.BaseStore{
		DB:   db,
		Type: store.DBTypeSQLite,
		Converter: func(query string) string {
			return query
		},
	}}, nil
}

// readWriteDSN turns a plain file path into a URI that refuses to create a
// missing file.
func readWriteDSN(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?mode=rw"
}
