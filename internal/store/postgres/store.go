package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/hdpredict/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresStore{BaseStore: store.BaseStore{
		DB:        db,
		Type:      store.DBTypePostgres,
		Converter: rebind,
	}}, nil
}

// rebind rewrites ? placeholders into $1, $2, ...
func rebind(query string) string {
	out := query
	for i := 1; strings.Contains(out, "?"); i++ {
		out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
	}
	return out
}
