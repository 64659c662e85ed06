package app

import (
	"strings"

	"github.com/shrimpsizemoose/hdpredict/internal/store"
	"github.com/shrimpsizemoose/hdpredict/internal/store/postgres"
	"github.com/shrimpsizemoose/hdpredict/internal/store/sqlite"
)

func NewStore(dsn string) (store.PatientStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn)
	default:
		return sqlite.NewSQLiteStore(dsn)
	}
}
