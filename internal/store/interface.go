package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/metrics"
	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

type PatientStore interface {
	Close() error
	CheckSchema(ctx context.Context) error

	CreatePatient(ctx context.Context, patient *models.StoredPatient) (int64, error)
	ListPatients(ctx context.Context, filter models.PatientFilter) ([]models.StoredPatient, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Type      DatabaseType
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// CheckSchema verifies that the patients table exists with every column the
// API reads and writes, and that the database assigns its ids. The table
// itself is created by the seeding step.
func (s *BaseStore) CheckSchema(ctx context.Context) error {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+patientColumns+" FROM patients WHERE 1 = 0")
	if err != nil {
		return fmt.Errorf("patients table is missing or incomplete: %w", err)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	switch s.Type {
	case DBTypePostgres:
		return s.checkPostgresID(ctx)
	default:
		return s.checkSQLiteID(ctx)
	}
}

type sqliteKeyColumn struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

// checkSQLiteID requires id to be the table's only key and declared
// INTEGER, which makes it the rowid that SQLite assigns on insert.
func (s *BaseStore) checkSQLiteID(ctx context.Context) error {
	var keys []sqliteKeyColumn
	err := s.DB.SelectContext(ctx, &keys,
		"SELECT name, type FROM pragma_table_info('patients') WHERE pk > 0")
	if err != nil {
		return fmt.Errorf("failed to inspect patients table: %w", err)
	}
	if len(keys) != 1 || !strings.EqualFold(keys[0].Name, "id") || !strings.EqualFold(keys[0].Type, "INTEGER") {
		return fmt.Errorf("patients.id must be declared INTEGER PRIMARY KEY so the store assigns ids")
	}
	return nil
}

func (s *BaseStore) checkPostgresID(ctx context.Context) error {
	var assigned bool
	err := s.DB.GetContext(ctx, &assigned, `
		SELECT column_default IS NOT NULL OR is_identity = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'patients' AND column_name = 'id'`)
	if err != nil {
		return fmt.Errorf("failed to inspect patients table: %w", err)
	}
	if !assigned {
		return fmt.Errorf("patients.id must be an identity or have a default so the store assigns ids")
	}
	return nil
}

// CreatePatient inserts patient and sets its ID to the one assigned by the
// database. Nothing is persisted when an error is returned.
func (s *BaseStore) CreatePatient(ctx context.Context, patient *models.StoredPatient) (int64, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	args := []interface{}{
		patient.Age,
		patient.Sex,
		patient.ChestPainType,
		patient.RestingBP,
		patient.Cholesterol,
		patient.FastingBS,
		patient.RestingECG,
		patient.MaxHR,
		patient.ExerciseAngina,
		patient.Oldpeak,
		patient.STSlope,
		int(patient.HeartDisease),
	}

	var id int64
	switch s.Type {
	case DBTypePostgres:
		err = tx.QueryRowxContext(ctx, s.Converter(insertPatientQuery+" RETURNING id"), args...).Scan(&id)
	default:
		var res sql.Result
		res, err = tx.ExecContext(ctx, s.Converter(insertPatientQuery), args...)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit patient: %w", err)
	}

	patient.ID = id
	return id, nil
}

// ListPatients returns the rows matching filter in ascending id order.
// Rows that no longer satisfy the record constraints are logged and skipped.
func (s *BaseStore) ListPatients(ctx context.Context, filter models.PatientFilter) ([]models.StoredPatient, error) {
	query, args := BuildPatientQuery(filter)

	rows, err := s.DB.QueryxContext(ctx, s.Converter(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []models.StoredPatient
	for rows.Next() {
		row := patientRow{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to read patient row: %w", err)
		}

		p, err := row.toStoredPatient()
		if err != nil {
			logger.Error.Printf("Skipping patient row id=%v: %v", row["id"], err)
			metrics.PatientRowsRejectedTotal.Inc()
			continue
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	return patients, nil
}
