package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/hdpredict/internal/models"
	"github.com/shrimpsizemoose/hdpredict/internal/store/sqlite"
)

const shippedModel = "../../model/hd_mdl.json"

const schema = `
	CREATE TABLE patients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		Age INTEGER, Sex TEXT, ChestPainType TEXT, RestingBP INTEGER,
		Cholesterol INTEGER, FastingBS INTEGER, RestingECG TEXT, MaxHR INTEGER,
		ExerciseAngina TEXT, Oldpeak REAL, ST_Slope TEXT, HeartDisease INTEGER
	);`

var record = models.PatientRecord{
	Age: 63, Sex: "M", ChestPainType: "ATA", RestingBP: 145, Cholesterol: 233,
	FastingBS: 1, RestingECG: "Normal", MaxHR: 150, ExerciseAngina: "N",
	Oldpeak: 2.3, STSlope: "Up",
}

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(rec models.PatientRecord) (models.HeartDisease, error) {
	args := m.Called(rec)
	return args.Get(0).(models.HeartDisease), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPatientCreated(ctx context.Context, patient models.StoredPatient) error {
	return m.Called(patient).Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

// seededDB creates a database file containing an empty patients table.
func seededDB(t *testing.T, withTable bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heart_disease.db")
	s, err := sqlite.NewSQLiteStore("file:" + path + "?mode=rwc")
	require.NoError(t, err)
	if withTable {
		_, err = s.DB.Exec(schema)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())
	return path
}

func serviceConfig(t *testing.T, modelPath, dsn string) string {
	return writeConfig(t, fmt.Sprintf(`
[server]
port = ":0"
[model]
path = %q
[database]
dsn = %q
`, modelPath, dsn))
}

func newTestService(t *testing.T, predictor Predictor, pub *MockPublisher) *Service {
	t.Helper()
	st, err := sqlite.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	_, err = st.DB.Exec(schema)
	require.NoError(t, err)

	svc := &Service{Config: &Config{}, Store: st, Model: predictor, Events: pub}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewService(t *testing.T) {
	t.Run("starts with model and store", func(t *testing.T) {
		svc, err := NewService(serviceConfig(t, shippedModel, seededDB(t, true)))
		require.NoError(t, err)
		defer svc.Close()

		p, err := svc.CreatePatient(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, models.NoHeartDisease, p.HeartDisease)
	})

	t.Run("missing model is fatal", func(t *testing.T) {
		_, err := NewService(serviceConfig(t, filepath.Join(t.TempDir(), "none.json"), seededDB(t, true)))
		assert.ErrorContains(t, err, "failed to load model")
	})

	t.Run("missing database file is fatal", func(t *testing.T) {
		_, err := NewService(serviceConfig(t, shippedModel, filepath.Join(t.TempDir(), "none.db")))
		assert.ErrorContains(t, err, "failed to init store")
	})

	t.Run("missing table is fatal", func(t *testing.T) {
		_, err := NewService(serviceConfig(t, shippedModel, seededDB(t, false)))
		assert.ErrorContains(t, err, "failed to check store schema")
	})

	t.Run("table without assigned ids is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heart_disease.db")
		s, err := sqlite.NewSQLiteStore("file:" + path + "?mode=rwc")
		require.NoError(t, err)
		_, err = s.DB.Exec(strings.Replace(schema, "id INTEGER PRIMARY KEY AUTOINCREMENT", "id INTEGER", 1))
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = NewService(serviceConfig(t, shippedModel, path))
		assert.ErrorContains(t, err, "patients.id")
	})
}

func TestCreatePatient(t *testing.T) {
	ctx := context.Background()

	t.Run("stores prediction and publishes", func(t *testing.T) {
		predictor := new(MockPredictor)
		predictor.On("Predict", record).Return(models.HeartDiseasePresent, nil)
		pub := new(MockPublisher)
		pub.On("PublishPatientCreated", mock.Anything).Return(nil)

		svc := newTestService(t, predictor, pub)
		p, err := svc.CreatePatient(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, models.HeartDiseasePresent, p.HeartDisease)
		assert.Equal(t, record, p.PatientRecord)

		pub.AssertCalled(t, "PublishPatientCreated", *p)
	})

	t.Run("prediction failure stores nothing", func(t *testing.T) {
		predictor := new(MockPredictor)
		predictor.On("Predict", record).Return(models.NoHeartDisease, errors.New("bad feature vector"))
		pub := new(MockPublisher)

		svc := newTestService(t, predictor, pub)
		_, err := svc.CreatePatient(ctx, record)
		require.Error(t, err)

		rows, err := svc.ListPatients(ctx, models.PatientFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
		pub.AssertNotCalled(t, "PublishPatientCreated", mock.Anything)
	})

	t.Run("publish failure keeps the row", func(t *testing.T) {
		predictor := new(MockPredictor)
		predictor.On("Predict", record).Return(models.NoHeartDisease, nil)
		pub := new(MockPublisher)
		pub.On("PublishPatientCreated", mock.Anything).Return(errors.New("redis down"))

		svc := newTestService(t, predictor, pub)
		p, err := svc.CreatePatient(ctx, record)
		require.NoError(t, err)

		rows, err := svc.ListPatients(ctx, models.PatientFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, p.ID, rows[0].ID)
	})
}
