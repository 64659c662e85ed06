package app

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/events"
	"github.com/shrimpsizemoose/hdpredict/internal/metrics"
	"github.com/shrimpsizemoose/hdpredict/internal/models"
	"github.com/shrimpsizemoose/hdpredict/internal/predict"
	"github.com/shrimpsizemoose/hdpredict/internal/store"
)

const APIVersion = "1.0.0"

type Predictor interface {
	Predict(rec models.PatientRecord) (models.HeartDisease, error)
}

// Service is the application context shared by every handler.
type Service struct {
	Config *Config
	Store  store.PatientStore
	Model  Predictor
	Events events.Publisher
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	model, err := predict.Load(config.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	logger.Info.Printf("Loaded model %s %s from %s", model.Name, model.Version, config.Model.Path)

	st, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	if err := st.CheckSchema(context.Background()); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check store schema: %w", err)
	}

	pub, err := events.NewPublisher(config.Events.RedisURL, config.Events.Stream)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init events: %w", err)
	}

	return &Service{
		Config: config,
		Store:  st,
		Model:  model,
		Events: pub,
	}, nil
}

func (s *Service) Predict(rec models.PatientRecord) (models.HeartDisease, error) {
	hd, err := s.Model.Predict(rec)
	if err != nil {
		return models.NoHeartDisease, fmt.Errorf("failed to predict: %w", err)
	}
	return hd, nil
}

// CreatePatient scores rec and stores it together with the outcome. Nothing
// is stored when either step fails.
func (s *Service) CreatePatient(ctx context.Context, rec models.PatientRecord) (*models.StoredPatient, error) {
	hd, err := s.Predict(rec)
	if err != nil {
		return nil, err
	}

	patient := models.StoredPatient{PatientRecord: rec, HeartDisease: hd}
	if _, err := s.Store.CreatePatient(ctx, &patient); err != nil {
		return nil, err
	}
	metrics.PatientsCreatedTotal.Inc()

	if s.Events != nil {
		if err := s.Events.PublishPatientCreated(ctx, patient); err != nil {
			logger.Error.Printf("Failed to publish patient %d: %v", patient.ID, err)
			metrics.EventPublishFailuresTotal.Inc()
		}
	}

	return &patient, nil
}

func (s *Service) ListPatients(ctx context.Context, filter models.PatientFilter) ([]models.StoredPatient, error) {
	return s.Store.ListPatients(ctx, filter)
}

func (s *Service) Close() error {
	var errs []error

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
