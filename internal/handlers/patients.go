package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/app"
	"github.com/shrimpsizemoose/hdpredict/internal/metrics"
	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

type PatientHandler struct {
	service *app.Service
}

func NewPatientHandler(service *app.Service) *PatientHandler {
	return &PatientHandler{
		service: service,
	}
}

// NewRouter wires every endpoint of the API behind the logging middleware.
func NewRouter(service *app.Service) http.Handler {
	h := NewPatientHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", h.HandleStatus)
	mux.HandleFunc("POST /predict", h.HandlePredict)
	mux.HandleFunc("GET /patients", h.HandleListPatients)
	mux.HandleFunc("POST /patients", h.HandleCreatePatient)
	mux.Handle("GET /metrics", promhttp.Handler())

	return instrument(mux)
}

type predictResponse struct {
	Patient         models.PatientRecord `json:"patient"`
	PredictionLabel string               `json:"prediction_label"`
	Prediction      models.HeartDisease  `json:"prediction"`
}

type createResponse struct {
	Message string                `json:"message"`
	ID      int64                 `json:"id"`
	Patient *models.StoredPatient `json:"patient"`
}

func (h *PatientHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": app.APIVersion,
	})
}

func (h *PatientHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	hd, err := h.service.Predict(rec)
	if err != nil {
		logger.Error.Printf("Prediction failed: %v", err)
		writeError(w, err)
		return
	}
	metrics.PredictionsTotal.WithLabelValues("predict", strconv.Itoa(int(hd))).Inc()

	writeJSON(w, http.StatusOK, predictResponse{
		Patient:         rec,
		PredictionLabel: models.PredictionLabel(hd),
		Prediction:      hd,
	})
}

func (h *PatientHandler) HandleListPatients(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParsePatientFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	patients, err := h.service.ListPatients(r.Context(), filter)
	if err != nil {
		logger.Error.Printf("Failed to list patients: %v", err)
		writeError(w, err)
		return
	}
	if patients == nil {
		patients = []models.StoredPatient{}
	}

	writeJSON(w, http.StatusOK, patients)
}

func (h *PatientHandler) HandleCreatePatient(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	patient, err := h.service.CreatePatient(r.Context(), rec)
	if err != nil {
		logger.Error.Printf("Error inserting patient: %v", err)
		writeError(w, err)
		return
	}
	metrics.PredictionsTotal.WithLabelValues("create", strconv.Itoa(int(patient.HeartDisease))).Inc()

	writeJSON(w, http.StatusCreated, createResponse{
		Message: "Patient added successfully",
		ID:      patient.ID,
		Patient: patient,
	})
}

// decodeRecord reads a PatientRecord body, writing the error response itself
// when the body is unusable.
func decodeRecord(w http.ResponseWriter, r *http.Request) (models.PatientRecord, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "Request body too large"})
			return models.PatientRecord{}, false
		}
		logger.Error.Printf("Failed to read request body: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Failed to read request body"})
		return models.PatientRecord{}, false
	}
	logger.Debug.Printf("Received request body: %s", string(body))

	rec, err := models.DecodePatientRecord(body)
	if err != nil {
		writeError(w, err)
		return models.PatientRecord{}, false
	}
	return rec, true
}
