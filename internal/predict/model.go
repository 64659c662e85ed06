// Package predict holds the heart disease classifier served by the API.
//
// The classifier is a logistic regression over standardized numeric
// features and one-hot encoded categorical features, serialized as JSON.
package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

var (
	numericFeatures     = []string{"Age", "RestingBP", "Cholesterol", "FastingBS", "MaxHR", "Oldpeak"}
	categoricalFeatures = []string{"Sex", "ChestPainType", "RestingECG", "ExerciseAngina", "ST_Slope"}
)

type NumericFeature struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
	Coef  float64 `json:"coef"`
}

// Model is safe for concurrent use; it is never mutated after Load.
type Model struct {
	Name        string                        `json:"name"`
	Version     string                        `json:"version"`
	Intercept   float64                       `json:"intercept"`
	Threshold   float64                       `json:"threshold"`
	Numeric     map[string]NumericFeature     `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

// Load reads a model artifact and checks that it covers every feature of a
// PatientRecord.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model artifact: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding model artifact %s: %w", path, err)
	}

	if err := m.check(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	return &m, nil
}

func (m *Model) check() error {
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold %v is outside (0, 1)", m.Threshold)
	}
	for _, name := range numericFeatures {
		f, ok := m.Numeric[name]
		if !ok {
			return fmt.Errorf("numeric feature %s is missing", name)
		}
		if f.Scale <= 0 {
			return fmt.Errorf("numeric feature %s has non-positive scale %v", name, f.Scale)
		}
	}
	for _, name := range categoricalFeatures {
		if len(m.Categorical[name]) == 0 {
			return fmt.Errorf("categorical feature %s is missing", name)
		}
	}
	return nil
}

// Probability returns the model score for rec in [0, 1].
func (m *Model) Probability(rec models.PatientRecord) (float64, error) {
	numeric := map[string]float64{
		"Age":         float64(rec.Age),
		"RestingBP":   float64(rec.RestingBP),
		"Cholesterol": float64(rec.Cholesterol),
		"FastingBS":   float64(rec.FastingBS),
		"MaxHR":       float64(rec.MaxHR),
		"Oldpeak":     rec.Oldpeak,
	}
	categorical := map[string]string{
		"Sex":            rec.Sex,
		"ChestPainType":  rec.ChestPainType,
		"RestingECG":     rec.RestingECG,
		"ExerciseAngina": rec.ExerciseAngina,
		"ST_Slope":       rec.STSlope,
	}

	z := m.Intercept
	for _, name := range numericFeatures {
		f := m.Numeric[name]
		z += f.Coef * (numeric[name] - f.Mean) / f.Scale
	}
	for _, name := range categoricalFeatures {
		coef, ok := m.Categorical[name][categorical[name]]
		if !ok {
			return 0, fmt.Errorf("model %s has no level %q for %s", m.Name, categorical[name], name)
		}
		z += coef
	}

	return 1 / (1 + math.Exp(-z)), nil
}

// Predict maps rec to a binary outcome.
func (m *Model) Predict(rec models.PatientRecord) (models.HeartDisease, error) {
	p, err := m.Probability(rec)
	if err != nil {
		return models.NoHeartDisease, err
	}
	if p >= m.Threshold {
		return models.HeartDiseasePresent, nil
	}
	return models.NoHeartDisease, nil
}
