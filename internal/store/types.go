package store

import (
	"errors"
	"math"
	"strconv"

	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

// patientRow is one result row keyed by column alias. Values stay untyped
// until conversion so that a row written outside the API with a null or a
// value of the wrong type is rejected on its own.
type patientRow map[string]interface{}

func intValue(v interface{}) (int64, string) {
	switch x := v.(type) {
	case nil:
		return 0, "must not be null"
	case int64:
		return x, ""
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= math.MaxInt32 {
			return int64(x), ""
		}
	case []byte:
		if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return n, ""
		}
	}
	return 0, "must be an integer"
}

func floatValue(v interface{}) (float64, string) {
	switch x := v.(type) {
	case nil:
		return 0, "must not be null"
	case float64:
		return x, ""
	case int64:
		return float64(x), ""
	case []byte:
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return f, ""
		}
	}
	return 0, "must be a number"
}

func strValue(v interface{}) (string, string) {
	switch x := v.(type) {
	case nil:
		return "", "must not be null"
	case string:
		return x, ""
	case []byte:
		return string(x), ""
	}
	return "", "must be a string"
}

// toStoredPatient converts a row field by field, collecting every null,
// type mismatch and constraint violation before failing.
func (r patientRow) toStoredPatient() (models.StoredPatient, error) {
	var errs []models.FieldError
	failed := make(map[string]bool)

	check := func(name, reason string) {
		if reason != "" {
			failed[name] = true
			errs = append(errs, models.FieldError{Field: name, Reason: reason})
		}
	}
	intCol := func(name string) int {
		n, reason := intValue(r[name])
		check(name, reason)
		return int(n)
	}
	strCol := func(name string) string {
		s, reason := strValue(r[name])
		check(name, reason)
		return s
	}

	id, reason := intValue(r["id"])
	check("id", reason)
	oldpeak, reason := floatValue(r["Oldpeak"])
	check("Oldpeak", reason)

	p := models.StoredPatient{
		ID: id,
		PatientRecord: models.PatientRecord{
			Age:            intCol("Age"),
			Sex:            strCol("Sex"),
			ChestPainType:  strCol("ChestPainType"),
			RestingBP:      intCol("RestingBP"),
			Cholesterol:    intCol("Cholesterol"),
			FastingBS:      intCol("FastingBS"),
			RestingECG:     strCol("RestingECG"),
			MaxHR:          intCol("MaxHR"),
			ExerciseAngina: strCol("ExerciseAngina"),
			Oldpeak:        oldpeak,
			STSlope:        strCol("ST_Slope"),
		},
		HeartDisease: models.HeartDisease(intCol("HeartDisease")),
	}

	if err := models.ValidateStoredPatient(p); err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return models.StoredPatient{}, err
		}
		for _, fe := range verr.Fields {
			if !failed[fe.Field] {
				errs = append(errs, fe)
			}
		}
	}

	if len(errs) > 0 {
		return models.StoredPatient{}, &models.ValidationError{Fields: errs}
	}
	return p, nil
}
