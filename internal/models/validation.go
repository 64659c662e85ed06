package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON name so errors read the same
// as the request that caused them.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every offending field of a request body, query
// string or stored row.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the offending fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// DecodePatientRecord decodes a closed-schema PatientRecord from a JSON
// object. All problems are collected into a single *ValidationError.
func DecodePatientRecord(body []byte) (PatientRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return PatientRecord{}, &ValidationError{Fields: []FieldError{{
			Field:  "body",
			Reason: "must be a JSON object: " + err.Error(),
		}}}
	}

	var rec PatientRecord
	targets := map[string]interface{}{
		"Age":            &rec.Age,
		"Sex":            &rec.Sex,
		"ChestPainType":  &rec.ChestPainType,
		"RestingBP":      &rec.RestingBP,
		"Cholesterol":    &rec.Cholesterol,
		"FastingBS":      &rec.FastingBS,
		"RestingECG":     &rec.RestingECG,
		"MaxHR":          &rec.MaxHR,
		"ExerciseAngina": &rec.ExerciseAngina,
		"Oldpeak":        &rec.Oldpeak,
		"ST_Slope":       &rec.STSlope,
	}

	var errs []FieldError
	failed := make(map[string]bool)

	for _, name := range recordFields {
		value, ok := raw[name]
		if !ok {
			errs = append(errs, FieldError{Field: name, Reason: "field required"})
			failed[name] = true
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			errs = append(errs, FieldError{Field: name, Reason: "must not be null"})
			failed[name] = true
			continue
		}
		if err := decodeField(value, targets[name]); err != nil {
			errs = append(errs, FieldError{Field: name, Reason: typeReason(targets[name])})
			failed[name] = true
		}
	}

	for name := range raw {
		if _, known := targets[name]; !known {
			errs = append(errs, FieldError{Field: name, Reason: "extra fields not permitted"})
		}
	}

	rangeErrs, err := fieldErrors(validate.Struct(rec))
	if err != nil {
		return PatientRecord{}, err
	}
	for _, fe := range rangeErrs {
		if !failed[fe.Field] {
			errs = append(errs, fe)
		}
	}

	if len(errs) > 0 {
		sortFieldErrors(errs)
		return PatientRecord{}, &ValidationError{Fields: errs}
	}
	return rec, nil
}

// ValidatePatientRecord checks ranges and enumerations of a typed record.
func ValidatePatientRecord(rec PatientRecord) error {
	return structError(rec)
}

// ValidateStoredPatient checks a stored row, outcome included.
func ValidateStoredPatient(p StoredPatient) error {
	return structError(p)
}

func structError(v interface{}) error {
	errs, err := fieldErrors(validate.Struct(v))
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		sortFieldErrors(errs)
		return &ValidationError{Fields: errs}
	}
	return nil
}

func fieldErrors(err error) ([]FieldError, error) {
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("failed to validate: %w", err)
	}

	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: e.Field(), Reason: reasonFor(e.Tag(), e.Param())})
	}
	return out, nil
}

func reasonFor(tag, param string) string {
	switch tag {
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "is invalid"
	}
}

// decodeField unmarshals value into target. Integer fields also take a
// number with no fractional part, such as 63.0.
func decodeField(value json.RawMessage, target interface{}) error {
	err := json.Unmarshal(value, target)
	n, isInt := target.(*int)
	if err == nil || !isInt {
		return err
	}

	var f float64
	if json.Unmarshal(value, &f) != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return err
	}
	*n = int(f)
	return nil
}

func typeReason(target interface{}) string {
	switch target.(type) {
	case *int:
		return "must be an integer"
	case *float64:
		return "must be a number"
	case *string:
		return "must be a string"
	default:
		return "has an invalid type"
	}
}

// sortFieldErrors orders errors by canonical field order, unknown fields last.
func sortFieldErrors(errs []FieldError) {
	rank := func(field string) int {
		for i, name := range recordFields {
			if name == field {
				return i
			}
		}
		return len(recordFields)
	}
	sort.SliceStable(errs, func(i, j int) bool {
		ri, rj := rank(errs[i].Field), rank(errs[j].Field)
		if ri != rj {
			return ri < rj
		}
		if ri == len(recordFields) {
			return errs[i].Field < errs[j].Field
		}
		return false
	})
}
