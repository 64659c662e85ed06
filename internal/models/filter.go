package models

import (
	"net/url"
	"strconv"
)

// PatientFilter holds the optional predicates of a patient listing. A nil
// field means the predicate is absent.
type PatientFilter struct {
	AgeMin       *int          `json:"age_min"`
	AgeMax       *int          `json:"age_max"`
	Gender       *string       `json:"gender" validate:"omitempty,oneof=M F"`
	HeartDisease *HeartDisease `json:"heart_disease" validate:"omitempty,oneof=0 1"`
}

// Empty reports whether no predicate is set.
func (f PatientFilter) Empty() bool {
	return f.AgeMin == nil && f.AgeMax == nil && f.Gender == nil && f.HeartDisease == nil
}

// ParsePatientFilter reads age_min, age_max, gender and heart_disease from
// a query string. Other parameters are ignored.
func ParsePatientFilter(q url.Values) (PatientFilter, error) {
	var (
		f    PatientFilter
		errs []FieldError
	)

	intParam := func(name string) *int {
		if !q.Has(name) {
			return nil
		}
		n, err := strconv.Atoi(q.Get(name))
		if err != nil {
			errs = append(errs, FieldError{Field: name, Reason: "must be an integer"})
			return nil
		}
		return &n
	}

	f.AgeMin = intParam("age_min")
	f.AgeMax = intParam("age_max")

	if q.Has("gender") {
		g := q.Get("gender")
		f.Gender = &g
	}

	if hd := intParam("heart_disease"); hd != nil {
		flag := HeartDisease(*hd)
		f.HeartDisease = &flag
	}

	rangeErrs, err := fieldErrors(validate.Struct(f))
	if err != nil {
		return PatientFilter{}, err
	}
	errs = append(errs, rangeErrs...)

	if len(errs) > 0 {
		return PatientFilter{}, &ValidationError{Fields: errs}
	}
	return f, nil
}
