package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatientFilter(t *testing.T) {
	t.Run("no parameters", func(t *testing.T) {
		f, err := ParsePatientFilter(url.Values{})
		require.NoError(t, err)
		assert.True(t, f.Empty())
	})

	t.Run("all parameters", func(t *testing.T) {
		q, err := url.ParseQuery("age_min=40&age_max=60&gender=F&heart_disease=1")
		require.NoError(t, err)

		f, err := ParsePatientFilter(q)
		require.NoError(t, err)
		require.NotNil(t, f.AgeMin)
		require.NotNil(t, f.AgeMax)
		require.NotNil(t, f.Gender)
		require.NotNil(t, f.HeartDisease)
		assert.Equal(t, 40, *f.AgeMin)
		assert.Equal(t, 60, *f.AgeMax)
		assert.Equal(t, "F", *f.Gender)
		assert.Equal(t, HeartDiseasePresent, *f.HeartDisease)
	})

	t.Run("heart_disease zero is a filter", func(t *testing.T) {
		f, err := ParsePatientFilter(url.Values{"heart_disease": {"0"}})
		require.NoError(t, err)
		require.NotNil(t, f.HeartDisease)
		assert.Equal(t, NoHeartDisease, *f.HeartDisease)
		assert.False(t, f.Empty())
	})

	t.Run("unknown parameters ignored", func(t *testing.T) {
		f, err := ParsePatientFilter(url.Values{"page": {"2"}})
		require.NoError(t, err)
		assert.True(t, f.Empty())
	})

	t.Run("inverted range accepted", func(t *testing.T) {
		f, err := ParsePatientFilter(url.Values{"age_min": {"70"}, "age_max": {"30"}})
		require.NoError(t, err)
		assert.Equal(t, 70, *f.AgeMin)
		assert.Equal(t, 30, *f.AgeMax)
	})

	invalid := []struct {
		name  string
		query string
		field string
	}{
		{"non-integer age_min", "age_min=old", "age_min"},
		{"empty age_max", "age_max=", "age_max"},
		{"gender outside enum", "gender=X", "gender"},
		{"lowercase gender", "gender=m", "gender"},
		{"heart_disease outside enum", "heart_disease=2", "heart_disease"},
		{"heart_disease not a number", "heart_disease=yes", "heart_disease"},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			_, err = ParsePatientFilter(q)
			verr := requireValidationError(t, err)
			assert.True(t, verr.Has(tc.field), "expected %s in %v", tc.field, verr.Fields)
		})
	}

	t.Run("several invalid parameters", func(t *testing.T) {
		q, err := url.ParseQuery("age_min=x&gender=Q")
		require.NoError(t, err)

		_, err = ParsePatientFilter(q)
		verr := requireValidationError(t, err)
		assert.True(t, verr.Has("age_min"))
		assert.True(t, verr.Has("gender"))
	})
}
