package store

import (
	"strings"

	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

// Column references stay unquoted so a missing column is an error on SQLite
// too; the quoted aliases keep the mixed-case names that rows are scanned by
// when Postgres folds the table's columns to lower case.
const patientColumns = `id, Age AS "Age", Sex AS "Sex", ChestPainType AS "ChestPainType", ` +
	`RestingBP AS "RestingBP", Cholesterol AS "Cholesterol", FastingBS AS "FastingBS", ` +
	`RestingECG AS "RestingECG", MaxHR AS "MaxHR", ExerciseAngina AS "ExerciseAngina", ` +
	`Oldpeak AS "Oldpeak", ST_Slope AS "ST_Slope", HeartDisease AS "HeartDisease"`

const insertPatientQuery = `
	INSERT INTO patients (
		Age, Sex, ChestPainType, RestingBP, Cholesterol,
		FastingBS, RestingECG, MaxHR, ExerciseAngina,
		Oldpeak, ST_Slope, HeartDisease
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// BuildPatientQuery returns a selection over patients that is the AND of
// every predicate present in f, with ? placeholders for all filter values.
func BuildPatientQuery(f models.PatientFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if f.AgeMin != nil {
		conds = append(conds, `Age >= ?`)
		args = append(args, *f.AgeMin)
	}
	if f.AgeMax != nil {
		conds = append(conds, `Age <= ?`)
		args = append(args, *f.AgeMax)
	}
	if f.Gender != nil {
		conds = append(conds, `Sex = ?`)
		args = append(args, *f.Gender)
	}
	if f.HeartDisease != nil {
		conds = append(conds, `HeartDisease = ?`)
		args = append(args, int(*f.HeartDisease))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(patientColumns)
	b.WriteString(" FROM patients")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY id ASC")

	return b.String(), args
}
