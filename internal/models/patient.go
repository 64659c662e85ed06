package models

// HeartDisease is the binary outcome stored with every patient row.
type HeartDisease int

const (
	NoHeartDisease      HeartDisease = 0
	HeartDiseasePresent HeartDisease = 1
)

// PredictionLabel renders an outcome the way the API reports it.
func PredictionLabel(hd HeartDisease) string {
	if hd == HeartDiseasePresent {
		return "Heart Disease"
	}
	return "Normal"
}

type PatientRecord struct {
	Age            int     `db:"Age" json:"Age" validate:"gte=0,lte=120"`
	Sex            string  `db:"Sex" json:"Sex" validate:"oneof=M F"`
	ChestPainType  string  `db:"ChestPainType" json:"ChestPainType" validate:"oneof=TA ATA NAP ASY"`
	RestingBP      int     `db:"RestingBP" json:"RestingBP" validate:"gte=0,lte=300"`
	Cholesterol    int     `db:"Cholesterol" json:"Cholesterol" validate:"gte=0,lte=1000"`
	FastingBS      int     `db:"FastingBS" json:"FastingBS" validate:"oneof=0 1"`
	RestingECG     string  `db:"RestingECG" json:"RestingECG" validate:"oneof=Normal ST LVH"`
	MaxHR          int     `db:"MaxHR" json:"MaxHR" validate:"gte=60,lte=202"`
	ExerciseAngina string  `db:"ExerciseAngina" json:"ExerciseAngina" validate:"oneof=Y N"`
	Oldpeak        float64 `db:"Oldpeak" json:"Oldpeak" validate:"gte=-3,lte=10"`
	STSlope        string  `db:"ST_Slope" json:"ST_Slope" validate:"oneof=Up Flat Down"`
}

// StoredPatient is a PatientRecord as persisted, with the store-assigned id
// and the outcome recorded at insertion time.
type StoredPatient struct {
	ID int64 `db:"id" json:"id"`
	PatientRecord
	HeartDisease HeartDisease `db:"HeartDisease" json:"HeartDisease" validate:"oneof=0 1"`
}

// recordFields lists the PatientRecord fields in their canonical order.
var recordFields = []string{
	"Age",
	"Sex",
	"ChestPainType",
	"RestingBP",
	"Cholesterol",
	"FastingBS",
	"RestingECG",
	"MaxHR",
	"ExerciseAngina",
	"Oldpeak",
	"ST_Slope",
}

// RecordFields returns the PatientRecord field names in canonical order.
func RecordFields() []string {
	out := make([]string, len(recordFields))
	copy(out, recordFields)
	return out
}
