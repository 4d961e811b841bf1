// Package complaints holds the complaint record model, its validation rules
// and its persistence.
package complaints

import "time"

// Complaint is one logged patient-service grievance.
//
// Date is a calendar day (YYYY-MM-DD). Manager is the area manager at the
// time the record was open; resolved records keep it for audit.
type Complaint struct {
	ID           string `json:"id" db:"id"`
	Date         string `json:"date" db:"date"`
	PatientName  string `json:"patient_name" db:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty" db:"patient_phone"`
	DoctorName   string `json:"doctor_name,omitempty" db:"doctor_name"`
	Specialty    string `json:"specialty,omitempty" db:"specialty"`
	Area         string `json:"area" db:"area"`
	Description  string `json:"description" db:"description"`

	Status       Status   `json:"status" db:"status"`
	Priority     Priority `json:"priority" db:"priority"`
	Satisfaction int      `json:"satisfaction" db:"satisfaction"`

	// Filled by the analysis collaborator when it answered.
	Sentiment         string `json:"sentiment,omitempty" db:"sentiment"`
	SuggestedResponse string `json:"suggested_response,omitempty" db:"suggested_response"`

	ManagementResponse string `json:"management_response,omitempty" db:"management_response"`
	ResolvedBy         string `json:"resolved_by,omitempty" db:"resolved_by"`
	Manager            string `json:"manager,omitempty" db:"manager"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusInProcess Status = "InProcess"
	StatusResolved  Status = "Resolved"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Resolution is the set of fields an update may change.
type Resolution struct {
	Status     Status `json:"status"`
	Response   string `json:"response"`
	ResolvedBy string `json:"resolved_by"`
}

// Range filters by Date, inclusive on both ends. Empty bounds are open.
type Range struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Contains reports whether day falls inside the range.
func (r Range) Contains(day string) bool {
	if r.From != "" && day < r.From {
		return false
	}
	if r.To != "" && day > r.To {
		return false
	}
	return true
}

const (
	// DateLayout is the wire and storage format of Complaint.Date.
	DateLayout = "2006-01-02"

	// DoctorPlaceholder is stored for areas that never involve a doctor.
	DoctorPlaceholder = "No aplica"

	defaultSatisfaction = 3
)

// nonClinicalAreas never require a doctor on the record.
var nonClinicalAreas = map[string]struct{}{
	"laboratorio":         {},
	"imagenología":        {},
	"imagenologia":        {},
	"farmacia":            {},
	"admisión":            {},
	"admision":            {},
	"caja":                {},
	"atención al usuario": {},
	"atencion al usuario": {},
}
