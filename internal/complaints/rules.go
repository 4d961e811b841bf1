package complaints

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrNotFound = errors.New("complaints: not found")

// ValidationError blocks a submission before it reaches any store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsClinicalArea reports whether complaints in area must name a doctor.
func IsClinicalArea(area string) bool {
	_, nonClinical := nonClinicalAreas[strings.ToLower(strings.TrimSpace(area))]
	return !nonClinical
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProcess, StatusResolved:
		return true
	}
	return false
}

// IsTerminal reports whether s is Resolved.
func IsTerminal(s Status) bool { return s == StatusResolved }

// EligibleForReassignment reports whether a record in status s follows its
// area's manager. Resolved records keep their original attribution.
func EligibleForReassignment(s Status) bool {
	return s == StatusPending || s == StatusInProcess
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority accepts the canonical names case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Normalize validates a draft and fills defaults. It returns a new value.
func Normalize(d Complaint, now time.Time) (Complaint, error) {
	c := d
	c.ID = strings.TrimSpace(c.ID)
	c.Date = strings.TrimSpace(c.Date)
	c.PatientName = strings.TrimSpace(c.PatientName)
	c.PatientPhone = strings.TrimSpace(c.PatientPhone)
	c.DoctorName = strings.TrimSpace(c.DoctorName)
	c.Specialty = strings.TrimSpace(c.Specialty)
	c.Area = strings.TrimSpace(c.Area)
	c.Description = strings.TrimSpace(c.Description)

	if c.Date == "" {
		c.Date = now.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, c.Date); err != nil {
		return Complaint{}, invalid("date", "expected YYYY-MM-DD")
	}
	if c.PatientName == "" {
		return Complaint{}, invalid("patient_name", "required")
	}
	if c.Area == "" {
		return Complaint{}, invalid("area", "required")
	}
	if c.Description == "" {
		return Complaint{}, invalid("description", "required")
	}
	if c.DoctorName == "" {
		if IsClinicalArea(c.Area) {
			return Complaint{}, invalid("doctor_name", "required for clinical area "+c.Area)
		}
		c.DoctorName = DoctorPlaceholder
	}

	if c.Status == "" {
		c.Status = StatusPending
	} else if !c.Status.Valid() {
		return Complaint{}, invalid("status", fmt.Sprintf("unknown status %q", c.Status))
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	} else if !c.Priority.Valid() {
		return Complaint{}, invalid("priority", fmt.Sprintf("unknown priority %q", c.Priority))
	}
	if c.Satisfaction == 0 {
		c.Satisfaction = defaultSatisfaction
	} else if c.Satisfaction < 1 || c.Satisfaction > 5 {
		return Complaint{}, invalid("satisfaction", "must be between 1 and 5")
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = now.UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return c, nil
}

// ValidateRange checks both bounds are dates and ordered.
func ValidateRange(r Range) error {
	for field, v := range map[string]string{"from": r.From, "to": r.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, v); err != nil {
			return invalid(field, "expected YYYY-MM-DD")
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return invalid("range", "from is after to")
	}
	return nil
}

// ApplyResolution merges r into c and returns the new value; c is untouched.
// UpdatedAt only moves when a field actually changed, so applying the same
// resolution twice yields equal records.
func ApplyResolution(c Complaint, r Resolution, now time.Time) (Complaint, error) {
	if !r.Status.Valid() {
		return Complaint{}, invalid("status", fmt.Sprintf("unknown status %q", r.Status))
	}
	out := c
	out.Status = r.Status
	out.ManagementResponse = strings.TrimSpace(r.Response)
	out.ResolvedBy = strings.TrimSpace(r.ResolvedBy)
	if out.Status != c.Status || out.ManagementResponse != c.ManagementResponse || out.ResolvedBy != c.ResolvedBy {
		out.UpdatedAt = now.UTC()
	}
	return out, nil
}

// SortNewestFirst orders by Date then CreatedAt, newest first.
func SortNewestFirst(list []Complaint) {
	sort.SliceStable(list, func(i, j int) bool { return newer(list[i], list[j]) })
}

func newer(a, b Complaint) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	return a.CreatedAt.After(b.CreatedAt)
}
