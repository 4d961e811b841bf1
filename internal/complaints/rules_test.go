package complaints

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func validDraft() Complaint {
	return Complaint{
		PatientName: "Ana Pérez",
		Area:        "Cardiología",
		DoctorName:  "Dr. Rojas",
		Description: "Esperó tres horas sin atención",
	}
}

func TestNormalize_NonClinicalAreaFillsDoctorPlaceholder(t *testing.T) {
	d := validDraft()
	d.Area = "Laboratorio"
	d.DoctorName = "  "

	c, err := Normalize(d, fixedNow)
	if err != nil {
		t.Fatalf("expected submission to pass, got %v", err)
	}
	if c.DoctorName != DoctorPlaceholder {
		t.Fatalf("expected doctor placeholder, got %q", c.DoctorName)
	}
}

func TestNormalize_ClinicalAreaRequiresDoctor(t *testing.T) {
	d := validDraft()
	d.DoctorName = ""

	_, err := Normalize(d, fixedNow)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if v := err.(*ValidationError); v.Field != "doctor_name" {
		t.Fatalf("expected doctor_name field, got %q", v.Field)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	c, err := Normalize(validDraft(), fixedNow)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Date != "2026-03-02" {
		t.Fatalf("expected today's date, got %q", c.Date)
	}
	if c.Status != StatusPending || c.Priority != PriorityMedium || c.Satisfaction != 3 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !c.CreatedAt.Equal(fixedNow) || !c.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("expected timestamps set to now")
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Complaint)
		field string
	}{
		{"missing patient", func(c *Complaint) { c.PatientName = "" }, "patient_name"},
		{"missing area", func(c *Complaint) { c.Area = "" }, "area"},
		{"missing description", func(c *Complaint) { c.Description = " " }, "description"},
		{"bad date", func(c *Complaint) { c.Date = "02/03/2026" }, "date"},
		{"bad status", func(c *Complaint) { c.Status = "Closed" }, "status"},
		{"bad priority", func(c *Complaint) { c.Priority = "Urgent" }, "priority"},
		{"satisfaction too high", func(c *Complaint) { c.Satisfaction = 6 }, "satisfaction"},
		{"satisfaction negative", func(c *Complaint) { c.Satisfaction = -1 }, "satisfaction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			_, err := Normalize(d, fixedNow)
			v, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if v.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, v.Field)
			}
		})
	}
}

func TestIsClinicalArea(t *testing.T) {
	tests := map[string]bool{
		"Cardiología":   true,
		"Emergencia":    true,
		"Laboratorio":   false,
		" laboratorio ": false,
		"Farmacia":      false,
		"Caja":          false,
	}
	for area, want := range tests {
		if got := IsClinicalArea(area); got != want {
			t.Fatalf("IsClinicalArea(%q) = %v, want %v", area, got, want)
		}
	}
}

func TestEligibleForReassignment(t *testing.T) {
	if !EligibleForReassignment(StatusPending) || !EligibleForReassignment(StatusInProcess) {
		t.Fatalf("open statuses must be eligible")
	}
	if EligibleForReassignment(StatusResolved) {
		t.Fatalf("resolved records keep their manager")
	}
}

func TestApplyResolution_IsImmutableAndIdempotent(t *testing.T) {
	orig, err := Normalize(validDraft(), fixedNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	res := Resolution{Status: StatusResolved, Response: "Se habló con el paciente", ResolvedBy: "op-1"}

	first, err := ApplyResolution(orig, res, fixedNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if orig.Status != StatusPending {
		t.Fatalf("original record must not change")
	}
	second, err := ApplyResolution(first, res, fixedNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("apply twice: %v", err)
	}
	if first != second {
		t.Fatalf("expected equal records:\n%+v\n%+v", first, second)
	}
	if !first.UpdatedAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("expected UpdatedAt from the first change, got %v", first.UpdatedAt)
	}
}

func TestApplyResolution_RejectsUnknownStatus(t *testing.T) {
	if _, err := ApplyResolution(Complaint{}, Resolution{Status: "Done"}, fixedNow); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRange(t *testing.T) {
	if err := ValidateRange(Range{}); err != nil {
		t.Fatalf("open range is valid: %v", err)
	}
	if err := ValidateRange(Range{From: "2026-01-01", To: "2026-01-31"}); err != nil {
		t.Fatalf("ordered range is valid: %v", err)
	}
	if err := ValidateRange(Range{From: "2026-02-01", To: "2026-01-31"}); err == nil {
		t.Fatalf("expected error for reversed range")
	}
	if err := ValidateRange(Range{From: "yesterday"}); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestRangeContainsIsInclusive(t *testing.T) {
	r := Range{From: "2026-01-01", To: "2026-01-31"}
	for _, day := range []string{"2026-01-01", "2026-01-15", "2026-01-31"} {
		if !r.Contains(day) {
			t.Fatalf("expected %s inside", day)
		}
	}
	if r.Contains("2026-02-01") || r.Contains("2025-12-31") {
		t.Fatalf("expected outside days excluded")
	}
}

func TestSortNewestFirst(t *testing.T) {
	list := []Complaint{
		{ID: "a", Date: "2026-01-01"},
		{ID: "c", Date: "2026-01-03"},
		{ID: "b", Date: "2026-01-02"},
	}
	SortNewestFirst(list)
	if list[0].ID != "c" || list[1].ID != "b" || list[2].ID != "a" {
		t.Fatalf("unexpected order: %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
}
