// Package areas keeps the area→manager mapping and cascades reassignments
// onto open complaint records.
package areas

import "time"

// Assignment maps one hospital area to its current manager.
// Area is the unique key.
type Assignment struct {
	Area      string    `json:"area" db:"area"`
	Manager   string    `json:"manager" db:"manager"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Result describes a committed reassignment.
type Result struct {
	Area    string `json:"area"`
	Manager string `json:"manager"`
	// Affected counts the open complaint records that now carry Manager.
	Affected int64 `json:"affected"`
}
