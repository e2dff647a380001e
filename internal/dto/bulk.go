package dto

import (
	"time"

	"github.com/campusops/unireg-api/internal/models"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

// BulkFailure pinpoints the step at which a bulk operation stopped.
type BulkFailure struct {
	Step  string           `json:"step"`
	Key   string           `json:"key,omitempty"`
	Error *appErrors.Error `json:"error"`
}

// SeedReport lists everything a bulk seed created, in creation order. When a
// step fails, Failed is set and the remaining steps of the call were never
// attempted; entities created before the failure stay committed.
type SeedReport struct {
	Courses       []models.Course       `json:"courses"`
	Students      []models.Student      `json:"students"`
	Registrations []models.Registration `json:"registrations"`
	Failed        *BulkFailure          `json:"failed,omitempty"`
}

// ClearReport lists what a bulk clear deleted per kind and, after a failure,
// how much of each kind remains. Deletes already committed are not rolled
// back; the caller is told the exact resulting state.
type ClearReport struct {
	DeletedRegistrations []string       `json:"deletedRegistrations"`
	DeletedStudents      []string       `json:"deletedStudents"`
	DeletedCourses       []string       `json:"deletedCourses"`
	Remaining            map[string]int `json:"remaining,omitempty"`
	Failed               *BulkFailure   `json:"failed,omitempty"`
}

// ExportPayload is the full-dataset export (JSON format).
type ExportPayload struct {
	Students      []models.Student            `json:"students"`
	Courses       []models.Course             `json:"courses"`
	Registrations []models.RegistrationDetail `json:"registrations"`
	Stats         TotalCounts                 `json:"stats"`
	ExportedAt    time.Time                   `json:"exportedAt"`
}
