package dto

import (
	"time"

	"github.com/campusops/unireg-api/internal/models"
)

// TotalCounts carries the raw entity counts.
type TotalCounts struct {
	Students      int `json:"students"`
	Courses       int `json:"courses"`
	Registrations int `json:"registrations"`
}

// CourseRegistrationCount ranks a course by how many registrations reference
// it, any status.
type CourseRegistrationCount struct {
	CourseID      string `json:"courseId"`
	Code          string `json:"code"`
	Title         string `json:"title"`
	Registrations int    `json:"registrations"`
}

// StatsSnapshot is the aggregate dashboard payload, recomputed from live
// store data on every request.
type StatsSnapshot struct {
	Totals              TotalCounts                       `json:"totals"`
	AvailableCourses    []models.Course                   `json:"availableCourses"`
	CapacityUtilization float64                           `json:"capacityUtilization"`
	TopCourses          []CourseRegistrationCount         `json:"topCourses"`
	StatusBreakdown     map[models.RegistrationStatus]int `json:"statusBreakdown"`
	GeneratedAt         time.Time                         `json:"generatedAt"`
}
