package models

import "time"

// RegistrationStatus represents the lifecycle of a registration.
type RegistrationStatus string

// Possible registration statuses. Transitions are one-way: an ACTIVE
// registration may become COMPLETED or WITHDRAWN, nothing leaves a terminal
// status.
const (
	RegistrationStatusActive    RegistrationStatus = "ACTIVE"
	RegistrationStatusCompleted RegistrationStatus = "COMPLETED"
	RegistrationStatusWithdrawn RegistrationStatus = "WITHDRAWN"
)

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusActive, RegistrationStatusCompleted, RegistrationStatusWithdrawn:
		return true
	}
	return false
}

// Registration links exactly one student to exactly one course. It holds
// non-owning references: the student and course live independently and a
// registration never outlives either of them.
type Registration struct {
	ID        string             `db:"id" json:"id"`
	StudentID string             `db:"student_id" json:"student_id"`
	CourseID  string             `db:"course_id" json:"course_id"`
	Status    RegistrationStatus `db:"status" json:"status"`
	Result    *string            `db:"result" json:"result,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// RegistrationDetail enriches Registration with student and course context
// for list views and exports.
type RegistrationDetail struct {
	Registration
	StudentCode string `json:"student_code"`
	StudentName string `json:"student_name"`
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
}
