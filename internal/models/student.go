package models

import "time"

// Student represents a learner known to the registration system. StudentID is
// the externally visible business key (e.g. STU001); it is unique and never
// changes after creation. ID is the system-assigned identifier.
type Student struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	Major          string    `db:"major" json:"major,omitempty"`
	EnrollmentYear int       `db:"enrollment_year" json:"enrollment_year"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
