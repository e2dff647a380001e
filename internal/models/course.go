package models

import "time"

// Bounds enforced on course numeric fields.
const (
	MinCreditHours = 1
	MaxCreditHours = 6
	MinMaxStudents = 1
	MaxMaxStudents = 100
)

// Course represents an offered course. Code is the unique, immutable business
// key (e.g. CS101).
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	MaxStudents int       `db:"max_students" json:"max_students"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
