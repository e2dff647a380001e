// Package store holds the authoritative collections of students, courses and
// registrations. It is the single source of truth: a committed write is
// visible to every subsequent read, readers never observe a half-applied
// operation, and list order is insertion order, stable across reads.
package store

import (
	"context"
	"errors"

	"github.com/campusops/unireg-api/internal/models"
)

// ErrNotFound is returned by lookups whose target id or business key does not
// resolve to a stored entity.
var ErrNotFound = errors.New("store: entity not found")

// Tx is the access surface handed to View and Update closures. Entities
// returned by lookups are copies; mutating them has no effect until they are
// put back.
type Tx interface {
	GetStudent(id string) (*models.Student, error)
	StudentByCode(code string) (*models.Student, error)
	StudentByEmail(email string) (*models.Student, error)
	ListStudents() ([]models.Student, error)
	PutStudent(s *models.Student) error
	RemoveStudent(id string) error

	GetCourse(id string) (*models.Course, error)
	CourseByCode(code string) (*models.Course, error)
	ListCourses() ([]models.Course, error)
	PutCourse(c *models.Course) error
	RemoveCourse(id string) error

	GetRegistration(id string) (*models.Registration, error)
	ListRegistrations() ([]models.Registration, error)
	RegistrationsByStudent(studentID string) ([]models.Registration, error)
	RegistrationsByCourse(courseID string) ([]models.Registration, error)
	ActiveRegistration(studentID, courseID string) (*models.Registration, error)
	PutRegistration(r *models.Registration) error
	RemoveRegistration(id string) error
}

// Store serializes mutations: Update closures run one at a time, so a
// check-then-act sequence inside one closure can never race another writer.
// View closures may run concurrently with each other. Both honor the caller's
// context; an expired deadline surfaces before any write becomes visible.
type Store interface {
	// View runs fn against a consistent read snapshot.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn with exclusive write access. If fn returns an error the
	// store is left exactly as it was before the call.
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}
