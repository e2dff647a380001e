package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusops/unireg-api/internal/models"
	"github.com/campusops/unireg-api/internal/store"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

// Integrity checks, one per mutation kind. Each runs against the same
// transaction that will apply the mutation, returns nil when the mutation is
// acceptable and a typed error otherwise, and never writes anything itself.

// checkRegistrationCreatable verifies both references resolve and that no
// active registration already exists for the (student, course) pair.
func checkRegistrationCreatable(tx store.Tx, studentID, courseID string) error {
	if _, err := tx.GetStudent(studentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return coerce(err, "failed to load student")
	}
	if _, err := tx.GetCourse(courseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return coerce(err, "failed to load course")
	}
	if _, err := tx.ActiveRegistration(studentID, courseID); err == nil {
		return appErrors.Clone(appErrors.ErrDuplicateRegistration, "")
	} else if !errors.Is(err, store.ErrNotFound) {
		return coerce(err, "failed to check existing registration")
	}
	return nil
}

// checkStudentDeletable blocks deletion while any registration, regardless of
// status, still references the student. Conflicts reject rather than cascade;
// wiping dependents takes the explicit bulk clear operation.
func checkStudentDeletable(tx store.Tx, id string) error {
	regs, err := tx.RegistrationsByStudent(id)
	if err != nil {
		return coerce(err, "failed to load registrations")
	}
	if len(regs) > 0 {
		return appErrors.Clone(appErrors.ErrReferentialConflict,
			fmt.Sprintf("student is referenced by %d registration(s)", len(regs)))
	}
	return nil
}

// checkCourseDeletable is the course counterpart of checkStudentDeletable.
func checkCourseDeletable(tx store.Tx, id string) error {
	regs, err := tx.RegistrationsByCourse(id)
	if err != nil {
		return coerce(err, "failed to load registrations")
	}
	if len(regs) > 0 {
		return appErrors.Clone(appErrors.ErrReferentialConflict,
			fmt.Sprintf("course is referenced by %d registration(s)", len(regs)))
	}
	return nil
}

// checkStudentFields validates a student about to be stored. Checks run in a
// fixed order so error reporting is deterministic: business-key uniqueness
// first, then numeric ranges, then required-field presence. The first
// violation wins.
func checkStudentFields(tx store.Tx, s *models.Student) error {
	if s.StudentID != "" {
		if existing, err := tx.StudentByCode(s.StudentID); err == nil && existing.ID != s.ID {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "student code already in use")
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return coerce(err, "failed to check student code")
		}
	}
	if s.Email != "" {
		if existing, err := tx.StudentByEmail(s.Email); err == nil && existing.ID != s.ID {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "email already in use")
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return coerce(err, "failed to check email")
		}
	}
	if s.EnrollmentYear < minEnrollmentYear || s.EnrollmentYear > maxEnrollmentYear {
		return appErrors.InvalidField("enrollment_year",
			fmt.Sprintf("must be between %d and %d", minEnrollmentYear, maxEnrollmentYear))
	}
	if strings.TrimSpace(s.StudentID) == "" {
		return appErrors.InvalidField("student_id", "is required")
	}
	if strings.TrimSpace(s.FirstName) == "" {
		return appErrors.InvalidField("first_name", "is required")
	}
	if strings.TrimSpace(s.LastName) == "" {
		return appErrors.InvalidField("last_name", "is required")
	}
	if strings.TrimSpace(s.Email) == "" {
		return appErrors.InvalidField("email", "is required")
	}
	return nil
}

// checkCourseFields mirrors checkStudentFields for courses: code uniqueness,
// then credit-hour and capacity ranges, then required presence.
func checkCourseFields(tx store.Tx, c *models.Course) error {
	if c.Code != "" {
		if existing, err := tx.CourseByCode(c.Code); err == nil && existing.ID != c.ID {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "course code already in use")
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return coerce(err, "failed to check course code")
		}
	}
	if c.CreditHours < models.MinCreditHours || c.CreditHours > models.MaxCreditHours {
		return appErrors.InvalidField("credit_hours",
			fmt.Sprintf("must be between %d and %d", models.MinCreditHours, models.MaxCreditHours))
	}
	if c.MaxStudents < models.MinMaxStudents || c.MaxStudents > models.MaxMaxStudents {
		return appErrors.InvalidField("max_students",
			fmt.Sprintf("must be between %d and %d", models.MinMaxStudents, models.MaxMaxStudents))
	}
	if strings.TrimSpace(c.Code) == "" {
		return appErrors.InvalidField("code", "is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return appErrors.InvalidField("title", "is required")
	}
	return nil
}

// checkStatusTransition enforces the one-way status lattice. Writing the
// current status back is a no-op, not a transition.
func checkStatusTransition(from, to models.RegistrationStatus) error {
	if from == to {
		return nil
	}
	if from == models.RegistrationStatusActive && to.Valid() {
		return nil
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("cannot change status from %s to %s", from, to))
}

// Enrollment year bounds accepted by the intake form.
const (
	minEnrollmentYear = 2000
	maxEnrollmentYear = 2030
)

// coerce passes through typed errors, keeps context expiry visible as the
// timeout condition, and wraps everything else as internal.
func coerce(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
