package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/unireg-api/internal/models"
	"github.com/campusops/unireg-api/internal/store"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	StudentID      string `json:"student_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Major          string `json:"major"`
	EnrollmentYear int    `json:"enrollment_year"`
}

// UpdateStudentRequest holds payload for updating students. The student code
// is accepted but must match the stored one; the business key is immutable.
type UpdateStudentRequest struct {
	StudentID      string `json:"student_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Major          string `json:"major"`
	EnrollmentYear int    `json:"enrollment_year"`
}

// StudentService coordinates student mutations and reads. Every mutation is
// validated and applied inside a single store update, so callers observe it
// as a whole or not at all.
type StudentService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(st store.Store, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: st, logger: logger, now: time.Now}
}

// List returns all students in insertion order.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		students, err = tx.ListStudents()
		return err
	})
	if err != nil {
		return nil, coerce(err, "failed to list students")
	}
	return students, nil
}

// Get returns a student by system id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	var student *models.Student
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		student, err = tx.GetStudent(id)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, coerce(err, "failed to load student")
	}
	return student, nil
}

// GetByCode resolves a student by its business key (exact, case-sensitive).
func (s *StudentService) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	var student *models.Student
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		student, err = tx.StudentByCode(code)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, coerce(err, "failed to load student")
	}
	return student, nil
}

// Search returns students whose first or last name contains the query,
// case-insensitively, preserving store order.
func (s *StudentService) Search(ctx context.Context, name string) ([]models.Student, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return all, nil
	}
	matched := make([]models.Student, 0, len(all))
	for _, st := range all {
		if strings.Contains(strings.ToLower(st.FirstName), needle) ||
			strings.Contains(strings.ToLower(st.LastName), needle) {
			matched = append(matched, st)
		}
	}
	return matched, nil
}

// ByMajor returns students enrolled in the given major (case-insensitive).
func (s *StudentService) ByMajor(ctx context.Context, major string) ([]models.Student, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Student, 0, len(all))
	for _, st := range all {
		if strings.EqualFold(st.Major, major) {
			matched = append(matched, st)
		}
	}
	return matched, nil
}

// Create registers a new student after the ordered field checks pass.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	now := s.now().UTC()
	student := &models.Student{
		ID:             uuid.NewString(),
		StudentID:      strings.TrimSpace(req.StudentID),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Major:          strings.TrimSpace(req.Major),
		EnrollmentYear: req.EnrollmentYear,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := checkStudentFields(tx, student); err != nil {
			return err
		}
		return tx.PutStudent(student)
	})
	if err != nil {
		return nil, coerce(err, "failed to create student")
	}
	s.logger.Info("student_created", zap.String("id", student.ID), zap.String("student_id", student.StudentID))
	return student, nil
}

// Update modifies an existing student record without touching its code.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	var updated *models.Student
	err := s.store.Update(ctx, func(tx store.Tx) error {
		existing, err := tx.GetStudent(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return coerce(err, "failed to load student")
		}
		code := strings.TrimSpace(req.StudentID)
		if code != "" && code != existing.StudentID {
			return appErrors.InvalidField("student_id", "is immutable")
		}
		existing.FirstName = strings.TrimSpace(req.FirstName)
		existing.LastName = strings.TrimSpace(req.LastName)
		existing.Email = strings.TrimSpace(req.Email)
		existing.Phone = strings.TrimSpace(req.Phone)
		existing.Major = strings.TrimSpace(req.Major)
		existing.EnrollmentYear = req.EnrollmentYear
		existing.UpdatedAt = s.now().UTC()
		if err := checkStudentFields(tx, existing); err != nil {
			return err
		}
		if err := tx.PutStudent(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, coerce(err, "failed to update student")
	}
	return updated, nil
}

// Delete removes a student unless registrations still reference it.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetStudent(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return coerce(err, "failed to load student")
		}
		if err := checkStudentDeletable(tx, id); err != nil {
			return err
		}
		return tx.RemoveStudent(id)
	})
	if err != nil {
		return coerce(err, "failed to delete student")
	}
	s.logger.Info("student_deleted", zap.String("id", id))
	return nil
}
