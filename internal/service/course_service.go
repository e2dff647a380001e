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

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreditHours int    `json:"credit_hours"`
	MaxStudents int    `json:"max_students"`
}

// UpdateCourseRequest holds payload for updating courses; the course code is
// immutable once assigned.
type UpdateCourseRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreditHours int    `json:"credit_hours"`
	MaxStudents int    `json:"max_students"`
}

// CourseService coordinates course mutations and reads.
type CourseService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(st store.Store, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{store: st, logger: logger, now: time.Now}
}

// List returns all courses in insertion order.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		courses, err = tx.ListCourses()
		return err
	})
	if err != nil {
		return nil, coerce(err, "failed to list courses")
	}
	return courses, nil
}

// Get returns a course by system id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	var course *models.Course
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		course, err = tx.GetCourse(id)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, coerce(err, "failed to load course")
	}
	return course, nil
}

// Search returns courses whose title contains the query, case-insensitively.
func (s *CourseService) Search(ctx context.Context, title string) ([]models.Course, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return all, nil
	}
	matched := make([]models.Course, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Title), needle) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// Available returns courses whose active registration count is strictly
// below capacity, computed against one consistent snapshot.
func (s *CourseService) Available(ctx context.Context) ([]models.Course, error) {
	var available []models.Course
	err := s.store.View(ctx, func(tx store.Tx) error {
		courses, err := tx.ListCourses()
		if err != nil {
			return err
		}
		regs, err := tx.ListRegistrations()
		if err != nil {
			return err
		}
		active := make(map[string]int, len(courses))
		for _, r := range regs {
			if r.Status == models.RegistrationStatusActive {
				active[r.CourseID]++
			}
		}
		available = make([]models.Course, 0, len(courses))
		for _, c := range courses {
			if active[c.ID] < c.MaxStudents {
				available = append(available, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, coerce(err, "failed to list available courses")
	}
	return available, nil
}

// Create stores a new course after the ordered field checks pass.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	now := s.now().UTC()
	course := &models.Course{
		ID:          uuid.NewString(),
		Code:        strings.TrimSpace(req.Code),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CreditHours: req.CreditHours,
		MaxStudents: req.MaxStudents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := checkCourseFields(tx, course); err != nil {
			return err
		}
		return tx.PutCourse(course)
	})
	if err != nil {
		return nil, coerce(err, "failed to create course")
	}
	s.logger.Info("course_created", zap.String("id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Update modifies an existing course without touching its code.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	var updated *models.Course
	err := s.store.Update(ctx, func(tx store.Tx) error {
		existing, err := tx.GetCourse(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return coerce(err, "failed to load course")
		}
		code := strings.TrimSpace(req.Code)
		if code != "" && code != existing.Code {
			return appErrors.InvalidField("code", "is immutable")
		}
		existing.Title = strings.TrimSpace(req.Title)
		existing.Description = strings.TrimSpace(req.Description)
		existing.CreditHours = req.CreditHours
		existing.MaxStudents = req.MaxStudents
		existing.UpdatedAt = s.now().UTC()
		if err := checkCourseFields(tx, existing); err != nil {
			return err
		}
		if err := tx.PutCourse(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, coerce(err, "failed to update course")
	}
	return updated, nil
}

// Delete removes a course unless registrations still reference it.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetCourse(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return coerce(err, "failed to load course")
		}
		if err := checkCourseDeletable(tx, id); err != nil {
			return err
		}
		return tx.RemoveCourse(id)
	})
	if err != nil {
		return coerce(err, "failed to delete course")
	}
	s.logger.Info("course_deleted", zap.String("id", id))
	return nil
}
