package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/unireg-api/internal/models"
	"github.com/campusops/unireg-api/internal/store"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

// CreateRegistrationRequest describes registration creation.
type CreateRegistrationRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Result    *string `json:"result"`
}

// UpdateRegistrationRequest carries an optional result value and an optional
// status change. The result is free text and accepted unconditionally.
type UpdateRegistrationRequest struct {
	Result *string `json:"result"`
	Status *string `json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED WITHDRAWN"`
}

// RegistrationCheck reports whether an active registration exists for a
// (student, course) pair.
type RegistrationCheck struct {
	StudentID  string `json:"student_id"`
	CourseID   string `json:"course_id"`
	Registered bool   `json:"registered"`
}

// RegistrationService coordinates the registration lifecycle. Creation is
// check-then-insert inside one exclusive store update, so two concurrent
// attempts for the same pair can never both succeed.
type RegistrationService struct {
	store     store.Store
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(st store.Store, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{store: st, validator: validate, logger: logger, now: time.Now}
}

// List returns all registrations with student and course context, in
// insertion order.
func (s *RegistrationService) List(ctx context.Context) ([]models.RegistrationDetail, error) {
	var details []models.RegistrationDetail
	err := s.store.View(ctx, func(tx store.Tx) error {
		regs, err := tx.ListRegistrations()
		if err != nil {
			return err
		}
		details, err = s.detail(tx, regs)
		return err
	})
	if err != nil {
		return nil, coerce(err, "failed to list registrations")
	}
	return details, nil
}

// Get returns a registration by id.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	var reg *models.Registration
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		reg, err = tx.GetRegistration(id)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, coerce(err, "failed to load registration")
	}
	return reg, nil
}

// ByStudent returns registrations referencing the student.
func (s *RegistrationService) ByStudent(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	return s.listBy(ctx, func(tx store.Tx) ([]models.Registration, error) {
		return tx.RegistrationsByStudent(studentID)
	})
}

// ByCourse returns registrations referencing the course.
func (s *RegistrationService) ByCourse(ctx context.Context, courseID string) ([]models.RegistrationDetail, error) {
	return s.listBy(ctx, func(tx store.Tx) ([]models.Registration, error) {
		return tx.RegistrationsByCourse(courseID)
	})
}

func (s *RegistrationService) listBy(ctx context.Context, fetch func(store.Tx) ([]models.Registration, error)) ([]models.RegistrationDetail, error) {
	var details []models.RegistrationDetail
	err := s.store.View(ctx, func(tx store.Tx) error {
		regs, err := fetch(tx)
		if err != nil {
			return err
		}
		details, err = s.detail(tx, regs)
		return err
	})
	if err != nil {
		return nil, coerce(err, "failed to list registrations")
	}
	return details, nil
}

// Check reports whether an active registration exists for the pair. Unknown
// ids simply report false; the check endpoint is a pure query.
func (s *RegistrationService) Check(ctx context.Context, studentID, courseID string) (*RegistrationCheck, error) {
	check := &RegistrationCheck{StudentID: studentID, CourseID: courseID}
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.ActiveRegistration(studentID, courseID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		check.Registered = true
		return nil
	})
	if err != nil {
		return nil, coerce(err, "failed to check registration")
	}
	return check, nil
}

// Create registers a student to a course. Validation happens before any
// write; on rejection the store is untouched and the violation is returned
// unchanged.
func (s *RegistrationService) Create(ctx context.Context, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	reg := &models.Registration{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Status:    models.RegistrationStatusActive,
		Result:    req.Result,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := checkRegistrationCreatable(tx, req.StudentID, req.CourseID); err != nil {
			return err
		}
		return tx.PutRegistration(reg)
	})
	if err != nil {
		return nil, coerce(err, "failed to create registration")
	}
	s.logger.Info("registration_created",
		zap.String("id", reg.ID),
		zap.String("student_id", reg.StudentID),
		zap.String("course_id", reg.CourseID))
	return reg, nil
}

// Update sets the result and/or moves the status along the one-way lattice.
func (s *RegistrationService) Update(ctx context.Context, id string, req UpdateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	var updated *models.Registration
	err := s.store.Update(ctx, func(tx store.Tx) error {
		existing, err := tx.GetRegistration(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
			}
			return coerce(err, "failed to load registration")
		}
		if req.Status != nil {
			next := models.RegistrationStatus(*req.Status)
			if err := checkStatusTransition(existing.Status, next); err != nil {
				return err
			}
			existing.Status = next
		}
		if req.Result != nil {
			existing.Result = req.Result
		}
		if err := tx.PutRegistration(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, coerce(err, "failed to update registration")
	}
	return updated, nil
}

// Delete removes a registration of any status.
func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := tx.RemoveRegistration(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return coerce(err, "failed to delete registration")
	}
	s.logger.Info("registration_deleted", zap.String("id", id))
	return nil
}

// detail joins registrations with student and course context. References are
// guaranteed to resolve (invariant of the engine), but a missing row is
// tolerated with blank context rather than failing the whole listing.
func (s *RegistrationService) detail(tx store.Tx, regs []models.Registration) ([]models.RegistrationDetail, error) {
	details := make([]models.RegistrationDetail, 0, len(regs))
	for _, r := range regs {
		d := models.RegistrationDetail{Registration: r}
		if st, err := tx.GetStudent(r.StudentID); err == nil {
			d.StudentCode = st.StudentID
			d.StudentName = st.FirstName + " " + st.LastName
		}
		if c, err := tx.GetCourse(r.CourseID); err == nil {
			d.CourseCode = c.Code
			d.CourseTitle = c.Title
		}
		details = append(details, d)
	}
	return details, nil
}
