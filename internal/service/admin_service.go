package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/unireg-api/internal/dto"
	"github.com/campusops/unireg-api/internal/models"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
	"github.com/campusops/unireg-api/pkg/export"
)

// Bulk step names reported on partial failure.
const (
	stepCourse       = "course"
	stepStudent      = "student"
	stepRegistration = "registration"
)

// SeedRegistrationRequest references seeded entities by business key, since
// system ids are assigned during the same call.
type SeedRegistrationRequest struct {
	StudentCode string `json:"student_code" validate:"required"`
	CourseCode  string `json:"course_code" validate:"required"`
}

// SeedRequest is an optional caller-provided sample set. An empty request
// seeds the built-in fixture.
type SeedRequest struct {
	Courses       []CreateCourseRequest     `json:"courses"`
	Students      []CreateStudentRequest    `json:"students"`
	Registrations []SeedRegistrationRequest `json:"registrations" validate:"dive"`
}

func (r SeedRequest) empty() bool {
	return len(r.Courses) == 0 && len(r.Students) == 0 && len(r.Registrations) == 0
}

// defaultSeed returns the built-in sample dataset.
func defaultSeed() SeedRequest {
	return SeedRequest{
		Courses: []CreateCourseRequest{
			{Code: "TEST101", Title: "Test Course 1", Description: "Sample course for testing", CreditHours: 3, MaxStudents: 30},
			{Code: "TEST102", Title: "Test Course 2", Description: "Another sample course", CreditHours: 4, MaxStudents: 25},
		},
		Students: []CreateStudentRequest{
			{StudentID: "TEST001", FirstName: "Test", LastName: "Student1", Email: "test1@university.edu", Major: "Computer Science", EnrollmentYear: 2024},
			{StudentID: "TEST002", FirstName: "Test", LastName: "Student2", Email: "test2@university.edu", Major: "Mathematics", EnrollmentYear: 2024},
		},
		Registrations: []SeedRegistrationRequest{
			{StudentCode: "TEST001", CourseCode: "TEST101"},
		},
	}
}

// AdminService sequences the bulk data-management operations. Both bulk
// operations are ordered chains of single-entity steps; each step is atomic
// on its own and a failed step stops the chain, leaving earlier steps
// committed and fully reported.
type AdminService struct {
	students      *StudentService
	courses       *CourseService
	registrations *RegistrationService
	stats         *StatsService
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewAdminService constructs the admin service.
func NewAdminService(students *StudentService, courses *CourseService, registrations *RegistrationService, stats *StatsService, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		students:      students,
		courses:       courses,
		registrations: registrations,
		stats:         stats,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// Seed loads a sample dataset: courses first, then students, then
// registrations referencing them, because registrations require the
// referenced entities to exist. The report always describes exactly what was
// created.
func (s *AdminService) Seed(ctx context.Context, req SeedRequest) (*dto.SeedReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seed payload")
	}
	if req.empty() {
		req = defaultSeed()
	}

	report := &dto.SeedReport{
		Courses:       []models.Course{},
		Students:      []models.Student{},
		Registrations: []models.Registration{},
	}

	for _, cr := range req.Courses {
		course, err := s.courses.Create(ctx, cr)
		if err != nil {
			report.Failed = &dto.BulkFailure{Step: stepCourse, Key: cr.Code, Error: appErrors.FromError(err)}
			s.logWarn("seed_aborted", report.Failed)
			return report, nil
		}
		report.Courses = append(report.Courses, *course)
	}
	for _, sr := range req.Students {
		student, err := s.students.Create(ctx, sr)
		if err != nil {
			report.Failed = &dto.BulkFailure{Step: stepStudent, Key: sr.StudentID, Error: appErrors.FromError(err)}
			s.logWarn("seed_aborted", report.Failed)
			return report, nil
		}
		report.Students = append(report.Students, *student)
	}
	for _, rr := range req.Registrations {
		key := rr.StudentCode + "/" + rr.CourseCode
		student, err := s.students.GetByCode(ctx, rr.StudentCode)
		if err != nil {
			report.Failed = &dto.BulkFailure{Step: stepRegistration, Key: key, Error: appErrors.FromError(err)}
			s.logWarn("seed_aborted", report.Failed)
			return report, nil
		}
		course, err := s.courseByCode(ctx, rr.CourseCode)
		if err != nil {
			report.Failed = &dto.BulkFailure{Step: stepRegistration, Key: key, Error: appErrors.FromError(err)}
			s.logWarn("seed_aborted", report.Failed)
			return report, nil
		}
		reg, err := s.registrations.Create(ctx, CreateRegistrationRequest{StudentID: student.ID, CourseID: course.ID})
		if err != nil {
			report.Failed = &dto.BulkFailure{Step: stepRegistration, Key: key, Error: appErrors.FromError(err)}
			s.logWarn("seed_aborted", report.Failed)
			return report, nil
		}
		report.Registrations = append(report.Registrations, *reg)
	}

	s.logger.Info("seed_completed",
		zap.Int("courses", len(report.Courses)),
		zap.Int("students", len(report.Students)),
		zap.Int("registrations", len(report.Registrations)))
	return report, nil
}

// Clear deletes the whole dataset in dependency order (registrations, then
// students, then courses) so every single delete passes the referential
// check trivially. A failed step stops the chain; the report carries the ids
// removed before the failure and counts of what remains.
func (s *AdminService) Clear(ctx context.Context) (*dto.ClearReport, error) {
	report := &dto.ClearReport{
		DeletedRegistrations: []string{},
		DeletedStudents:      []string{},
		DeletedCourses:       []string{},
	}

	regs, err := s.registrations.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range regs {
		if err := s.registrations.Delete(ctx, r.ID); err != nil {
			return s.abortClear(ctx, report, stepRegistration, r.ID, err)
		}
		report.DeletedRegistrations = append(report.DeletedRegistrations, r.ID)
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		if err := s.students.Delete(ctx, st.ID); err != nil {
			return s.abortClear(ctx, report, stepStudent, st.ID, err)
		}
		report.DeletedStudents = append(report.DeletedStudents, st.ID)
	}

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		if err := s.courses.Delete(ctx, c.ID); err != nil {
			return s.abortClear(ctx, report, stepCourse, c.ID, err)
		}
		report.DeletedCourses = append(report.DeletedCourses, c.ID)
	}

	s.logger.Info("clear_completed",
		zap.Int("registrations", len(report.DeletedRegistrations)),
		zap.Int("students", len(report.DeletedStudents)),
		zap.Int("courses", len(report.DeletedCourses)))
	return report, nil
}

// ExportJSON assembles the full dataset for download.
func (s *AdminService) ExportJSON(ctx context.Context) (*dto.ExportPayload, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrations.List(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ExportPayload{
		Students:      students,
		Courses:       courses,
		Registrations: regs,
		Stats: dto.TotalCounts{
			Students:      len(students),
			Courses:       len(courses),
			Registrations: len(regs),
		},
		ExportedAt: s.now().UTC(),
	}, nil
}

// ExportCSV renders the registration roster joined with business keys.
func (s *AdminService) ExportCSV(ctx context.Context) ([]byte, error) {
	regs, err := s.registrations.List(ctx)
	if err != nil {
		return nil, err
	}
	headers := []string{"registration_id", "student_code", "student_name", "course_code", "course_title", "status", "result", "created_at"}
	rows := make([]map[string]string, 0, len(regs))
	for _, r := range regs {
		result := ""
		if r.Result != nil {
			result = *r.Result
		}
		rows = append(rows, map[string]string{
			"registration_id": r.ID,
			"student_code":    r.StudentCode,
			"student_name":    r.StudentName,
			"course_code":     r.CourseCode,
			"course_title":    r.CourseTitle,
			"status":          string(r.Status),
			"result":          result,
			"created_at":      r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
}

// ExportPDF renders a one-page summary of the aggregate snapshot.
func (s *AdminService) ExportPDF(ctx context.Context) ([]byte, error) {
	snap, err := s.stats.Snapshot(ctx, 0)
	if err != nil {
		return nil, err
	}
	rows := []map[string]string{
		{"Metric": "Students", "Value": strconv.Itoa(snap.Totals.Students)},
		{"Metric": "Courses", "Value": strconv.Itoa(snap.Totals.Courses)},
		{"Metric": "Registrations", "Value": strconv.Itoa(snap.Totals.Registrations)},
		{"Metric": "Available courses", "Value": strconv.Itoa(len(snap.AvailableCourses))},
		{"Metric": "Capacity utilization (%)", "Value": strconv.Itoa(int(snap.CapacityUtilization))},
	}
	for _, top := range snap.TopCourses {
		rows = append(rows, map[string]string{
			"Metric": "Top course " + top.Code,
			"Value":  strconv.Itoa(top.Registrations),
		})
	}
	return s.pdf.Render(export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows}, "Registration Summary")
}

func (s *AdminService) abortClear(ctx context.Context, report *dto.ClearReport, step, key string, cause error) (*dto.ClearReport, error) {
	report.Failed = &dto.BulkFailure{Step: step, Key: key, Error: appErrors.FromError(cause)}
	report.Remaining = s.remaining(ctx)
	s.logWarn("clear_aborted", report.Failed)
	return report, nil
}

// remaining counts what is still stored after an aborted clear. Counting is
// best effort: a failed read reports -1 for that kind rather than masking
// the original failure.
func (s *AdminService) remaining(ctx context.Context) map[string]int {
	counts := map[string]int{"registrations": -1, "students": -1, "courses": -1}
	if regs, err := s.registrations.List(ctx); err == nil {
		counts["registrations"] = len(regs)
	}
	if students, err := s.students.List(ctx); err == nil {
		counts["students"] = len(students)
	}
	if courses, err := s.courses.List(ctx); err == nil {
		counts["courses"] = len(courses)
	}
	return counts
}

func (s *AdminService) courseByCode(ctx context.Context, code string) (*models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].Code == code {
			return &courses[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

func (s *AdminService) logWarn(msg string, failure *dto.BulkFailure) {
	s.logger.Warn(msg,
		zap.String("step", failure.Step),
		zap.String("key", failure.Key),
		zap.String("code", failure.Error.Code))
}
