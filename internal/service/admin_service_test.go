package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/unireg-api/internal/store"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

func newAdminFixture() (*AdminService, *RegistrationService, *StudentService, *CourseService) {
	mem := store.NewMemory()
	students := NewStudentService(mem, nil)
	courses := NewCourseService(mem, nil)
	registrations := NewRegistrationService(mem, nil, nil)
	stats := NewStatsService(mem, nil, StatsServiceConfig{})
	admin := NewAdminService(students, courses, registrations, stats, nil, nil)
	return admin, registrations, students, courses
}

func TestAdminSeedDefaultFixture(t *testing.T) {
	admin, registrations, students, courses := newAdminFixture()
	ctx := context.Background()

	report, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)
	require.Nil(t, report.Failed)
	assert.Len(t, report.Courses, 2)
	assert.Len(t, report.Students, 2)
	assert.Len(t, report.Registrations, 1)

	allCourses, err := courses.List(ctx)
	require.NoError(t, err)
	require.Len(t, allCourses, 2)
	assert.Equal(t, "TEST101", allCourses[0].Code)
	assert.Equal(t, "TEST102", allCourses[1].Code)

	allStudents, err := students.List(ctx)
	require.NoError(t, err)
	require.Len(t, allStudents, 2)
	assert.Equal(t, "TEST001", allStudents[0].StudentID)

	regs, err := registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "TEST001", regs[0].StudentCode)
	assert.Equal(t, "TEST101", regs[0].CourseCode)
}

func TestAdminSeedStopsAtFirstFailure(t *testing.T) {
	admin, _, students, _ := newAdminFixture()
	ctx := context.Background()

	_, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)

	// Re-seeding collides on the first course code; nothing new is created.
	report, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)
	require.NotNil(t, report.Failed)
	assert.Equal(t, "course", report.Failed.Step)
	assert.Equal(t, "TEST101", report.Failed.Key)
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, report.Failed.Error.Code)
	assert.Empty(t, report.Courses)
	assert.Empty(t, report.Students)
	assert.Empty(t, report.Registrations)

	allStudents, err := students.List(ctx)
	require.NoError(t, err)
	assert.Len(t, allStudents, 2)
}

func TestAdminSeedCustomDataset(t *testing.T) {
	admin, registrations, _, _ := newAdminFixture()
	ctx := context.Background()

	req := SeedRequest{
		Courses: []CreateCourseRequest{validCourse("CHEM101")},
		Students: []CreateStudentRequest{
			validStudent("STU100", "marie@university.edu"),
		},
		Registrations: []SeedRegistrationRequest{
			{StudentCode: "STU100", CourseCode: "CHEM101"},
		},
	}
	report, err := admin.Seed(ctx, req)
	require.NoError(t, err)
	require.Nil(t, report.Failed)

	regs, err := registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "STU100", regs[0].StudentCode)
}

func TestAdminSeedUnknownRegistrationReference(t *testing.T) {
	admin, _, _, _ := newAdminFixture()
	ctx := context.Background()

	req := SeedRequest{
		Courses: []CreateCourseRequest{validCourse("CHEM101")},
		Registrations: []SeedRegistrationRequest{
			{StudentCode: "GHOST", CourseCode: "CHEM101"},
		},
	}
	report, err := admin.Seed(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, report.Failed)
	assert.Equal(t, "registration", report.Failed.Step)
	assert.Equal(t, "GHOST/CHEM101", report.Failed.Key)
	assert.Equal(t, appErrors.ErrNotFound.Code, report.Failed.Error.Code)
	assert.Len(t, report.Courses, 1)
}

func TestAdminClearEmptiesEverything(t *testing.T) {
	admin, registrations, students, courses := newAdminFixture()
	ctx := context.Background()

	_, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)

	report, err := admin.Clear(ctx)
	require.NoError(t, err)
	require.Nil(t, report.Failed)
	assert.Len(t, report.DeletedRegistrations, 1)
	assert.Len(t, report.DeletedStudents, 2)
	assert.Len(t, report.DeletedCourses, 2)
	assert.Nil(t, report.Remaining)

	regs, err := registrations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)
	allStudents, err := students.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, allStudents)
	allCourses, err := courses.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, allCourses)
}

func TestAdminClearOnEmptyStore(t *testing.T) {
	admin, _, _, _ := newAdminFixture()

	report, err := admin.Clear(context.Background())
	require.NoError(t, err)
	require.Nil(t, report.Failed)
	assert.Empty(t, report.DeletedRegistrations)
	assert.Empty(t, report.DeletedStudents)
	assert.Empty(t, report.DeletedCourses)
}

func TestAdminExportJSON(t *testing.T) {
	admin, _, _, _ := newAdminFixture()
	ctx := context.Background()

	_, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)

	payload, err := admin.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Len(t, payload.Students, 2)
	assert.Len(t, payload.Courses, 2)
	assert.Len(t, payload.Registrations, 1)
	assert.Equal(t, 2, payload.Stats.Students)
	assert.False(t, payload.ExportedAt.IsZero())
}

func TestAdminExportCSVRoster(t *testing.T) {
	admin, _, _, _ := newAdminFixture()
	ctx := context.Background()

	_, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)

	data, err := admin.ExportCSV(ctx)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "registration_id,student_code,student_name,course_code,course_title,status,result,created_at", lines[0])
	assert.Contains(t, lines[1], "TEST001")
	assert.Contains(t, lines[1], "TEST101")
	assert.Contains(t, lines[1], "ACTIVE")
}

func TestAdminExportPDF(t *testing.T) {
	admin, _, _, _ := newAdminFixture()
	ctx := context.Background()

	_, err := admin.Seed(ctx, SeedRequest{})
	require.NoError(t, err)

	data, err := admin.ExportPDF(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
