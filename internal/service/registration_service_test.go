package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/unireg-api/internal/models"
	"github.com/campusops/unireg-api/internal/store"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

type regFixture struct {
	students      *StudentService
	courses       *CourseService
	registrations *RegistrationService
	student       *models.Student
	course        *models.Course
}

func newRegFixture(t *testing.T) *regFixture {
	t.Helper()
	mem := store.NewMemory()
	f := &regFixture{
		students:      NewStudentService(mem, nil),
		courses:       NewCourseService(mem, nil),
		registrations: NewRegistrationService(mem, nil, nil),
	}
	ctx := context.Background()

	var err error
	f.student, err = f.students.Create(ctx, validStudent("STU001", "ada@university.edu"))
	require.NoError(t, err)
	f.course, err = f.courses.Create(ctx, validCourse("CS101"))
	require.NoError(t, err)
	return f
}

func TestRegistrationCreateRequiresExistingReferences(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	_, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: "missing", CourseID: f.course.ID,
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: "missing",
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	regs, err := f.registrations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestRegistrationCreateRejectsSecondActive(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	first, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusActive, first.Status)

	_, err = f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	assert.ErrorIs(t, err, appErrors.ErrDuplicateRegistration)

	regs, err := f.registrations.List(ctx)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestRegistrationReregisterAfterWithdrawal(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	first, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	withdrawn := string(models.RegistrationStatusWithdrawn)
	_, err = f.registrations.Update(ctx, first.ID, UpdateRegistrationRequest{Status: &withdrawn})
	require.NoError(t, err)

	// The withdrawn row no longer blocks a fresh registration.
	second, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRegistrationStatusLattice(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	reg, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	completed := string(models.RegistrationStatusCompleted)
	updated, err := f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCompleted, updated.Status)

	// Terminal states cannot move anywhere else.
	active := string(models.RegistrationStatusActive)
	_, err = f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Status: &active})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	withdrawn := string(models.RegistrationStatusWithdrawn)
	_, err = f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Status: &withdrawn})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	// Writing the current status back is a no-op, not a transition.
	same, err := f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCompleted, same.Status)
}

func TestRegistrationUpdateResult(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	reg, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	grade := "A"
	updated, err := f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Result: &grade})
	require.NoError(t, err)
	require.NotNil(t, updated.Result)
	assert.Equal(t, "A", *updated.Result)
	assert.Equal(t, models.RegistrationStatusActive, updated.Status)
}

func TestRegistrationUpdateRejectsBadStatusValue(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	reg, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	bogus := "PAUSED"
	_, err = f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Status: &bogus})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegistrationBlocksReferencedDeletes(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	reg, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	err = f.students.Delete(ctx, f.student.ID)
	assert.ErrorIs(t, err, appErrors.ErrReferentialConflict)
	err = f.courses.Delete(ctx, f.course.ID)
	assert.ErrorIs(t, err, appErrors.ErrReferentialConflict)

	// A completed registration still counts as a reference.
	completed := string(models.RegistrationStatusCompleted)
	_, err = f.registrations.Update(ctx, reg.ID, UpdateRegistrationRequest{Status: &completed})
	require.NoError(t, err)
	err = f.students.Delete(ctx, f.student.ID)
	assert.ErrorIs(t, err, appErrors.ErrReferentialConflict)

	// Removing the registration unblocks both deletes.
	require.NoError(t, f.registrations.Delete(ctx, reg.ID))
	assert.NoError(t, f.students.Delete(ctx, f.student.ID))
	assert.NoError(t, f.courses.Delete(ctx, f.course.ID))
}

func TestRegistrationCheck(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	check, err := f.registrations.Check(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.False(t, check.Registered)

	// Unknown ids report false rather than failing.
	check, err = f.registrations.Check(ctx, "ghost", "phantom")
	require.NoError(t, err)
	assert.False(t, check.Registered)

	_, err = f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	check, err = f.registrations.Check(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.True(t, check.Registered)
}

func TestRegistrationListJoinsContext(t *testing.T) {
	f := newRegFixture(t)
	ctx := context.Background()

	_, err := f.registrations.Create(ctx, CreateRegistrationRequest{
		StudentID: f.student.ID, CourseID: f.course.ID,
	})
	require.NoError(t, err)

	details, err := f.registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "STU001", details[0].StudentCode)
	assert.Equal(t, "Ada Lovelace", details[0].StudentName)
	assert.Equal(t, "CS101", details[0].CourseCode)

	byStudent, err := f.registrations.ByStudent(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Len(t, byStudent, 1)

	byCourse, err := f.registrations.ByCourse(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Len(t, byCourse, 1)
}
