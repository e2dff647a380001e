package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/unireg-api/internal/store"
	appErrors "github.com/campusops/unireg-api/pkg/errors"
)

func newStudentService() (*StudentService, *store.Memory) {
	mem := store.NewMemory()
	return NewStudentService(mem, nil), mem
}

func validStudent(code, email string) CreateStudentRequest {
	return CreateStudentRequest{
		StudentID:      code,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          email,
		Major:          "Computer Science",
		EnrollmentYear: 2024,
	}
}

func TestStudentCreateAndLookup(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validStudent("STU001", "ada@university.edu"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	byID, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "STU001", byID.StudentID)

	byCode, err := svc.GetByCode(ctx, "STU001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	_, err = svc.GetByCode(ctx, "stu001")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, validStudent("STU001", "first@university.edu"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validStudent("STU001", "second@university.edu"))
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)

	students, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestStudentCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, validStudent("STU001", "shared@university.edu"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validStudent("STU002", "shared@university.edu"))
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)
}

func TestStudentCreateUniquenessCheckedBeforeRanges(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, validStudent("STU001", "one@university.edu"))
	require.NoError(t, err)

	req := validStudent("STU001", "two@university.edu")
	req.EnrollmentYear = 1990
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)
}

func TestStudentCreateEnrollmentYearBounds(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	for i, year := range []int{1999, 2031} {
		req := validStudent("BAD", "bad@university.edu")
		req.EnrollmentYear = year
		_, err := svc.Create(ctx, req)
		require.ErrorIs(t, err, appErrors.ErrInvalidField, "year %d", year)
		var typed *appErrors.Error
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, "enrollment_year", typed.Field, "case %d", i)
	}

	for i, year := range []int{2000, 2030} {
		req := validStudent("OK", "ok@university.edu")
		req.StudentID = req.StudentID + string(rune('A'+i))
		req.Email = req.StudentID + "@university.edu"
		req.EnrollmentYear = year
		_, err := svc.Create(ctx, req)
		assert.NoError(t, err, "year %d", year)
	}
}

func TestStudentCreateRequiredFields(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	req := validStudent("STU001", "ada@university.edu")
	req.FirstName = "   "
	_, err := svc.Create(ctx, req)
	require.ErrorIs(t, err, appErrors.ErrInvalidField)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "first_name", typed.Field)
}

func TestStudentUpdateCodeImmutable(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validStudent("STU001", "ada@university.edu"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, UpdateStudentRequest{
		StudentID:      "STU999",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@university.edu",
		EnrollmentYear: 2024,
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidField)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "student_id", typed.Field)

	// Echoing the stored code back is fine.
	updated, err := svc.Update(ctx, created.ID, UpdateStudentRequest{
		StudentID:      "STU001",
		FirstName:      "Augusta",
		LastName:       "Lovelace",
		Email:          "ada@university.edu",
		EnrollmentYear: 2024,
	})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
}

func TestStudentUpdateRejectionLeavesRecordIntact(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validStudent("STU001", "ada@university.edu"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, UpdateStudentRequest{
		FirstName:      "Changed",
		LastName:       "Lovelace",
		Email:          "ada@university.edu",
		EnrollmentYear: 1950,
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidField)

	current, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", current.FirstName)
	assert.Equal(t, 2024, current.EnrollmentYear)
}

func TestStudentSearchAndByMajor(t *testing.T) {
	svc, _ := newStudentService()
	ctx := context.Background()

	first := validStudent("STU001", "ada@university.edu")
	_, err := svc.Create(ctx, first)
	require.NoError(t, err)

	second := validStudent("STU002", "grace@university.edu")
	second.FirstName = "Grace"
	second.LastName = "Hopper"
	second.Major = "Mathematics"
	_, err = svc.Create(ctx, second)
	require.NoError(t, err)

	matches, err := svc.Search(ctx, "lace")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "STU001", matches[0].StudentID)

	matches, err = svc.Search(ctx, "HOP")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "STU002", matches[0].StudentID)

	majors, err := svc.ByMajor(ctx, "mathematics")
	require.NoError(t, err)
	require.Len(t, majors, 1)
	assert.Equal(t, "STU002", majors[0].StudentID)
}

func TestStudentDeleteUnknown(t *testing.T) {
	svc, _ := newStudentService()
	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
