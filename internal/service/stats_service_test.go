package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/unireg-api/internal/dto"
	"github.com/campusops/unireg-api/internal/models"
	"github.com/campusops/unireg-api/internal/store"
)

func seedStatsData(t *testing.T, mem *store.Memory) (courses []models.Course) {
	t.Helper()
	err := mem.Update(context.Background(), func(tx store.Tx) error {
		courses = []models.Course{
			{ID: "c1", Code: "CS101", Title: "Intro", CreditHours: 3, MaxStudents: 2},
			{ID: "c2", Code: "CS102", Title: "Data Structures", CreditHours: 4, MaxStudents: 30},
		}
		for i := range courses {
			if err := tx.PutCourse(&courses[i]); err != nil {
				return err
			}
		}
		for _, s := range []models.Student{
			{ID: "s1", StudentID: "STU001"},
			{ID: "s2", StudentID: "STU002"},
			{ID: "s3", StudentID: "STU003"},
		} {
			st := s
			if err := tx.PutStudent(&st); err != nil {
				return err
			}
		}
		for _, r := range []models.Registration{
			{ID: "r1", StudentID: "s1", CourseID: "c1", Status: models.RegistrationStatusActive},
			{ID: "r2", StudentID: "s2", CourseID: "c1", Status: models.RegistrationStatusActive},
			{ID: "r3", StudentID: "s3", CourseID: "c1", Status: models.RegistrationStatusWithdrawn},
			{ID: "r4", StudentID: "s1", CourseID: "c2", Status: models.RegistrationStatusCompleted},
		} {
			reg := r
			if err := tx.PutRegistration(&reg); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return courses
}

func TestStatsSnapshot(t *testing.T) {
	mem := store.NewMemory()
	seedStatsData(t, mem)
	svc := NewStatsService(mem, nil, StatsServiceConfig{SeatsPerCourse: 10, TopCoursesLimit: 5})

	snap, err := svc.Snapshot(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, dto.TotalCounts{Students: 3, Courses: 2, Registrations: 4}, snap.Totals)

	// c1 holds 2 active seats of 2, so only c2 stays available.
	require.Len(t, snap.AvailableCourses, 1)
	assert.Equal(t, "c2", snap.AvailableCourses[0].ID)

	// 2 active regs over 2 courses * 10 assumed seats = 10%.
	assert.InDelta(t, 10.0, snap.CapacityUtilization, 0.001)

	assert.Equal(t, map[models.RegistrationStatus]int{
		models.RegistrationStatusActive:    2,
		models.RegistrationStatusCompleted: 1,
		models.RegistrationStatusWithdrawn: 1,
	}, snap.StatusBreakdown)

	// Ranking counts registrations of every status.
	require.Len(t, snap.TopCourses, 2)
	assert.Equal(t, "CS101", snap.TopCourses[0].Code)
	assert.Equal(t, 3, snap.TopCourses[0].Registrations)
	assert.Equal(t, "CS102", snap.TopCourses[1].Code)
	assert.Equal(t, 1, snap.TopCourses[1].Registrations)
}

func TestStatsSnapshotTopOverride(t *testing.T) {
	mem := store.NewMemory()
	seedStatsData(t, mem)
	svc := NewStatsService(mem, nil, StatsServiceConfig{TopCoursesLimit: 5})

	snap, err := svc.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snap.TopCourses, 1)
	assert.Equal(t, "CS101", snap.TopCourses[0].Code)
}

func TestStatsSnapshotEmptyStore(t *testing.T) {
	svc := NewStatsService(store.NewMemory(), nil, StatsServiceConfig{})

	snap, err := svc.Snapshot(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, dto.TotalCounts{}, snap.Totals)
	assert.Empty(t, snap.AvailableCourses)
	assert.Zero(t, snap.CapacityUtilization)
	assert.Empty(t, snap.TopCourses)

	// Every status key is present even with nothing registered.
	assert.Len(t, snap.StatusBreakdown, 3)
	for _, n := range snap.StatusBreakdown {
		assert.Zero(t, n)
	}
}

func TestStatsUtilizationClamped(t *testing.T) {
	svc := NewStatsService(store.NewMemory(), nil, StatsServiceConfig{SeatsPerCourse: 1})
	assert.Equal(t, 100.0, svc.utilization(500, 1))
	assert.Equal(t, 0.0, svc.utilization(0, 0))
}

func TestTopCoursesTieBreaksByCode(t *testing.T) {
	courses := []models.Course{
		{ID: "b", Code: "MATH201"},
		{ID: "a", Code: "CS101"},
		{ID: "c", Code: "BIO110"},
	}
	counts := map[string]int{"a": 2, "b": 2, "c": 5}

	ranked := topCourses(courses, counts, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "BIO110", ranked[0].Code)
	assert.Equal(t, "CS101", ranked[1].Code)
	assert.Equal(t, "MATH201", ranked[2].Code)

	truncated := topCourses(courses, counts, 2)
	assert.Len(t, truncated, 2)
}
