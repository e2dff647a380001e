package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/unireg-api/internal/models"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgresUpdateTakesAdvisoryLock(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(advisoryLockKey)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.Update(context.Background(), func(tx Tx) error {
		return tx.PutStudent(&models.Student{
			ID:        "s1",
			StudentID: "STU001",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRollsBackOnError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(advisoryLockKey)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := st.Update(context.Background(), func(tx Tx) error {
		return ErrNotFound
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetStudentNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM students WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := st.View(context.Background(), func(tx Tx) error {
		_, err := tx.GetStudent("missing")
		return err
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListCoursesOrdersBySeq(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "code", "title", "description", "credit_hours", "max_students", "created_at", "updated_at",
	}).
		AddRow("c1", "CS101", "Intro", "", 3, 30, time.Now(), time.Now()).
		AddRow("c2", "CS102", "Data Structures", "", 4, 25, time.Now(), time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM courses ORDER BY seq ASC`).WillReturnRows(rows)
	mock.ExpectCommit()

	var courses []models.Course
	err := st.View(context.Background(), func(tx Tx) error {
		var err error
		courses, err = tx.ListCourses()
		return err
	})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CS101", courses[0].Code)
	assert.Equal(t, "CS102", courses[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoveReportsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(advisoryLockKey)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM registrations WHERE id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := st.Update(context.Background(), func(tx Tx) error {
		return tx.RemoveRegistration("missing")
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresActiveRegistrationQuery(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "status", "result", "created_at"}).
		AddRow("r1", "s1", "c1", "ACTIVE", nil, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM registrations WHERE student_id = \$1 AND course_id = \$2 AND status = \$3`).
		WithArgs("s1", "c1", string(models.RegistrationStatusActive)).
		WillReturnRows(rows)
	mock.ExpectCommit()

	err := st.View(context.Background(), func(tx Tx) error {
		r, err := tx.ActiveRegistration("s1", "c1")
		if err != nil {
			return err
		}
		assert.Equal(t, "r1", r.ID)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
