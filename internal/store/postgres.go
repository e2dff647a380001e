package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/unireg-api/internal/models"
)

// advisoryLockKey serializes writers across every connection to the dataset.
const advisoryLockKey = 7201

// Postgres is the persisted store backend. Every Update runs inside a single
// database transaction that first takes pg_advisory_xact_lock, so writers are
// serialized exactly like the memory backend; rollback on error keeps failed
// operations invisible. Tables carry a seq BIGSERIAL column and all listings
// order by it, which preserves insertion order across reads.
//
// Expected schema:
//
//	students      (id TEXT PRIMARY KEY, student_id TEXT UNIQUE, first_name TEXT,
//	               last_name TEXT, email TEXT, phone TEXT, major TEXT,
//	               enrollment_year INT, created_at TIMESTAMPTZ,
//	               updated_at TIMESTAMPTZ, seq BIGSERIAL)
//	courses       (id TEXT PRIMARY KEY, code TEXT UNIQUE, title TEXT,
//	               description TEXT, credit_hours INT, max_students INT,
//	               created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ, seq BIGSERIAL)
//	registrations (id TEXT PRIMARY KEY, student_id TEXT, course_id TEXT,
//	               status TEXT, result TEXT NULL, created_at TIMESTAMPTZ,
//	               seq BIGSERIAL)
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// View implements Store using a read-only transaction.
func (p *Postgres) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Update implements Store with a write transaction under the advisory lock.
func (p *Postgres) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases the database handle.
func (p *Postgres) Close() error { return p.db.Close() }

type pgTx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

const studentColumns = "id, student_id, first_name, last_name, email, phone, major, enrollment_year, created_at, updated_at"

func (t *pgTx) GetStudent(id string) (*models.Student, error) {
	return t.studentWhere("id = $1", id)
}

func (t *pgTx) StudentByCode(code string) (*models.Student, error) {
	return t.studentWhere("student_id = $1", code)
}

func (t *pgTx) StudentByEmail(email string) (*models.Student, error) {
	return t.studentWhere("email = $1", email)
}

func (t *pgTx) studentWhere(cond string, arg interface{}) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE %s", studentColumns, cond)
	var s models.Student
	if err := t.tx.GetContext(t.ctx, &s, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

func (t *pgTx) ListStudents() ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY seq ASC", studentColumns)
	var students []models.Student
	if err := t.tx.SelectContext(t.ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (t *pgTx) PutStudent(s *models.Student) error {
	const query = `INSERT INTO students (id, student_id, first_name, last_name, email, phone, major, enrollment_year, created_at, updated_at)
        VALUES (:id, :student_id, :first_name, :last_name, :email, :phone, :major, :enrollment_year, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
        student_id = EXCLUDED.student_id, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
        email = EXCLUDED.email, phone = EXCLUDED.phone, major = EXCLUDED.major,
        enrollment_year = EXCLUDED.enrollment_year, updated_at = EXCLUDED.updated_at`
	if _, err := t.tx.NamedExecContext(t.ctx, query, s); err != nil {
		return fmt.Errorf("put student: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveStudent(id string) error {
	return t.remove("students", id, "remove student")
}

const courseColumns = "id, code, title, description, credit_hours, max_students, created_at, updated_at"

func (t *pgTx) GetCourse(id string) (*models.Course, error) {
	return t.courseWhere("id = $1", id)
}

func (t *pgTx) CourseByCode(code string) (*models.Course, error) {
	return t.courseWhere("code = $1", code)
}

func (t *pgTx) courseWhere(cond string, arg interface{}) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE %s", courseColumns, cond)
	var c models.Course
	if err := t.tx.GetContext(t.ctx, &c, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &c, nil
}

func (t *pgTx) ListCourses() ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses ORDER BY seq ASC", courseColumns)
	var courses []models.Course
	if err := t.tx.SelectContext(t.ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (t *pgTx) PutCourse(c *models.Course) error {
	const query = `INSERT INTO courses (id, code, title, description, credit_hours, max_students, created_at, updated_at)
        VALUES (:id, :code, :title, :description, :credit_hours, :max_students, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
        code = EXCLUDED.code, title = EXCLUDED.title, description = EXCLUDED.description,
        credit_hours = EXCLUDED.credit_hours, max_students = EXCLUDED.max_students, updated_at = EXCLUDED.updated_at`
	if _, err := t.tx.NamedExecContext(t.ctx, query, c); err != nil {
		return fmt.Errorf("put course: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveCourse(id string) error {
	return t.remove("courses", id, "remove course")
}

const registrationColumns = "id, student_id, course_id, status, result, created_at"

func (t *pgTx) GetRegistration(id string) (*models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE id = $1", registrationColumns)
	var r models.Registration
	if err := t.tx.GetContext(t.ctx, &r, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &r, nil
}

func (t *pgTx) ListRegistrations() ([]models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations ORDER BY seq ASC", registrationColumns)
	var regs []models.Registration
	if err := t.tx.SelectContext(t.ctx, &regs, query); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (t *pgTx) RegistrationsByStudent(studentID string) ([]models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE student_id = $1 ORDER BY seq ASC", registrationColumns)
	var regs []models.Registration
	if err := t.tx.SelectContext(t.ctx, &regs, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations by student: %w", err)
	}
	return regs, nil
}

func (t *pgTx) RegistrationsByCourse(courseID string) ([]models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE course_id = $1 ORDER BY seq ASC", registrationColumns)
	var regs []models.Registration
	if err := t.tx.SelectContext(t.ctx, &regs, query, courseID); err != nil {
		return nil, fmt.Errorf("list registrations by course: %w", err)
	}
	return regs, nil
}

func (t *pgTx) ActiveRegistration(studentID, courseID string) (*models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE student_id = $1 AND course_id = $2 AND status = $3 LIMIT 1", registrationColumns)
	var r models.Registration
	if err := t.tx.GetContext(t.ctx, &r, query, studentID, courseID, models.RegistrationStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active registration: %w", err)
	}
	return &r, nil
}

func (t *pgTx) PutRegistration(r *models.Registration) error {
	const query = `INSERT INTO registrations (id, student_id, course_id, status, result, created_at)
        VALUES (:id, :student_id, :course_id, :status, :result, :created_at)
        ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, result = EXCLUDED.result`
	if _, err := t.tx.NamedExecContext(t.ctx, query, r); err != nil {
		return fmt.Errorf("put registration: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveRegistration(id string) error {
	return t.remove("registrations", id, "remove registration")
}

func (t *pgTx) remove(table, id, label string) error {
	res, err := t.tx.ExecContext(t.ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
