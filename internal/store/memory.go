package store

import (
	"context"
	"sync"

	"github.com/campusops/unireg-api/internal/models"
)

// Memory is the embedded store backend. Each collection keeps a map for
// lookups plus an id slice preserving insertion order. A RWMutex realizes the
// single-writer contract: Update holds the write lock for the whole closure,
// View holds the read lock.
type Memory struct {
	mu sync.RWMutex

	studentOrder []string
	students     map[string]models.Student

	courseOrder []string
	courses     map[string]models.Course

	regOrder      []string
	registrations map[string]models.Registration
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		students:      make(map[string]models.Student),
		courses:       make(map[string]models.Course),
		registrations: make(map[string]models.Registration),
	}
}

// View implements Store.
func (m *Memory) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{m: m})
}

// Update implements Store. The collections are snapshotted before fn runs and
// restored if it fails, so a rejected operation leaves nothing behind.
func (m *Memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memTx{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

type memSnapshot struct {
	studentOrder  []string
	students      map[string]models.Student
	courseOrder   []string
	courses       map[string]models.Course
	regOrder      []string
	registrations map[string]models.Registration
}

func (m *Memory) snapshot() memSnapshot {
	snap := memSnapshot{
		studentOrder:  append([]string(nil), m.studentOrder...),
		students:      make(map[string]models.Student, len(m.students)),
		courseOrder:   append([]string(nil), m.courseOrder...),
		courses:       make(map[string]models.Course, len(m.courses)),
		regOrder:      append([]string(nil), m.regOrder...),
		registrations: make(map[string]models.Registration, len(m.registrations)),
	}
	for id, s := range m.students {
		snap.students[id] = s
	}
	for id, c := range m.courses {
		snap.courses[id] = c
	}
	for id, r := range m.registrations {
		snap.registrations[id] = r
	}
	return snap
}

func (m *Memory) restore(snap memSnapshot) {
	m.studentOrder = snap.studentOrder
	m.students = snap.students
	m.courseOrder = snap.courseOrder
	m.courses = snap.courses
	m.regOrder = snap.regOrder
	m.registrations = snap.registrations
}

// memTx reads and writes the owning Memory directly; locking is done by
// View/Update.
type memTx struct {
	m *Memory
}

func (t *memTx) GetStudent(id string) (*models.Student, error) {
	s, ok := t.m.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (t *memTx) StudentByCode(code string) (*models.Student, error) {
	for _, id := range t.m.studentOrder {
		if s := t.m.students[id]; s.StudentID == code {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) StudentByEmail(email string) (*models.Student, error) {
	for _, id := range t.m.studentOrder {
		if s := t.m.students[id]; s.Email == email {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) ListStudents() ([]models.Student, error) {
	out := make([]models.Student, 0, len(t.m.studentOrder))
	for _, id := range t.m.studentOrder {
		out = append(out, t.m.students[id])
	}
	return out, nil
}

func (t *memTx) PutStudent(s *models.Student) error {
	if _, ok := t.m.students[s.ID]; !ok {
		t.m.studentOrder = append(t.m.studentOrder, s.ID)
	}
	t.m.students[s.ID] = *s
	return nil
}

func (t *memTx) RemoveStudent(id string) error {
	if _, ok := t.m.students[id]; !ok {
		return ErrNotFound
	}
	delete(t.m.students, id)
	t.m.studentOrder = removeID(t.m.studentOrder, id)
	return nil
}

func (t *memTx) GetCourse(id string) (*models.Course, error) {
	c, ok := t.m.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (t *memTx) CourseByCode(code string) (*models.Course, error) {
	for _, id := range t.m.courseOrder {
		if c := t.m.courses[id]; c.Code == code {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) ListCourses() ([]models.Course, error) {
	out := make([]models.Course, 0, len(t.m.courseOrder))
	for _, id := range t.m.courseOrder {
		out = append(out, t.m.courses[id])
	}
	return out, nil
}

func (t *memTx) PutCourse(c *models.Course) error {
	if _, ok := t.m.courses[c.ID]; !ok {
		t.m.courseOrder = append(t.m.courseOrder, c.ID)
	}
	t.m.courses[c.ID] = *c
	return nil
}

func (t *memTx) RemoveCourse(id string) error {
	if _, ok := t.m.courses[id]; !ok {
		return ErrNotFound
	}
	delete(t.m.courses, id)
	t.m.courseOrder = removeID(t.m.courseOrder, id)
	return nil
}

func (t *memTx) GetRegistration(id string) (*models.Registration, error) {
	r, ok := t.m.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) ListRegistrations() ([]models.Registration, error) {
	out := make([]models.Registration, 0, len(t.m.regOrder))
	for _, id := range t.m.regOrder {
		out = append(out, t.m.registrations[id])
	}
	return out, nil
}

func (t *memTx) RegistrationsByStudent(studentID string) ([]models.Registration, error) {
	var out []models.Registration
	for _, id := range t.m.regOrder {
		if r := t.m.registrations[id]; r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) RegistrationsByCourse(courseID string) ([]models.Registration, error) {
	var out []models.Registration
	for _, id := range t.m.regOrder {
		if r := t.m.registrations[id]; r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) ActiveRegistration(studentID, courseID string) (*models.Registration, error) {
	for _, id := range t.m.regOrder {
		r := t.m.registrations[id]
		if r.StudentID == studentID && r.CourseID == courseID && r.Status == models.RegistrationStatusActive {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) PutRegistration(r *models.Registration) error {
	if _, ok := t.m.registrations[r.ID]; !ok {
		t.m.regOrder = append(t.m.regOrder, r.ID)
	}
	t.m.registrations[r.ID] = *r
	return nil
}

func (t *memTx) RemoveRegistration(id string) error {
	if _, ok := t.m.registrations[id]; !ok {
		return ErrNotFound
	}
	delete(t.m.registrations, id)
	t.m.regOrder = removeID(t.m.regOrder, id)
	return nil
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
