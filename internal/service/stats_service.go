package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/unireg-api/internal/dto"
	"github.com/campusops/unireg-api/internal/models"
	"github.com/campusops/unireg-api/internal/store"
)

// StatsServiceConfig tunes the aggregate snapshot.
type StatsServiceConfig struct {
	// SeatsPerCourse is the assumed per-course seat count behind the
	// fleet-level capacity percentage. A rough display signal carried over
	// from the legacy dashboard, not a per-course rule.
	SeatsPerCourse  int
	TopCoursesLimit int
}

// StatsService derives dashboard aggregates from the store. It is read-only
// and recomputes every figure from a single consistent snapshot per call;
// nothing is cached, so the numbers can never drift from the collections.
type StatsService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
	cfg    StatsServiceConfig
}

// NewStatsService constructs a StatsService with sane defaults.
func NewStatsService(st store.Store, logger *zap.Logger, cfg StatsServiceConfig) *StatsService {
	if cfg.SeatsPerCourse <= 0 {
		cfg.SeatsPerCourse = 30
	}
	if cfg.TopCoursesLimit <= 0 {
		cfg.TopCoursesLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{store: st, logger: logger, now: time.Now, cfg: cfg}
}

// Snapshot composes the aggregate payload. topN overrides the configured
// most-registered-courses limit when positive.
func (s *StatsService) Snapshot(ctx context.Context, topN int) (*dto.StatsSnapshot, error) {
	var snap *dto.StatsSnapshot
	err := s.store.View(ctx, func(tx store.Tx) error {
		students, err := tx.ListStudents()
		if err != nil {
			return err
		}
		courses, err := tx.ListCourses()
		if err != nil {
			return err
		}
		regs, err := tx.ListRegistrations()
		if err != nil {
			return err
		}
		snap = s.compose(students, courses, regs, topN)
		return nil
	})
	if err != nil {
		return nil, coerce(err, "failed to compute stats")
	}
	return snap, nil
}

func (s *StatsService) compose(students []models.Student, courses []models.Course, regs []models.Registration, topN int) *dto.StatsSnapshot {
	if topN <= 0 {
		topN = s.cfg.TopCoursesLimit
	}
	totalByCourse := make(map[string]int, len(courses))
	activeByCourse := make(map[string]int, len(courses))
	breakdown := map[models.RegistrationStatus]int{
		models.RegistrationStatusActive:    0,
		models.RegistrationStatusCompleted: 0,
		models.RegistrationStatusWithdrawn: 0,
	}
	activeTotal := 0
	for _, r := range regs {
		totalByCourse[r.CourseID]++
		breakdown[r.Status]++
		if r.Status == models.RegistrationStatusActive {
			activeByCourse[r.CourseID]++
			activeTotal++
		}
	}

	available := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if activeByCourse[c.ID] < c.MaxStudents {
			available = append(available, c)
		}
	}

	return &dto.StatsSnapshot{
		Totals: dto.TotalCounts{
			Students:      len(students),
			Courses:       len(courses),
			Registrations: len(regs),
		},
		AvailableCourses:    available,
		CapacityUtilization: s.utilization(activeTotal, len(courses)),
		TopCourses:          topCourses(courses, totalByCourse, topN),
		StatusBreakdown:     breakdown,
		GeneratedAt:         s.now().UTC(),
	}
}

// utilization is activeRegistrations / (courses * assumed seats) as a
// percentage, clamped to [0,100] for display.
func (s *StatsService) utilization(activeRegs, courseCount int) float64 {
	if courseCount == 0 {
		return 0
	}
	pct := float64(activeRegs) / float64(courseCount*s.cfg.SeatsPerCourse) * 100
	pct = math.Round(pct)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// topCourses ranks courses by registration count descending, ties broken by
// course code ascending, truncated to n.
func topCourses(courses []models.Course, counts map[string]int, n int) []dto.CourseRegistrationCount {
	ranked := make([]dto.CourseRegistrationCount, 0, len(courses))
	for _, c := range courses {
		ranked = append(ranked, dto.CourseRegistrationCount{
			CourseID:      c.ID,
			Code:          c.Code,
			Title:         c.Title,
			Registrations: counts[c.ID],
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Registrations != ranked[j].Registrations {
			return ranked[i].Registrations > ranked[j].Registrations
		}
		return ranked[i].Code < ranked[j].Code
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
