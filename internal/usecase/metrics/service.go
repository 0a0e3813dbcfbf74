package metrics

import (
	"context"
	"errors"
	"time"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/settings"
)

// Service assembles the capacity, performance, and quality reports. All
// arithmetic lives in the pure functions in calc.go; this layer only gathers
// rows.
type Service struct {
	cases    ports.CaseRepository
	worklogs ports.WorkLogRepository
	users    ports.UserRepository
	qc       ports.QcRepository
	calendar ports.CalendarRepository
	settings *settings.Store
}

func NewService(
	cases ports.CaseRepository,
	worklogs ports.WorkLogRepository,
	users ports.UserRepository,
	qcRepo ports.QcRepository,
	calendarRepo ports.CalendarRepository,
	store *settings.Store,
) *Service {
	return &Service{
		cases:    cases,
		worklogs: worklogs,
		users:    users,
		qc:       qcRepo,
		calendar: calendarRepo,
		settings: store,
	}
}

type UserCapacity struct {
	UserID         uint64  `json:"user_id"`
	Username       string  `json:"username"`
	WorkedSeconds  int64   `json:"worked_seconds"`
	WorkedManDays  float64 `json:"worked_man_days"`
	AvailableHours float64 `json:"available_hours"`
	Utilization    float64 `json:"utilization"`
}

type CapacityReport struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Workdays int            `json:"workdays"`
	Users    []UserCapacity `json:"users"`
}

// Capacity reports per-worker utilization over [from, to] inclusive.
func (s *Service) Capacity(ctx context.Context, from, to time.Time) (CapacityReport, error) {
	if ctx == nil {
		return CapacityReport{}, errors.New("context is required")
	}
	if to.Before(from) {
		return CapacityReport{}, errors.New("report range is inverted")
	}

	holidays, err := s.calendar.ListHolidays(ctx, from.Format(dayLayout), to.Format(dayLayout))
	if err != nil {
		return CapacityReport{}, errs.Wrap(err, "list holidays")
	}
	cal := NewCalendar(holidays)
	workdayHours := s.settings.WorkdayHours(ctx)

	slices, err := s.worklogs.SumSecondsByUserDay(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return CapacityReport{}, errs.Wrap(err, "sum work slices")
	}
	secondsByUser := make(map[uint64]int64)
	for _, slice := range slices {
		secondsByUser[slice.UserID] += slice.Seconds
	}

	timeOffs, err := s.calendar.ListAllTimeOffs(ctx, from.Format(dayLayout), to.Format(dayLayout))
	if err != nil {
		return CapacityReport{}, errs.Wrap(err, "list time-offs")
	}
	timeOffsByUser := make(map[uint64][]ports.TimeOff)
	for _, t := range timeOffs {
		timeOffsByUser[t.UserID] = append(timeOffsByUser[t.UserID], t)
	}

	workers, err := s.users.List(ctx, true)
	if err != nil {
		return CapacityReport{}, errs.Wrap(err, "list users")
	}

	report := CapacityReport{
		From:     from.Format(dayLayout),
		To:       to.Format(dayLayout),
		Workdays: cal.CountWorkdays(from, to),
	}
	for _, u := range workers {
		if u.Role != workflow.RoleWorker {
			continue
		}
		worked := secondsByUser[u.ID]
		available := AvailableHours(cal, from, to, workdayHours, timeOffsByUser[u.ID])
		report.Users = append(report.Users, UserCapacity{
			UserID:         u.ID,
			Username:       u.Username,
			WorkedSeconds:  worked,
			WorkedManDays:  ManDays(worked, workdayHours),
			AvailableHours: available,
			Utilization:    Utilization(worked, available),
		})
	}
	return report, nil
}

type UserPerformance struct {
	UserID             uint64  `json:"user_id"`
	Username           string  `json:"username"`
	AcceptedCases      int     `json:"accepted_cases"`
	WeightedThroughput float64 `json:"weighted_throughput"`
	InFlightCases      int     `json:"in_flight_cases"`
	WorkedSeconds      int64   `json:"worked_seconds"`
	SecondsPerAccepted float64 `json:"seconds_per_accepted"`
}

type PerformanceReport struct {
	Users []UserPerformance `json:"users"`
}

// Performance reports accepted counts, difficulty-weighted throughput, and
// cost per accepted case for every active worker.
func (s *Service) Performance(ctx context.Context) (PerformanceReport, error) {
	if ctx == nil {
		return PerformanceReport{}, errors.New("context is required")
	}

	workers, err := s.users.List(ctx, true)
	if err != nil {
		return PerformanceReport{}, errs.Wrap(err, "list users")
	}

	var report PerformanceReport
	for _, u := range workers {
		if u.Role != workflow.RoleWorker {
			continue
		}

		assigned, _, err := s.cases.List(ctx, ports.CaseFilter{AssignedUserID: &u.ID})
		if err != nil {
			return PerformanceReport{}, errs.Wrap(err, "list assigned cases")
		}

		perf := UserPerformance{UserID: u.ID, Username: u.Username}
		for _, c := range assigned {
			switch c.Status {
			case workflow.StatusAccepted:
				perf.AcceptedCases++
				perf.WeightedThroughput += DifficultyWeight(c.Difficulty)
			case workflow.StatusTodo:
			default:
				perf.InFlightCases++
			}

			seconds, err := s.worklogs.SumSecondsForCase(ctx, c.ID)
			if err != nil {
				return PerformanceReport{}, errs.Wrap(err, "sum case seconds")
			}
			perf.WorkedSeconds += seconds
		}
		if perf.AcceptedCases > 0 {
			perf.SecondsPerAccepted = float64(perf.WorkedSeconds) / float64(perf.AcceptedCases)
		}
		report.Users = append(report.Users, perf)
	}
	return report, nil
}

type QcReport struct {
	Agreement QcAgreement `json:"agreement"`
}

// Quality compares automated-check verdicts against reviewer decisions for
// every case that has both.
func (s *Service) Quality(ctx context.Context, since time.Time) (QcReport, error) {
	if ctx == nil {
		return QcReport{}, errors.New("context is required")
	}

	summaries, err := s.qc.ListSince(ctx, since)
	if err != nil {
		return QcReport{}, errs.Wrap(err, "list qc summaries")
	}

	var report QcReport
	for _, summary := range summaries {
		if summary.Kind != workflow.QcKindAutoCheck {
			continue
		}

		events, err := s.cases.ListEvents(ctx, summary.CaseID)
		if err != nil {
			return QcReport{}, errs.Wrap(err, "list case events")
		}

		// The last reviewer decision wins when a case looped through rework.
		var review workflow.EventType
		for _, e := range events {
			if e.EventType == workflow.EventApprove || e.EventType == workflow.EventReject {
				review = e.EventType
			}
		}
		if review == "" {
			continue
		}
		report.Agreement.Tally(summary.Classification, review)
	}
	return report, nil
}
