package metrics

import (
	"time"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
)

const dayLayout = "2006-01-02"

// Calendar is the resolved working calendar for a date range: holiday
// overrides keyed by day, weekdays elsewhere.
type Calendar struct {
	overrides map[string]bool
}

func NewCalendar(holidays []ports.Holiday) Calendar {
	overrides := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		overrides[h.Day] = h.Workday
	}
	return Calendar{overrides: overrides}
}

// IsWorkday applies the override table first, then the weekday rule.
func (c Calendar) IsWorkday(day time.Time) bool {
	if workday, ok := c.overrides[day.Format(dayLayout)]; ok {
		return workday
	}
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// CountWorkdays counts working days in [from, to] inclusive.
func (c Calendar) CountWorkdays(from, to time.Time) int {
	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if c.IsWorkday(day) {
			count++
		}
	}
	return count
}

// AvailableHours computes one user's capacity over [from, to]: workdays times
// the workday length, minus time-off deductions. Time off on a non-workday
// deducts nothing.
func AvailableHours(cal Calendar, from, to time.Time, workdayHours float64, timeOffs []ports.TimeOff) float64 {
	hours := float64(cal.CountWorkdays(from, to)) * workdayHours
	for _, t := range timeOffs {
		day, err := time.Parse(dayLayout, t.Day)
		if err != nil {
			continue
		}
		if day.Before(from) || day.After(to) || !cal.IsWorkday(day) {
			continue
		}
		hours -= t.Kind.Hours()
	}
	if hours < 0 {
		hours = 0
	}
	return hours
}

// Utilization is worked hours over available hours. Zero capacity yields
// zero rather than a division error.
func Utilization(workedSeconds int64, availableHours float64) float64 {
	if availableHours <= 0 {
		return 0
	}
	return (float64(workedSeconds) / 3600) / availableHours
}

// ManDays converts ledger seconds into man-days of the given workday length.
func ManDays(seconds int64, workdayHours float64) float64 {
	if workdayHours <= 0 {
		return 0
	}
	return float64(seconds) / 3600 / workdayHours
}

// DifficultyWeight scales throughput so a hard case counts for more than an
// easy one.
func DifficultyWeight(d workflow.Difficulty) float64 {
	switch d {
	case workflow.DifficultyEasy:
		return 0.5
	case workflow.DifficultyHard:
		return 1.5
	case workflow.DifficultyVeryHard:
		return 2
	default:
		return 1
	}
}

// QcAgreement compares the automated verdict against the reviewer outcome.
type QcAgreement struct {
	Total     int
	Agreed    int
	FalsePass int
	FalseFail int
}

// Tally classifies one (classification, reviewer event) pair into the
// agreement buckets. A PASS later rejected is a false pass; a non-PASS that
// still got accepted is a false fail.
func (q *QcAgreement) Tally(classification workflow.QcClassification, review workflow.EventType) {
	q.Total++
	switch {
	case classification == workflow.QcPass && review == workflow.EventReject:
		q.FalsePass++
	case classification != workflow.QcPass && review == workflow.EventApprove:
		q.FalseFail++
	default:
		q.Agreed++
	}
}
