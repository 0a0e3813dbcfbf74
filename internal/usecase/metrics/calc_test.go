package metrics

import (
	"testing"
	"time"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarOverridesBeatWeekdayRule(t *testing.T) {
	cal := NewCalendar([]ports.Holiday{
		{Day: "2026-08-03", Name: "observed holiday", Workday: false}, // a Monday
		{Day: "2026-08-08", Name: "makeup day", Workday: true},       // a Saturday
	})

	if cal.IsWorkday(day("2026-08-03")) {
		t.Fatal("overridden Monday must not be a workday")
	}
	if !cal.IsWorkday(day("2026-08-08")) {
		t.Fatal("makeup Saturday must be a workday")
	}
	if !cal.IsWorkday(day("2026-08-04")) {
		t.Fatal("plain Tuesday must be a workday")
	}
	if cal.IsWorkday(day("2026-08-09")) {
		t.Fatal("plain Sunday must not be a workday")
	}
}

func TestCountWorkdays(t *testing.T) {
	cal := NewCalendar([]ports.Holiday{
		{Day: "2026-08-03", Workday: false},
	})

	// Mon 3rd (holiday) through Sun 9th: Tue-Fri plus the weekend off.
	if got := cal.CountWorkdays(day("2026-08-03"), day("2026-08-09")); got != 4 {
		t.Fatalf("expected 4 workdays, got %d", got)
	}

	if got := cal.CountWorkdays(day("2026-08-09"), day("2026-08-03")); got != 0 {
		t.Fatalf("inverted range must count 0, got %d", got)
	}
}

func TestAvailableHours(t *testing.T) {
	cal := NewCalendar(nil)
	from, to := day("2026-08-03"), day("2026-08-07") // Mon-Fri

	base := AvailableHours(cal, from, to, 8, nil)
	if base != 40 {
		t.Fatalf("expected 40 hours, got %v", base)
	}

	withTimeOff := AvailableHours(cal, from, to, 8, []ports.TimeOff{
		{Day: "2026-08-04", Kind: workflow.TimeOffVacation},
		{Day: "2026-08-05", Kind: workflow.TimeOffHalfDay},
		{Day: "2026-08-08", Kind: workflow.TimeOffVacation}, // Saturday deducts nothing
		{Day: "2026-09-01", Kind: workflow.TimeOffVacation}, // outside the range
	})
	if withTimeOff != 28 {
		t.Fatalf("expected 28 hours, got %v", withTimeOff)
	}
}

func TestAvailableHoursNeverNegative(t *testing.T) {
	cal := NewCalendar(nil)
	from, to := day("2026-08-03"), day("2026-08-03")

	got := AvailableHours(cal, from, to, 8, []ports.TimeOff{
		{Day: "2026-08-03", Kind: workflow.TimeOffVacation},
		{Day: "2026-08-03", Kind: workflow.TimeOffVacation},
	})
	if got != 0 {
		t.Fatalf("expected clamp at 0, got %v", got)
	}
}

func TestUtilization(t *testing.T) {
	if got := Utilization(3600*20, 40); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if got := Utilization(3600, 0); got != 0 {
		t.Fatalf("zero capacity must yield 0, got %v", got)
	}
}

func TestManDays(t *testing.T) {
	if got := ManDays(3600*12, 8); got != 1.5 {
		t.Fatalf("expected 1.5 man-days, got %v", got)
	}
	if got := ManDays(3600, 0); got != 0 {
		t.Fatalf("zero workday length must yield 0, got %v", got)
	}
}

func TestDifficultyWeight(t *testing.T) {
	cases := []struct {
		difficulty workflow.Difficulty
		want       float64
	}{
		{workflow.DifficultyEasy, 0.5},
		{workflow.DifficultyNormal, 1},
		{workflow.DifficultyHard, 1.5},
		{workflow.DifficultyVeryHard, 2},
		{workflow.Difficulty("UNKNOWN"), 1},
	}
	for _, tc := range cases {
		if got := DifficultyWeight(tc.difficulty); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.difficulty, tc.want, got)
		}
	}
}

func TestQcAgreementTally(t *testing.T) {
	var agreement QcAgreement
	agreement.Tally(workflow.QcPass, workflow.EventApprove)      // agreed
	agreement.Tally(workflow.QcPass, workflow.EventReject)       // false pass
	agreement.Tally(workflow.QcWarn, workflow.EventApprove)      // false fail
	agreement.Tally(workflow.QcIncomplete, workflow.EventReject) // agreed

	if agreement.Total != 4 {
		t.Fatalf("expected 4 tallied, got %d", agreement.Total)
	}
	if agreement.Agreed != 2 || agreement.FalsePass != 1 || agreement.FalseFail != 1 {
		t.Fatalf("unexpected buckets: %+v", agreement)
	}
}
