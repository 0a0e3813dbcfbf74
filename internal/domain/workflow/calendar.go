package workflow

import "strings"

// TimeOffKind classifies an absence entry. Kinds deduct a fixed number of
// hours from the day's available capacity.
type TimeOffKind string

const (
	TimeOffVacation TimeOffKind = "VACATION"
	TimeOffHalfDay  TimeOffKind = "HALF_DAY"
)

func ParseTimeOffKind(s string) (TimeOffKind, error) {
	switch TimeOffKind(strings.ToUpper(strings.TrimSpace(s))) {
	case TimeOffVacation:
		return TimeOffVacation, nil
	case TimeOffHalfDay:
		return TimeOffHalfDay, nil
	}
	return "", ErrInvalidTimeOffKind
}

// Hours returns the capacity deduction of the kind.
func (k TimeOffKind) Hours() float64 {
	if k == TimeOffHalfDay {
		return 4
	}
	return 8
}
