package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/ports"
)

const dayLayout = "2006-01-02"

// Service manages the working calendar: per-user time off and the holiday
// override table the capacity reports read from.
type Service struct {
	calendar ports.CalendarRepository
	users    ports.UserRepository
}

func NewService(calendarRepo ports.CalendarRepository, users ports.UserRepository) *Service {
	return &Service{calendar: calendarRepo, users: users}
}

type TimeOffInput struct {
	UserID uint64
	Day    string
	Kind   string
	Note   string
}

func (s *Service) AddTimeOff(ctx context.Context, input TimeOffInput) (ports.TimeOff, error) {
	if ctx == nil {
		return ports.TimeOff{}, errors.New("context is required")
	}

	kind, err := workflow.ParseTimeOffKind(input.Kind)
	if err != nil {
		return ports.TimeOff{}, err
	}
	day, err := time.Parse(dayLayout, strings.TrimSpace(input.Day))
	if err != nil {
		return ports.TimeOff{}, errs.Wrap(err, "parse time-off day")
	}

	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return ports.TimeOff{}, err
	}

	return s.calendar.CreateTimeOff(ctx, ports.TimeOffCreate{
		UserID: input.UserID,
		Day:    day.Format(dayLayout),
		Kind:   kind,
		Note:   strings.TrimSpace(input.Note),
	})
}

func (s *Service) RemoveTimeOff(ctx context.Context, id uint64) (bool, error) {
	return s.calendar.DeleteTimeOff(ctx, id)
}

func (s *Service) ListTimeOffs(ctx context.Context, userID uint64, from, to string) ([]ports.TimeOff, error) {
	if userID == 0 {
		return s.calendar.ListAllTimeOffs(ctx, from, to)
	}
	return s.calendar.ListTimeOffs(ctx, userID, from, to)
}

// holidayFile is the import format: one document per year.
//
//	year: 2026
//	holidays:
//	  - day: 2026-10-01
//	    name: public holiday
//	  - day: 2026-10-10
//	    name: makeup workday
//	    workday: true
type holidayFile struct {
	Year     int            `yaml:"year"`
	Holidays []holidayEntry `yaml:"holidays"`
}

type holidayEntry struct {
	Day     string `yaml:"day"`
	Name    string `yaml:"name"`
	Workday bool   `yaml:"workday"`
}

// ImportHolidaysYAML replaces the stored holiday table for the file's year.
func (s *Service) ImportHolidaysYAML(ctx context.Context, r io.Reader) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}

	var file holidayFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return 0, errs.Wrap(err, "decode holiday yaml")
	}
	if file.Year == 0 {
		return 0, errors.New("holiday file is missing the year")
	}

	entries := make([]ports.Holiday, 0, len(file.Holidays))
	for _, entry := range file.Holidays {
		day, err := time.Parse(dayLayout, strings.TrimSpace(entry.Day))
		if err != nil {
			return 0, errs.Wrapf(err, "parse holiday day %q", entry.Day)
		}
		if day.Year() != file.Year {
			return 0, errors.New("holiday " + entry.Day + " is outside the file year")
		}
		entries = append(entries, ports.Holiday{
			Day:     day.Format(dayLayout),
			Name:    strings.TrimSpace(entry.Name),
			Workday: entry.Workday,
		})
	}

	if err := s.calendar.ReplaceHolidays(ctx, file.Year, entries); err != nil {
		return 0, err
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "usecase.calendar")),
		"holidays imported",
		slog.Int("year", file.Year),
		slog.Int("entries", len(entries)),
	)
	return len(entries), nil
}

func (s *Service) ListHolidays(ctx context.Context, from, to string) ([]ports.Holiday, error) {
	return s.calendar.ListHolidays(ctx, from, to)
}
