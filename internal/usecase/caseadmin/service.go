package caseadmin

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/ports"
)

// Service covers the administrative surface: registering cases and users,
// assignment, tagging, and read views.
type Service struct {
	uow      ports.UnitOfWork
	cases    ports.CaseRepository
	projects ports.ProjectRepository
	tags     ports.TagRepository
	users    ports.UserRepository
	worklogs ports.WorkLogRepository
	qc       ports.QcRepository
}

func NewService(
	uow ports.UnitOfWork,
	cases ports.CaseRepository,
	projects ports.ProjectRepository,
	tags ports.TagRepository,
	users ports.UserRepository,
	worklogs ports.WorkLogRepository,
	qcRepo ports.QcRepository,
) *Service {
	return &Service{
		uow:      uow,
		cases:    cases,
		projects: projects,
		tags:     tags,
		users:    users,
		worklogs: worklogs,
		qc:       qcRepo,
	}
}

type RegisterCaseInput struct {
	CaseUID      string
	DisplayName  string
	Hospital     string
	Project      string
	Difficulty   string
	MetadataJSON string
}

// RegisterCase creates one case in TODO at revision zero.
func (s *Service) RegisterCase(ctx context.Context, input RegisterCaseInput) (ports.Case, error) {
	if ctx == nil {
		return ports.Case{}, errors.New("context is required")
	}
	if strings.TrimSpace(input.CaseUID) == "" {
		return ports.Case{}, errors.New("case uid is required")
	}

	difficulty, err := workflow.ParseDifficulty(input.Difficulty)
	if err != nil {
		return ports.Case{}, err
	}

	metadata := strings.TrimSpace(input.MetadataJSON)
	if metadata == "" {
		metadata = "{}"
	}

	var created ports.Case
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		projectID, err := s.projects.GetOrCreate(txCtx, input.Project)
		if err != nil {
			return err
		}

		c, err := s.cases.Create(txCtx, ports.CaseCreate{
			CaseUID:      input.CaseUID,
			DisplayName:  strings.TrimSpace(input.DisplayName),
			Hospital:     strings.TrimSpace(input.Hospital),
			ProjectID:    projectID,
			Difficulty:   difficulty,
			MetadataJSON: metadata,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return ports.Case{}, err
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "usecase.caseadmin")),
		"case registered",
		slog.Uint64("case_id", created.ID),
		slog.String("case_uid", created.CaseUID),
	)
	return created, nil
}

type ImportSummary struct {
	Created    int
	Duplicates int
	Failed     []string
}

// ImportCSV bulk-registers cases from a header-driven CSV stream. Expected
// columns: case_uid, display_name, hospital, project, difficulty. A row that
// collides on case_uid is counted, not fatal.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportSummary, error) {
	if ctx == nil {
		return ImportSummary{}, errors.New("context is required")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportSummary{}, errs.Wrap(err, "read csv header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["case_uid"]; !ok {
		return ImportSummary{}, errors.New("csv is missing the case_uid column")
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var summary ImportSummary
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, errs.Wrap(err, "read csv record")
		}

		uid := strings.TrimSpace(field(record, "case_uid"))
		_, err = s.RegisterCase(ctx, RegisterCaseInput{
			CaseUID:     uid,
			DisplayName: field(record, "display_name"),
			Hospital:    field(record, "hospital"),
			Project:     field(record, "project"),
			Difficulty:  field(record, "difficulty"),
		})
		switch {
		case err == nil:
			summary.Created++
		case errors.Is(err, workflow.ErrDuplicateCaseUID):
			summary.Duplicates++
		default:
			summary.Failed = append(summary.Failed, uid+": "+err.Error())
		}
	}
	return summary, nil
}

// Assign hands a case to a worker. Only active workers are assignable.
func (s *Service) Assign(ctx context.Context, caseID, userID uint64) (ports.Case, error) {
	if ctx == nil {
		return ports.Case{}, errors.New("context is required")
	}

	var updated ports.Case
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		if !user.Active {
			return workflow.ErrInactiveUser
		}
		if user.Role != workflow.RoleWorker {
			return workflow.ErrNotAssignableRole
		}

		if err := s.cases.SetAssignee(txCtx, caseID, userID); err != nil {
			return err
		}

		updated, err = s.cases.GetByID(txCtx, caseID)
		return err
	})
	if err != nil {
		return ports.Case{}, err
	}
	return updated, nil
}

type CaseDetail struct {
	Case         ports.Case
	ProjectName  string
	Tags         []string
	Events       []ports.Event
	WorkLogs     []ports.WorkLog
	QcSummaries  []ports.QcSummary
	TotalSeconds int64
}

// Detail assembles the full read view for one case.
func (s *Service) Detail(ctx context.Context, caseID uint64) (CaseDetail, error) {
	if ctx == nil {
		return CaseDetail{}, errors.New("context is required")
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return CaseDetail{}, err
	}

	detail := CaseDetail{Case: c}
	if detail.ProjectName, err = s.projects.GetName(ctx, c.ProjectID); err != nil {
		return CaseDetail{}, err
	}
	if detail.Tags, err = s.tags.ListCaseTags(ctx, caseID); err != nil {
		return CaseDetail{}, err
	}
	if detail.Events, err = s.cases.ListEvents(ctx, caseID); err != nil {
		return CaseDetail{}, err
	}
	if detail.WorkLogs, err = s.worklogs.ListForCase(ctx, caseID); err != nil {
		return CaseDetail{}, err
	}
	if detail.QcSummaries, err = s.qc.ListForCase(ctx, caseID); err != nil {
		return CaseDetail{}, err
	}
	if detail.TotalSeconds, err = s.worklogs.SumSecondsForCase(ctx, caseID); err != nil {
		return CaseDetail{}, err
	}
	return detail, nil
}

// List filters cases, optionally narrowing to one tag first.
func (s *Service) List(ctx context.Context, filter ports.CaseFilter, tag string) ([]ports.Case, int64, error) {
	if ctx == nil {
		return nil, 0, errors.New("context is required")
	}

	if strings.TrimSpace(tag) == "" {
		return s.cases.List(ctx, filter)
	}

	ids, err := s.tags.ListCaseIDsByTag(ctx, tag)
	if err != nil {
		return nil, 0, err
	}
	wanted := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	all, _, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]ports.Case, 0, len(all))
	for _, c := range all {
		if _, ok := wanted[c.ID]; ok {
			filtered = append(filtered, c)
		}
	}
	return filtered, int64(len(filtered)), nil
}

func (s *Service) AddTag(ctx context.Context, caseID uint64, tag string) (bool, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return false, err
	}
	return s.tags.Apply(ctx, caseID, tag, time.Now().UTC())
}

func (s *Service) RemoveTag(ctx context.Context, caseID uint64, tag string) (bool, error) {
	return s.tags.Remove(ctx, caseID, tag)
}

func (s *Service) ListTags(ctx context.Context) ([]string, error) {
	return s.tags.ListTags(ctx)
}

type RegisterUserInput struct {
	Username    string
	DisplayName string
	Role        string
}

// RegisterUser creates a user and mints a fresh API key for them.
func (s *Service) RegisterUser(ctx context.Context, input RegisterUserInput) (ports.User, error) {
	if ctx == nil {
		return ports.User{}, errors.New("context is required")
	}
	if strings.TrimSpace(input.Username) == "" {
		return ports.User{}, errors.New("username is required")
	}

	role := workflow.Role(strings.ToUpper(strings.TrimSpace(input.Role)))
	if role != workflow.RoleAdmin && role != workflow.RoleWorker {
		role = workflow.RoleWorker
	}

	display := strings.TrimSpace(input.DisplayName)
	if display == "" {
		display = strings.TrimSpace(input.Username)
	}

	_, exists, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return ports.User{}, err
	}
	if exists {
		return ports.User{}, errors.New("username already registered")
	}

	return s.users.Create(ctx, ports.UserCreate{
		Username:    input.Username,
		DisplayName: display,
		Role:        role,
		APIKey:      uuid.NewString(),
	})
}

// EnsureAdmin seeds the admin account tied to the configured bootstrap key,
// so engine-facing calls always resolve to a real user row.
func (s *Service) EnsureAdmin(ctx context.Context, apiKey string) (ports.User, error) {
	if ctx == nil {
		return ports.User{}, errors.New("context is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return ports.User{}, errors.New("admin api key is required")
	}

	existing, found, err := s.users.GetByUsername(ctx, "admin")
	if err != nil {
		return ports.User{}, err
	}
	if found {
		return existing, nil
	}

	return s.users.Create(ctx, ports.UserCreate{
		Username:    "admin",
		DisplayName: "Administrator",
		Role:        workflow.RoleAdmin,
		APIKey:      apiKey,
	})
}

// UserOverview pairs a user with how many cases they currently hold an open
// work session on.
type UserOverview struct {
	User         ports.User
	OpenSessions int64
}

func (s *Service) ListUsers(ctx context.Context, activeOnly bool) ([]UserOverview, error) {
	users, err := s.users.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	out := make([]UserOverview, 0, len(users))
	for _, u := range users {
		open, err := s.worklogs.CountOpenByUser(ctx, u.ID)
		if err != nil {
			return nil, errs.Wrap(err, "count open sessions")
		}
		out = append(out, UserOverview{User: u, OpenSessions: open})
	}
	return out, nil
}

func (s *Service) SetUserActive(ctx context.Context, id uint64, active bool) error {
	return s.users.SetActive(ctx, id, active)
}
