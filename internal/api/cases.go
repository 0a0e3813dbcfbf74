package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/caseadmin"
)

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter ports.CaseFilter
	if raw := q.Get("status"); raw != "" {
		status, err := workflow.ParseStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Status = &status
	}
	if raw := q.Get("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(w, "project_id must be numeric")
			return
		}
		filter.ProjectID = &id
	}
	if raw := q.Get("assigned_to"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(w, "assigned_to must be numeric")
			return
		}
		filter.AssignedUserID = &id
	}
	filter.Limit = intQuery(q.Get("limit"), 100)
	filter.Offset = intQuery(q.Get("offset"), 0)

	cases, total, err := s.admin.List(r.Context(), filter, q.Get("tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]caseBody, 0, len(cases))
	for _, c := range cases {
		items = append(items, toCaseBody(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cases": items,
		"total": total,
	})
}

func (s *Server) handleCaseDetail(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}

	detail, err := s.admin.Detail(r.Context(), caseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	events := make([]eventBody, 0, len(detail.Events))
	for _, e := range detail.Events {
		events = append(events, toEventBody(e))
	}
	worklogs := make([]worklogEntryBody, 0, len(detail.WorkLogs))
	for _, entry := range detail.WorkLogs {
		worklogs = append(worklogs, toWorkLogBody(entry))
	}
	summaries := make([]qcSummaryBody, 0, len(detail.QcSummaries))
	for _, summary := range detail.QcSummaries {
		summaries = append(summaries, toQcSummaryBody(summary))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"case":          toCaseBody(detail.Case),
		"project":       detail.ProjectName,
		"tags":          detail.Tags,
		"events":        events,
		"worklogs":      worklogs,
		"qc_summaries":  summaries,
		"total_seconds": detail.TotalSeconds,
	})
}

func (s *Server) handleListCaseEvents(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}

	events, err := s.cases.ListEvents(r.Context(), caseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]eventBody, 0, len(events))
	for _, e := range events {
		items = append(items, toEventBody(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

func (s *Server) handleListCaseWorkLogs(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}

	entries, err := s.worklogs.ListForCase(r.Context(), caseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]worklogEntryBody, 0, len(entries))
	var total int64
	for _, entry := range entries {
		items = append(items, toWorkLogBody(entry))
		total += entry.Seconds
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"worklogs":      items,
		"total_seconds": total,
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r.URL.Query().Get("limit"), 50)

	events, err := s.cases.ListRecentEvents(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]eventBody, 0, len(events))
	for _, e := range events {
		items = append(items, toEventBody(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

type registerCaseRequest struct {
	CaseUID     string  `json:"case_uid"`
	DisplayName string  `json:"display_name"`
	Hospital    string  `json:"hospital"`
	Project     string  `json:"project"`
	Difficulty  string  `json:"difficulty"`
	Metadata    payload `json:"metadata"`
}

func (s *Server) handleRegisterCase(w http.ResponseWriter, r *http.Request) {
	var req registerCaseRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	created, err := s.admin.RegisterCase(r.Context(), caseadmin.RegisterCaseInput{
		CaseUID:      req.CaseUID,
		DisplayName:  req.DisplayName,
		Hospital:     req.Hospital,
		Project:      req.Project,
		Difficulty:   req.Difficulty,
		MetadataJSON: req.Metadata.raw(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCaseBody(created))
}

func (s *Server) handleImportCases(w http.ResponseWriter, r *http.Request) {
	summary, err := s.admin.ImportCSV(r.Context(), r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"created":    summary.Created,
		"duplicates": summary.Duplicates,
		"failed":     summary.Failed,
	})
}

type assignRequest struct {
	UserID uint64 `json:"user_id"`
}

func (s *Server) handleAssignCase(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}

	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.UserID == 0 {
		badRequest(w, "user_id is required")
		return
	}

	updated, err := s.admin.Assign(r.Context(), caseID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseBody(updated))
}

type tagRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}

	var req tagRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.Tag == "" {
		badRequest(w, "tag is required")
		return
	}

	applied, err := s.admin.AddTag(r.Context(), caseID, req.Tag)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}

	removed, err := s.admin.RemoveTag(r.Context(), caseID, chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.admin.ListTags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

type registerUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type userBody struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Active       bool   `json:"active"`
	OpenSessions int64  `json:"open_sessions"`
	APIKey       string `json:"api_key,omitempty"`
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	created, err := s.admin.RegisterUser(r.Context(), caseadmin.RegisterUserInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The key is shown once at creation and never listed again.
	writeJSON(w, http.StatusCreated, userBody{
		ID:          created.ID,
		Username:    created.Username,
		DisplayName: created.DisplayName,
		Role:        string(created.Role),
		Active:      created.Active,
		APIKey:      created.APIKey,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	users, err := s.admin.ListUsers(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]userBody, 0, len(users))
	for _, u := range users {
		items = append(items, userBody{
			ID:           u.User.ID,
			Username:     u.User.Username,
			DisplayName:  u.User.DisplayName,
			Role:         string(u.User.Role),
			Active:       u.User.Active,
			OpenSessions: u.OpenSessions,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": items})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	if err := s.admin.SetUserActive(r.Context(), userID, req.Active); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		badRequest(w, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
