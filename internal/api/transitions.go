package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/engine"
	"casetrack/internal/usecase/qc"
	"casetrack/internal/usecase/worklog"
)

type transitionRequest struct {
	CaseID           uint64  `json:"case_id"`
	CaseUID          string  `json:"case_uid"`
	EventType        string  `json:"event_type"`
	IdempotencyKey   string  `json:"idempotency_key"`
	ExpectedRevision *int64  `json:"expected_revision"`
	Payload          payload `json:"payload"`
}

type caseBody struct {
	ID          uint64  `json:"id"`
	CaseUID     string  `json:"case_uid"`
	DisplayName string  `json:"display_name"`
	Hospital    string  `json:"hospital"`
	ProjectID   uint64  `json:"project_id"`
	Difficulty  string  `json:"difficulty"`
	Status      string  `json:"status"`
	Revision    int64   `json:"revision"`
	AssignedTo  *uint64 `json:"assigned_to,omitempty"`
	StartedAt   *string `json:"started_at,omitempty"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
	AcceptedAt  *string `json:"accepted_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type eventBody struct {
	ID             uint64 `json:"id"`
	CaseID         uint64 `json:"case_id"`
	ActorID        uint64 `json:"actor_id"`
	EventType      string `json:"event_type"`
	IdempotencyKey string `json:"idempotency_key"`
	StatusBefore   string `json:"status_before"`
	StatusAfter    string `json:"status_after"`
	CreatedAt      string `json:"created_at"`
}

type transitionResponse struct {
	Case     caseBody  `json:"case"`
	Event    eventBody `json:"event"`
	Replayed bool      `json:"replayed"`
}

func (s *Server) handleApplyTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	user, _ := userFrom(r.Context())

	caseID := req.CaseID
	if caseID == 0 && req.CaseUID != "" {
		c, err := s.cases.GetByUID(r.Context(), req.CaseUID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		caseID = c.ID
	}
	if caseID == 0 {
		badRequest(w, "case_id or case_uid is required")
		return
	}

	eventType, err := workflow.ParseEventType(req.EventType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	result, err := s.engine.ApplyTransition(r.Context(), engine.TransitionInput{
		CaseID:           caseID,
		EventType:        eventType,
		IdempotencyKey:   key,
		ActorID:          user.ID,
		ExpectedRevision: req.ExpectedRevision,
		PayloadJSON:      req.Payload.raw(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transitionResponse{
		Case:     toCaseBody(result.Case),
		Event:    toEventBody(result.Event),
		Replayed: result.Replayed,
	})
}

type worklogRequest struct {
	CaseID uint64 `json:"case_id"`
	Action string `json:"action"`
}

type worklogEntryBody struct {
	ID        uint64  `json:"id"`
	CaseID    uint64  `json:"case_id"`
	UserID    uint64  `json:"user_id"`
	Action    string  `json:"action"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
	Seconds   int64   `json:"seconds"`
}

type worklogResponse struct {
	Entry        worklogEntryBody  `json:"entry"`
	ClosedEntry  *worklogEntryBody `json:"closed_entry,omitempty"`
	TotalSeconds int64             `json:"total_seconds"`
}

func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	var req worklogRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.CaseID == 0 {
		badRequest(w, "case_id is required")
		return
	}

	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, _ := userFrom(r.Context())
	result, err := s.worklogs.RecordAction(r.Context(), worklog.ActionInput{
		CaseID:  req.CaseID,
		ActorID: user.ID,
		Action:  action,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := worklogResponse{
		Entry:        toWorkLogBody(result.Entry),
		TotalSeconds: result.TotalSeconds,
	}
	if result.ClosedEntry != nil {
		closed := toWorkLogBody(*result.ClosedEntry)
		resp.ClosedEntry = &closed
	}
	writeJSON(w, http.StatusOK, resp)
}

type submitRequest struct {
	CaseID           uint64 `json:"case_id"`
	IdempotencyKey   string `json:"idempotency_key"`
	ExpectedRevision *int64 `json:"expected_revision"`
}

type submitResponse struct {
	Case         caseBody  `json:"case"`
	Event        eventBody `json:"event"`
	Replayed     bool      `json:"replayed"`
	TotalSeconds int64     `json:"total_seconds"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.CaseID == 0 {
		badRequest(w, "case_id is required")
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	user, _ := userFrom(r.Context())
	result, err := s.worklogs.Submit(r.Context(), worklog.SubmitInput{
		CaseID:           req.CaseID,
		ActorID:          user.ID,
		IdempotencyKey:   key,
		ExpectedRevision: req.ExpectedRevision,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Case:         toCaseBody(result.Transition.Case),
		Event:        toEventBody(result.Transition.Event),
		Replayed:     result.Transition.Replayed,
		TotalSeconds: result.TotalSeconds,
	})
}

type qcSummaryRequest struct {
	CaseID         uint64  `json:"case_id"`
	CaseUID        string  `json:"case_uid"`
	Kind           string  `json:"kind"`
	Classification string  `json:"classification"`
	RuleHits       int     `json:"rule_hits"`
	Detail         payload `json:"detail"`
}

type qcSummaryBody struct {
	ID             uint64 `json:"id"`
	CaseID         uint64 `json:"case_id"`
	Kind           string `json:"kind"`
	Classification string `json:"classification"`
	RuleHits       int    `json:"rule_hits"`
	UpdatedAt      string `json:"updated_at"`
}

type qcSummaryResponse struct {
	Summary    qcSummaryBody `json:"summary"`
	Routed     bool          `json:"routed"`
	CaseStatus string        `json:"case_status,omitempty"`
}

func (s *Server) handleIngestQcSummary(w http.ResponseWriter, r *http.Request) {
	var req qcSummaryRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.CaseID == 0 && req.CaseUID == "" {
		badRequest(w, "case_id or case_uid is required")
		return
	}

	user, _ := userFrom(r.Context())
	result, err := s.qc.Ingest(r.Context(), qc.IngestInput{
		CaseID:         req.CaseID,
		CaseUID:        req.CaseUID,
		Kind:           workflow.QcKind(req.Kind),
		Classification: workflow.QcClassification(req.Classification),
		RuleHits:       req.RuleHits,
		DetailJSON:     req.Detail.raw(),
		ActorID:        user.ID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := qcSummaryResponse{
		Summary: toQcSummaryBody(result.Summary),
		Routed:  result.Routed,
	}
	if result.Transition != nil {
		resp.CaseStatus = string(result.Transition.Case.Status)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toCaseBody(c ports.Case) caseBody {
	return caseBody{
		ID:          c.ID,
		CaseUID:     c.CaseUID,
		DisplayName: c.DisplayName,
		Hospital:    c.Hospital,
		ProjectID:   c.ProjectID,
		Difficulty:  string(c.Difficulty),
		Status:      string(c.Status),
		Revision:    c.Revision,
		AssignedTo:  c.AssignedUserID,
		StartedAt:   formatTimePtr(c.StartedAt),
		SubmittedAt: formatTimePtr(c.SubmittedAt),
		AcceptedAt:  formatTimePtr(c.AcceptedAt),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func toEventBody(e ports.Event) eventBody {
	return eventBody{
		ID:             e.ID,
		CaseID:         e.CaseID,
		ActorID:        e.ActorID,
		EventType:      string(e.EventType),
		IdempotencyKey: e.IdempotencyKey,
		StatusBefore:   string(e.StatusBefore),
		StatusAfter:    string(e.StatusAfter),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func toWorkLogBody(entry ports.WorkLog) worklogEntryBody {
	return worklogEntryBody{
		ID:        entry.ID,
		CaseID:    entry.CaseID,
		UserID:    entry.UserID,
		Action:    string(entry.Action),
		StartedAt: entry.StartedAt.Format(time.RFC3339),
		EndedAt:   formatTimePtr(entry.EndedAt),
		Seconds:   entry.Seconds,
	}
}

func toQcSummaryBody(summary ports.QcSummary) qcSummaryBody {
	return qcSummaryBody{
		ID:             summary.ID,
		CaseID:         summary.CaseID,
		Kind:           string(summary.Kind),
		Classification: string(summary.Classification),
		RuleHits:       summary.RuleHits,
		UpdatedAt:      summary.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
