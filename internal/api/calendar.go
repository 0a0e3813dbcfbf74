package api

import (
	"net/http"
	"strconv"
	"time"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/usecase/calendar"
)

type timeOffRequest struct {
	UserID uint64 `json:"user_id"`
	Day    string `json:"day"`
	Kind   string `json:"kind"`
	Note   string `json:"note"`
}

type timeOffBody struct {
	ID     uint64 `json:"id"`
	UserID uint64 `json:"user_id"`
	Day    string `json:"day"`
	Kind   string `json:"kind"`
	Note   string `json:"note,omitempty"`
}

func (s *Server) handleAddTimeOff(w http.ResponseWriter, r *http.Request) {
	var req timeOffRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	user, _ := userFrom(r.Context())
	target := req.UserID
	if target == 0 {
		target = user.ID
	}
	// Workers may only book their own absence.
	if user.Role != workflow.RoleAdmin && target != user.ID {
		writeError(w, r, workflow.ErrForbidden)
		return
	}

	created, err := s.calendar.AddTimeOff(r.Context(), calendar.TimeOffInput{
		UserID: target,
		Day:    req.Day,
		Kind:   req.Kind,
		Note:   req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, timeOffBody{
		ID:     created.ID,
		UserID: created.UserID,
		Day:    created.Day,
		Kind:   string(created.Kind),
		Note:   created.Note,
	})
}

func (s *Server) handleListTimeOffs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user, _ := userFrom(r.Context())

	target := user.ID
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(w, "user_id must be numeric")
			return
		}
		target = id
	}
	if user.Role != workflow.RoleAdmin && target != user.ID {
		writeError(w, r, workflow.ErrForbidden)
		return
	}

	entries, err := s.calendar.ListTimeOffs(r.Context(), target, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]timeOffBody, 0, len(entries))
	for _, entry := range entries {
		items = append(items, timeOffBody{
			ID:     entry.ID,
			UserID: entry.UserID,
			Day:    entry.Day,
			Kind:   string(entry.Kind),
			Note:   entry.Note,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeoffs": items})
}

func (s *Server) handleRemoveTimeOff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "timeOffID")
	if !ok {
		return
	}

	removed, err := s.calendar.RemoveTimeOff(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "time-off not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	holidays, err := s.calendar.ListHolidays(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": holidays})
}

func (s *Server) handleImportHolidays(w http.ResponseWriter, r *http.Request) {
	count, err := s.calendar.ImportHolidaysYAML(r.Context(), r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func (s *Server) handleCapacityReport(w http.ResponseWriter, r *http.Request) {
	from, to, ok := reportRange(w, r)
	if !ok {
		return
	}

	report, err := s.metrics.Capacity(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePerformanceReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.metrics.Performance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleQualityReport(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			badRequest(w, "since must be YYYY-MM-DD")
			return
		}
		since = parsed
	}

	report, err := s.metrics.Quality(r.Context(), since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func reportRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		badRequest(w, "from must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		badRequest(w, "to must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		badRequest(w, "to must not precede from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
