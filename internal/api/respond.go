package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500; the detail goes to the log, not the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)),
		)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrCaseNotFound),
		errors.Is(err, workflow.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden),
		errors.Is(err, workflow.ErrInactiveUser),
		errors.Is(err, workflow.ErrNotAssignableRole):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrTerminalState),
		errors.Is(err, workflow.ErrConcurrentModification),
		errors.Is(err, workflow.ErrIdempotencyMismatch),
		errors.Is(err, workflow.ErrDuplicateCaseUID),
		errors.Is(err, workflow.ErrDuplicateTimeOff):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrWIPLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, workflow.ErrInvalidAction),
		errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, workflow.ErrInvalidEventType),
		errors.Is(err, workflow.ErrInvalidQcKind),
		errors.Is(err, workflow.ErrInvalidQcResult),
		errors.Is(err, workflow.ErrInvalidDifficulty),
		errors.Is(err, workflow.ErrInvalidTimeOffKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}

// payload carries an opaque JSON object through a request body.
type payload json.RawMessage

func (p *payload) UnmarshalJSON(data []byte) error {
	*p = payload(data)
	return nil
}

func (p payload) raw() string {
	if len(p) == 0 {
		return "{}"
	}
	return string(p)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
