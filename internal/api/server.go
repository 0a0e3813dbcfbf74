package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"casetrack/internal/ports"
	"casetrack/internal/usecase/calendar"
	"casetrack/internal/usecase/caseadmin"
	"casetrack/internal/usecase/engine"
	"casetrack/internal/usecase/metrics"
	"casetrack/internal/usecase/qc"
	"casetrack/internal/usecase/worklog"
)

// Server carries the handler dependencies. Route handlers stay thin: decode,
// call the usecase, map the result.
type Server struct {
	engine   *engine.Service
	worklogs *worklog.Service
	qc       *qc.Service
	admin    *caseadmin.Service
	calendar *calendar.Service
	metrics  *metrics.Service
	users    ports.UserRepository
	cases    ports.CaseRepository
}

func NewServer(
	eng *engine.Service,
	worklogs *worklog.Service,
	qcSvc *qc.Service,
	admin *caseadmin.Service,
	calendarSvc *calendar.Service,
	metricsSvc *metrics.Service,
	users ports.UserRepository,
	cases ports.CaseRepository,
) *Server {
	return &Server{
		engine:   eng,
		worklogs: worklogs,
		qc:       qcSvc,
		admin:    admin,
		calendar: calendarSvc,
		metrics:  metricsSvc,
		users:    users,
		cases:    cases,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/transitions", s.handleApplyTransition)
		r.Post("/worklogs", s.handleRecordAction)
		r.Post("/submit", s.handleSubmit)
		r.Post("/qc-summaries", s.handleIngestQcSummary)

		r.Get("/cases", s.handleListCases)
		r.Get("/cases/{caseID}", s.handleCaseDetail)
		r.Get("/cases/{caseID}/events", s.handleListCaseEvents)
		r.Get("/cases/{caseID}/worklogs", s.handleListCaseWorkLogs)
		r.Post("/cases/{caseID}/tags", s.handleAddTag)
		r.Delete("/cases/{caseID}/tags/{tag}", s.handleRemoveTag)
		r.Get("/tags", s.handleListTags)

		r.Get("/events/recent", s.handleRecentEvents)

		r.Post("/timeoffs", s.handleAddTimeOff)
		r.Get("/timeoffs", s.handleListTimeOffs)
		r.Delete("/timeoffs/{timeOffID}", s.handleRemoveTimeOff)
		r.Get("/holidays", s.handleListHolidays)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/cases", s.handleRegisterCase)
			r.Post("/cases/import", s.handleImportCases)
			r.Post("/cases/{caseID}/assign", s.handleAssignCase)

			r.Post("/users", s.handleRegisterUser)
			r.Get("/users", s.handleListUsers)
			r.Post("/users/{userID}/active", s.handleSetUserActive)

			r.Post("/holidays/import", s.handleImportHolidays)

			r.Get("/reports/capacity", s.handleCapacityReport)
			r.Get("/reports/performance", s.handlePerformanceReport)
			r.Get("/reports/quality", s.handleQualityReport)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
