package qc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/engine"
)

// Service stores externally computed quality-check summaries and, for
// automated checks landing on a submitted case, routes the verdict through
// the transition engine.
type Service struct {
	uow       ports.UnitOfWork
	summaries ports.QcRepository
	cases     ports.CaseRepository
	engine    *engine.Service
}

func NewService(uow ports.UnitOfWork, summaries ports.QcRepository, cases ports.CaseRepository, eng *engine.Service) *Service {
	return &Service{
		uow:       uow,
		summaries: summaries,
		cases:     cases,
		engine:    eng,
	}
}

type IngestInput struct {
	CaseUID        string
	CaseID         uint64
	Kind           workflow.QcKind
	Classification workflow.QcClassification
	RuleHits       int
	DetailJSON     string
	ActorID        uint64
}

type IngestResult struct {
	Summary    ports.QcSummary
	Routed     bool
	Transition *engine.TransitionResult
}

// Ingest upserts the summary, replacing any previous verdict of the same
// kind. An AUTOCHECK verdict arriving while the case sits in SUBMITTED also
// fires the routing transition; re-ingesting the same verdict at the same
// revision replays rather than double-fires, because the synthesized
// idempotency key embeds the observed revision.
func (s *Service) Ingest(ctx context.Context, input IngestInput) (IngestResult, error) {
	if ctx == nil {
		return IngestResult{}, errors.New("context is required")
	}
	if _, err := workflow.ParseQcKind(string(input.Kind)); err != nil {
		return IngestResult{}, err
	}
	if _, err := workflow.ParseQcClassification(string(input.Classification)); err != nil {
		return IngestResult{}, err
	}

	var result IngestResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.resolveCase(txCtx, input)
		if err != nil {
			return err
		}

		summary, err := s.summaries.Upsert(txCtx, ports.QcSummaryUpsert{
			CaseID:         c.ID,
			Kind:           input.Kind,
			Classification: input.Classification,
			RuleHits:       input.RuleHits,
			DetailJSON:     input.DetailJSON,
			At:             time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		result.Summary = summary

		if input.Kind != workflow.QcKindAutoCheck || c.Status != workflow.StatusSubmitted {
			return nil
		}

		transition, err := s.engine.ApplyTransition(txCtx, engine.TransitionInput{
			CaseID:         c.ID,
			EventType:      input.Classification.RouteEvent(),
			IdempotencyKey: routingKey(c.ID, c.Revision),
			ActorID:        input.ActorID,
		})
		if err != nil {
			return err
		}
		result.Routed = true
		result.Transition = &transition
		return nil
	})
	if err != nil {
		return IngestResult{}, err
	}

	if result.Routed {
		s.engine.NotifyCommitted(ctx, *result.Transition)
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "usecase.qc")),
		"qc summary ingested",
		slog.Uint64("case_id", result.Summary.CaseID),
		slog.String("kind", string(result.Summary.Kind)),
		slog.String("classification", string(result.Summary.Classification)),
		slog.Bool("routed", result.Routed),
	)
	return result, nil
}

func (s *Service) resolveCase(ctx context.Context, input IngestInput) (ports.Case, error) {
	if input.CaseID != 0 {
		return s.cases.GetByID(ctx, input.CaseID)
	}
	return s.cases.GetByUID(ctx, input.CaseUID)
}

// ListForCase returns the stored summaries for one case.
func (s *Service) ListForCase(ctx context.Context, caseID uint64) ([]ports.QcSummary, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.summaries.ListForCase(ctx, caseID)
}

func routingKey(caseID uint64, revision int64) string {
	return fmt.Sprintf("qc-route-%d-rev%d", caseID, revision)
}
