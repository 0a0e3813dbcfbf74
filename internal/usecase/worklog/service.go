package worklog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/engine"
	"casetrack/internal/usecase/settings"
)

// Service is the work-time ledger. Every action appends a row; closing
// actions also stamp the open segment with its earned seconds.
type Service struct {
	uow      ports.UnitOfWork
	cases    ports.CaseRepository
	users    ports.UserRepository
	worklogs ports.WorkLogRepository
	settings *settings.Store
	engine   *engine.Service
}

func NewService(
	uow ports.UnitOfWork,
	cases ports.CaseRepository,
	users ports.UserRepository,
	worklogs ports.WorkLogRepository,
	store *settings.Store,
	eng *engine.Service,
) *Service {
	return &Service{
		uow:      uow,
		cases:    cases,
		users:    users,
		worklogs: worklogs,
		settings: store,
		engine:   eng,
	}
}

type ActionInput struct {
	CaseID  uint64
	ActorID uint64
	Action  workflow.Action
}

type ActionResult struct {
	Entry        ports.WorkLog
	ClosedEntry  *ports.WorkLog
	TotalSeconds int64
}

// RecordAction validates the action against ledger ordering rules and
// appends it. PAUSE and SUBMIT close the currently open segment, capping its
// length at the automatic timeout.
func (s *Service) RecordAction(ctx context.Context, input ActionInput) (ActionResult, error) {
	if ctx == nil {
		return ActionResult{}, errors.New("context is required")
	}
	if _, err := workflow.ParseAction(string(input.Action)); err != nil {
		return ActionResult{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.worklog"),
		slog.Uint64("case_id", input.CaseID),
		slog.String("action", string(input.Action)),
	)

	var result ActionResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.cases.GetByID(txCtx, input.CaseID)
		if err != nil {
			return err
		}

		actor, err := s.users.GetByID(txCtx, input.ActorID)
		if err != nil {
			return err
		}
		if !actor.Active {
			return workflow.ErrInactiveUser
		}
		if actor.Role != workflow.RoleAdmin {
			if c.AssignedUserID == nil || *c.AssignedUserID != actor.ID {
				return workflow.ErrForbidden
			}
		}

		last, found, err := s.worklogs.LastForCase(txCtx, input.CaseID)
		if err != nil {
			return err
		}
		lastAction := workflow.Action("")
		if found {
			lastAction = last.Action
		}
		if err := workflow.ValidateActionSequence(lastAction, input.Action, c.Status); err != nil {
			return err
		}

		now := time.Now().UTC()
		if input.Action.ClosesSegment() {
			closed, err := s.closeOpenSegment(txCtx, c.ID, input.ActorID, now)
			if err != nil {
				return err
			}
			result.ClosedEntry = closed
		}

		entry, err := s.worklogs.Append(txCtx, ports.WorkLogCreate{
			CaseID:    c.ID,
			UserID:    input.ActorID,
			Action:    input.Action,
			StartedAt: now,
		})
		if err != nil {
			return err
		}
		result.Entry = entry

		total, err := s.worklogs.SumSecondsForCase(txCtx, c.ID)
		if err != nil {
			return err
		}
		result.TotalSeconds = total
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}

	logging.Info(logCtx, "worklog action recorded", slog.Int64("total_seconds", result.TotalSeconds))
	return result, nil
}

// closeOpenSegment stamps the open segment, if any. A SUBMIT without an open
// segment contributes zero seconds rather than failing.
func (s *Service) closeOpenSegment(ctx context.Context, caseID, userID uint64, now time.Time) (*ports.WorkLog, error) {
	open, found, err := s.worklogs.OpenSegment(ctx, caseID, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	elapsed := int64(now.Sub(open.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if limit := int64(s.settings.AutoTimeoutMinutes(ctx)) * 60; limit > 0 && elapsed > limit {
		elapsed = limit
	}

	if err := s.worklogs.CloseSegment(ctx, open.ID, now, elapsed); err != nil {
		return nil, err
	}
	open.EndedAt = &now
	open.Seconds = elapsed
	return &open, nil
}

type SubmitInput struct {
	CaseID           uint64
	ActorID          uint64
	IdempotencyKey   string
	ExpectedRevision *int64
}

type SubmitResult struct {
	Transition   engine.TransitionResult
	TotalSeconds int64
}

// Submit closes the work session and pushes the case through the SUBMIT
// transition in one transaction, so the ledger and the status machine cannot
// drift apart when either half fails.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}

	var result SubmitResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		// A retried submit must replay the stored event, not re-run the
		// ledger grammar against the already-submitted case.
		if input.IdempotencyKey != "" {
			if _, found, err := s.cases.GetEventByIdempotencyKey(txCtx, input.IdempotencyKey); err != nil {
				return err
			} else if found {
				transition, err := s.engine.ApplyTransition(txCtx, engine.TransitionInput{
					CaseID:           input.CaseID,
					EventType:        workflow.EventSubmit,
					IdempotencyKey:   input.IdempotencyKey,
					ActorID:          input.ActorID,
					ExpectedRevision: input.ExpectedRevision,
				})
				if err != nil {
					return err
				}
				result.Transition = transition

				total, err := s.worklogs.SumSecondsForCase(txCtx, input.CaseID)
				if err != nil {
					return errs.Wrap(err, "sum case seconds")
				}
				result.TotalSeconds = total
				return nil
			}
		}

		action, err := s.RecordAction(txCtx, ActionInput{
			CaseID:  input.CaseID,
			ActorID: input.ActorID,
			Action:  workflow.ActionSubmit,
		})
		if err != nil {
			return err
		}
		result.TotalSeconds = action.TotalSeconds

		transition, err := s.engine.ApplyTransition(txCtx, engine.TransitionInput{
			CaseID:           input.CaseID,
			EventType:        workflow.EventSubmit,
			IdempotencyKey:   input.IdempotencyKey,
			ActorID:          input.ActorID,
			ExpectedRevision: input.ExpectedRevision,
		})
		if err != nil {
			return err
		}
		result.Transition = transition
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.engine.NotifyCommitted(ctx, result.Transition)
	return result, nil
}

// TotalSeconds returns the summed ledger time for one case.
func (s *Service) TotalSeconds(ctx context.Context, caseID uint64) (int64, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return 0, err
	}
	total, err := s.worklogs.SumSecondsForCase(ctx, caseID)
	if err != nil {
		return 0, errs.Wrap(err, "sum case seconds")
	}
	return total, nil
}

// ListForCase returns the raw ledger for one case, oldest first.
func (s *Service) ListForCase(ctx context.Context, caseID uint64) ([]ports.WorkLog, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.worklogs.ListForCase(ctx, caseID)
}
