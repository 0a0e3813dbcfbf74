package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/settings"
)

// Service is the transition engine. All case status changes go through
// ApplyTransition; nothing else writes cases.status or cases.revision.
type Service struct {
	uow        ports.UnitOfWork
	cases      ports.CaseRepository
	users      ports.UserRepository
	settings   *settings.Store
	notifyLogs ports.NotificationLogRepository
	notifiers  []ports.Notifier

	notifyTimeout time.Duration
}

func NewService(
	uow ports.UnitOfWork,
	cases ports.CaseRepository,
	users ports.UserRepository,
	store *settings.Store,
	notifyLogs ports.NotificationLogRepository,
	notifiers []ports.Notifier,
	notifyTimeout time.Duration,
) *Service {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Service{
		uow:           uow,
		cases:         cases,
		users:         users,
		settings:      store,
		notifyLogs:    notifyLogs,
		notifiers:     notifiers,
		notifyTimeout: notifyTimeout,
	}
}

type TransitionInput struct {
	CaseID         uint64
	EventType      workflow.EventType
	IdempotencyKey string
	ActorID        uint64

	// ExpectedRevision, when set, must match the case revision at commit
	// time. The database-level revision check still applies either way.
	ExpectedRevision *int64
	PayloadJSON      string
}

type TransitionResult struct {
	Case     ports.Case
	Event    ports.Event
	Replayed bool
}

// ApplyTransition runs one guarded state change: idempotency replay check,
// terminal guard, transition table lookup, revision compare-and-swap, and the
// event append, all inside a single transaction. Notifications go out only
// after commit.
func (s *Service) ApplyTransition(ctx context.Context, input TransitionInput) (TransitionResult, error) {
	if ctx == nil {
		return TransitionResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return TransitionResult{}, errs.Wrap(err, "check context")
	}
	if input.IdempotencyKey == "" {
		return TransitionResult{}, errors.New("idempotency key is required")
	}
	if _, err := workflow.ParseEventType(string(input.EventType)); err != nil {
		return TransitionResult{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.engine"),
		slog.Uint64("case_id", input.CaseID),
		slog.String("event_type", string(input.EventType)),
	)

	var result TransitionResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		// Replay check first so a duplicate delivery never re-runs the guards
		// against the already-advanced case state.
		stored, found, err := s.cases.GetEventByIdempotencyKey(txCtx, input.IdempotencyKey)
		if err != nil {
			return err
		}
		if found {
			return s.resolveReplay(txCtx, stored, input, &result)
		}

		current, err := s.cases.GetByID(txCtx, input.CaseID)
		if err != nil {
			return err
		}

		actor, err := s.users.GetByID(txCtx, input.ActorID)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, actor, current, input.EventType); err != nil {
			return err
		}

		next, err := workflow.Next(current.Status, input.EventType)
		if err != nil {
			return err
		}

		if input.ExpectedRevision != nil && *input.ExpectedRevision != current.Revision {
			return workflow.ErrConcurrentModification
		}

		now := time.Now().UTC()
		event, inserted, err := s.cases.AppendEvent(txCtx, ports.EventCreate{
			CaseID:         current.ID,
			ActorID:        actor.ID,
			EventType:      input.EventType,
			IdempotencyKey: input.IdempotencyKey,
			StatusBefore:   current.Status,
			StatusAfter:    next,
			PayloadJSON:    input.PayloadJSON,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// A concurrent request with the same key won the insert race.
			return s.resolveReplay(txCtx, event, input, &result)
		}

		ok, err := s.cases.UpdateStatusChecked(txCtx, current.ID, current.Revision, next, timestampMarks(current, input.EventType, now))
		if err != nil {
			return err
		}
		if !ok {
			return workflow.ErrConcurrentModification
		}

		updated, err := s.cases.GetByID(txCtx, current.ID)
		if err != nil {
			return err
		}

		result = TransitionResult{Case: updated, Event: event}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	if !result.Replayed {
		logging.Info(logCtx, "transition applied",
			slog.String("status_before", string(result.Event.StatusBefore)),
			slog.String("status_after", string(result.Event.StatusAfter)),
			slog.Int64("revision", result.Case.Revision),
		)
		// In a joined transaction the commit is still pending; the caller
		// owns the commit and must call NotifyCommitted afterwards.
		if ports.TxFromContext(ctx) == nil {
			s.dispatchNotifications(logCtx, result)
		}
	} else {
		logging.Info(logCtx, "transition replayed", slog.Uint64("event_id", result.Event.ID))
	}

	return result, nil
}

// NotifyCommitted dispatches side effects for a transition that was applied
// inside a caller-owned transaction, once that transaction has committed.
// Replays carry no side effects.
func (s *Service) NotifyCommitted(ctx context.Context, result TransitionResult) {
	if result.Replayed {
		return
	}
	s.dispatchNotifications(logging.WithAttrs(ctx,
		slog.String("component", "usecase.engine"),
		slog.Uint64("case_id", result.Case.ID),
		slog.String("event_type", string(result.Event.EventType)),
	), result)
}

// resolveReplay decides whether a stored event with the requested key is a
// true replay or a key collision from a different request.
func (s *Service) resolveReplay(ctx context.Context, stored ports.Event, input TransitionInput, out *TransitionResult) error {
	if stored.CaseID != input.CaseID || stored.EventType != input.EventType {
		return workflow.ErrIdempotencyMismatch
	}

	current, err := s.cases.GetByID(ctx, stored.CaseID)
	if err != nil {
		return err
	}

	*out = TransitionResult{Case: current, Event: stored, Replayed: true}
	return nil
}

func (s *Service) authorize(ctx context.Context, actor ports.User, c ports.Case, event workflow.EventType) error {
	if !actor.Active {
		return workflow.ErrInactiveUser
	}
	if actor.Role == workflow.RoleAdmin {
		if event == workflow.EventStart {
			return s.checkWIPLimit(ctx, c, actor)
		}
		return nil
	}
	if !event.WorkerTriggered() {
		return workflow.ErrForbidden
	}
	if c.AssignedUserID == nil || *c.AssignedUserID != actor.ID {
		return workflow.ErrForbidden
	}
	if event == workflow.EventStart {
		return s.checkWIPLimit(ctx, c, actor)
	}
	return nil
}

// checkWIPLimit caps how many cases one worker may hold in progress at once.
// A start from REWORK counts against the same cap.
func (s *Service) checkWIPLimit(ctx context.Context, c ports.Case, actor ports.User) error {
	limit := s.settings.WIPLimit(ctx)
	if limit <= 0 {
		return nil
	}

	assignee := actor.ID
	if c.AssignedUserID != nil {
		assignee = *c.AssignedUserID
	}

	status := workflow.StatusInProgress
	_, total, err := s.cases.List(ctx, ports.CaseFilter{
		Status:         &status,
		AssignedUserID: &assignee,
	})
	if err != nil {
		return err
	}
	if total >= int64(limit) {
		return workflow.ErrWIPLimitExceeded
	}
	return nil
}

func timestampMarks(current ports.Case, event workflow.EventType, now time.Time) ports.CaseTimestamps {
	var marks ports.CaseTimestamps
	switch event {
	case workflow.EventStart:
		if current.StartedAt == nil {
			marks.StartedAt = &now
		}
	case workflow.EventSubmit:
		marks.SubmittedAt = &now
	case workflow.EventApprove:
		marks.AcceptedAt = &now
	}
	return marks
}

// dispatchNotifications fans the committed transition out to every configured
// channel. Failures are logged and recorded, never surfaced to the caller.
func (s *Service) dispatchNotifications(ctx context.Context, result TransitionResult) {
	if len(s.notifiers) == 0 {
		return
	}

	n := ports.Notification{
		CaseID:    result.Case.ID,
		CaseUID:   result.Case.CaseUID,
		EventType: string(result.Event.EventType),
		Status:    string(result.Case.Status),
		At:        result.Event.CreatedAt,
	}

	go func() {
		// ctx may still carry the now-committed transaction handle; the
		// audit write has to land on the root connection.
		base := ports.WithTxContext(context.WithoutCancel(ctx), nil)
		sendCtx, cancel := context.WithTimeout(base, s.notifyTimeout)
		defer cancel()

		for _, notifier := range s.notifiers {
			err := notifier.Notify(sendCtx, n)
			record := ports.NotificationLog{
				CaseID:    n.CaseID,
				Channel:   notifier.Name(),
				EventType: n.EventType,
				Ok:        err == nil,
				CreatedAt: time.Now().UTC(),
			}
			if err != nil {
				record.Detail = err.Error()
				logging.Warn(sendCtx, "notification failed",
					slog.String("channel", notifier.Name()),
					slog.Any("err", errs.Loggable(err)),
				)
			}
			if logErr := s.notifyLogs.Record(sendCtx, record); logErr != nil {
				logging.Warn(sendCtx, "notification log write failed", slog.Any("err", errs.Loggable(logErr)))
			}
		}
	}()
}
