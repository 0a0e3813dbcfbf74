package workflow

import (
	"fmt"
	"strings"
)

// Action is a work-time ledger entry kind. The ledger is independent of the
// status machine: recording an action never goes through the transition gate.
type Action string

const (
	ActionStart       Action = "START"
	ActionPause       Action = "PAUSE"
	ActionResume      Action = "RESUME"
	ActionSubmit      Action = "SUBMIT"
	ActionReworkStart Action = "REWORK_START"
)

func ParseAction(value string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(value)))
	switch action {
	case ActionStart, ActionPause, ActionResume, ActionSubmit, ActionReworkStart:
		return action, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, value)
}

// OpensSegment reports whether the action begins an active work segment.
func (a Action) OpensSegment() bool {
	return a == ActionStart || a == ActionResume || a == ActionReworkStart
}

// ClosesSegment reports whether the action ends an active work segment.
func (a Action) ClosesSegment() bool {
	return a == ActionPause || a == ActionSubmit
}

// ValidateActionSequence enforces the ledger ordering rules against the last
// recorded action for the same case and the case's current status. lastAction
// is empty when no worklog exists yet.
func ValidateActionSequence(lastAction Action, next Action, status CaseStatus) error {
	switch next {
	case ActionStart:
		if status != StatusTodo && status != StatusRework {
			return fmt.Errorf("%w: cannot START while case is %s", ErrInvalidAction, status)
		}
		if lastAction != "" && lastAction != ActionSubmit {
			return fmt.Errorf("%w: cannot START after %s", ErrInvalidAction, lastAction)
		}
	case ActionReworkStart:
		if status != StatusRework {
			return fmt.Errorf("%w: REWORK_START only allowed while case is REWORK", ErrInvalidAction)
		}
		if lastAction != "" && lastAction != ActionSubmit {
			return fmt.Errorf("%w: cannot REWORK_START after %s", ErrInvalidAction, lastAction)
		}
	case ActionPause:
		if !lastAction.OpensSegment() {
			return fmt.Errorf("%w: cannot PAUSE outside an active session (last: %s)", ErrInvalidAction, lastAction)
		}
	case ActionResume:
		if lastAction != ActionPause {
			return fmt.Errorf("%w: cannot RESUME unless paused (last: %s)", ErrInvalidAction, lastAction)
		}
	case ActionSubmit:
		if status != StatusInProgress {
			return fmt.Errorf("%w: cannot SUBMIT while case is %s", ErrInvalidAction, status)
		}
		if lastAction == "" || lastAction == ActionSubmit {
			return fmt.Errorf("%w: cannot SUBMIT without a work session", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, next)
	}
	return nil
}
