package workflow

import (
	"fmt"
	"strings"
)

// CaseStatus is the closed set of workflow states a case moves through.
type CaseStatus string

const (
	StatusTodo          CaseStatus = "TODO"
	StatusInProgress    CaseStatus = "IN_PROGRESS"
	StatusSubmitted     CaseStatus = "SUBMITTED"
	StatusReviewPending CaseStatus = "REVIEW_PENDING"
	StatusRework        CaseStatus = "REWORK"
	StatusAccepted      CaseStatus = "ACCEPTED"
)

// EventType is the closed set of transition triggers.
type EventType string

const (
	EventStart     EventType = "START"
	EventSubmit    EventType = "SUBMIT"
	EventCheckPass EventType = "CHECK_PASS"
	EventCheckFail EventType = "CHECK_FAIL"
	EventApprove   EventType = "APPROVE"
	EventReject    EventType = "REJECT"
)

type transitionKey struct {
	Status CaseStatus
	Event  EventType
}

// transitions is the single authoritative table. Any pair absent here is
// invalid; there is no fallthrough.
var transitions = map[transitionKey]CaseStatus{
	{StatusTodo, EventStart}:            StatusInProgress,
	{StatusRework, EventStart}:          StatusInProgress,
	{StatusInProgress, EventSubmit}:     StatusSubmitted,
	{StatusSubmitted, EventCheckPass}:   StatusReviewPending,
	{StatusSubmitted, EventCheckFail}:   StatusRework,
	{StatusReviewPending, EventApprove}: StatusAccepted,
	{StatusReviewPending, EventReject}:  StatusRework,
}

// Next resolves the target status for (current, event).
//
// A terminal case rejects every event with ErrTerminalState before the table
// is consulted, so ACCEPTED never gains an outgoing edge by accident.
func Next(current CaseStatus, event EventType) (CaseStatus, error) {
	if current.IsTerminal() {
		return "", fmt.Errorf("%w: %s", ErrTerminalState, current)
	}

	target, ok := transitions[transitionKey{Status: current, Event: event}]
	if !ok {
		return "", fmt.Errorf("%w: %s + %s", ErrInvalidTransition, current, event)
	}
	return target, nil
}

func (s CaseStatus) IsTerminal() bool {
	return s == StatusAccepted
}

func (s CaseStatus) String() string { return string(s) }

func (e EventType) String() string { return string(e) }

// WorkerEvents are the events a worker may trigger on a case assigned to them.
// Reviewer/admin events are everything else.
func (e EventType) WorkerTriggered() bool {
	return e == EventStart || e == EventSubmit
}

func ParseStatus(value string) (CaseStatus, error) {
	status := CaseStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch status {
	case StatusTodo, StatusInProgress, StatusSubmitted, StatusReviewPending, StatusRework, StatusAccepted:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

func ParseEventType(value string) (EventType, error) {
	event := EventType(strings.ToUpper(strings.TrimSpace(value)))
	switch event {
	case EventStart, EventSubmit, EventCheckPass, EventCheckFail, EventApprove, EventReject:
		return event, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEventType, value)
}

// Difficulty is a case sizing hint used by throughput weighting only.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyNormal   Difficulty = "NORMAL"
	DifficultyHard     Difficulty = "HARD"
	DifficultyVeryHard Difficulty = "VERY_HARD"
)

func ParseDifficulty(value string) (Difficulty, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return DifficultyNormal, nil
	}
	difficulty := Difficulty(trimmed)
	switch difficulty {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyVeryHard:
		return difficulty, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, value)
}

// Role is the caller identity class resolved from the API key.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleWorker Role = "WORKER"
)
