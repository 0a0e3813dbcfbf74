package workflow

import (
	"errors"
	"testing"
)

func TestNextResolvesEveryTableEntry(t *testing.T) {
	cases := []struct {
		from  CaseStatus
		event EventType
		want  CaseStatus
	}{
		{StatusTodo, EventStart, StatusInProgress},
		{StatusRework, EventStart, StatusInProgress},
		{StatusInProgress, EventSubmit, StatusSubmitted},
		{StatusSubmitted, EventCheckPass, StatusReviewPending},
		{StatusSubmitted, EventCheckFail, StatusRework},
		{StatusReviewPending, EventApprove, StatusAccepted},
		{StatusReviewPending, EventReject, StatusRework},
	}
	for _, tc := range cases {
		got, err := Next(tc.from, tc.event)
		if err != nil {
			t.Fatalf("Next(%s, %s) error = %v", tc.from, tc.event, err)
		}
		if got != tc.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", tc.from, tc.event, got, tc.want)
		}
	}
}

func TestNextRejectsPairsOutsideTheTable(t *testing.T) {
	invalid := []struct {
		from  CaseStatus
		event EventType
	}{
		{StatusTodo, EventSubmit},
		{StatusTodo, EventApprove},
		{StatusInProgress, EventStart},
		{StatusInProgress, EventApprove},
		{StatusSubmitted, EventStart},
		{StatusSubmitted, EventApprove},
		{StatusReviewPending, EventStart},
		{StatusReviewPending, EventCheckPass},
		{StatusRework, EventSubmit},
		{StatusRework, EventApprove},
	}
	for _, tc := range invalid {
		if _, err := Next(tc.from, tc.event); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Next(%s, %s) error = %v, want ErrInvalidTransition", tc.from, tc.event, err)
		}
	}
}

func TestNextRejectsEverythingFromTerminal(t *testing.T) {
	for _, event := range []EventType{EventStart, EventSubmit, EventCheckPass, EventCheckFail, EventApprove, EventReject} {
		if _, err := Next(StatusAccepted, event); !errors.Is(err, ErrTerminalState) {
			t.Fatalf("Next(ACCEPTED, %s) error = %v, want ErrTerminalState", event, err)
		}
	}
}

func TestParseStatusNormalizes(t *testing.T) {
	got, err := ParseStatus(" review_pending ")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if got != StatusReviewPending {
		t.Fatalf("ParseStatus() = %s", got)
	}
	if _, err := ParseStatus("DONE"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ParseStatus(DONE) error = %v, want ErrInvalidStatus", err)
	}
}

func TestRouteEvent(t *testing.T) {
	if got := QcPass.RouteEvent(); got != EventCheckPass {
		t.Fatalf("QcPass.RouteEvent() = %s", got)
	}
	if got := QcWarn.RouteEvent(); got != EventCheckFail {
		t.Fatalf("QcWarn.RouteEvent() = %s", got)
	}
	if got := QcIncomplete.RouteEvent(); got != EventCheckFail {
		t.Fatalf("QcIncomplete.RouteEvent() = %s", got)
	}
}
