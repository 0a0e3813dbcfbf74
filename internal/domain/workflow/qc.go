package workflow

import (
	"fmt"
	"strings"
)

// QcKind distinguishes the two externally computed summaries a case may carry.
type QcKind string

const (
	QcKindPreCheck  QcKind = "PRECHECK"
	QcKindAutoCheck QcKind = "AUTOCHECK"
)

func ParseQcKind(value string) (QcKind, error) {
	kind := QcKind(strings.ToUpper(strings.TrimSpace(value)))
	switch kind {
	case QcKindPreCheck, QcKindAutoCheck:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQcKind, value)
}

// QcClassification is the verdict delivered by the offline check tool. The
// server never computes it; it only stores and routes on it.
type QcClassification string

const (
	QcPass       QcClassification = "PASS"
	QcWarn       QcClassification = "WARN"
	QcIncomplete QcClassification = "INCOMPLETE"
)

func ParseQcClassification(value string) (QcClassification, error) {
	classification := QcClassification(strings.ToUpper(strings.TrimSpace(value)))
	switch classification {
	case QcPass, QcWarn, QcIncomplete:
		return classification, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQcResult, value)
}

// RouteEvent maps an automated-check classification to the event the engine
// synthesizes when the case is waiting on the check result.
func (c QcClassification) RouteEvent() EventType {
	if c == QcPass {
		return EventCheckPass
	}
	return EventCheckFail
}
