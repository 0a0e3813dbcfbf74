package notify

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"casetrack/internal/errs"
	"casetrack/internal/ports"
)

// NATSNotifier publishes committed transitions to a subject so downstream
// consumers (dashboards, the check tool scheduler) can react without polling.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

var _ ports.Notifier = (*NATSNotifier)(nil)

func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("casetrack"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	if subject == "" {
		subject = "casetrack.transitions"
	}
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

func (n *NATSNotifier) Name() string { return "nats" }

func (n *NATSNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return errs.Wrap(err, "marshal notification")
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return errs.Wrap(err, "publish notification")
	}
	return n.conn.FlushWithContext(ctx)
}

func (n *NATSNotifier) Close() {
	n.conn.Close()
}
