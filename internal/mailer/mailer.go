// Package mailer is the outbound email collaborator.
package mailer

import "context"

type Outcome int

const (
	// Delivered means the transport accepted the message.
	Delivered Outcome = iota
	// Skipped means the transport is administratively disabled. Callers
	// treat skipped as success.
	Skipped
	// Failed means the send was attempted and did not go through.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

type Mailer interface {
	// Send delivers one email. A Failed outcome always comes with a
	// non-nil error describing the reason.
	Send(ctx context.Context, to, subject, htmlBody string) (Outcome, error)
}
