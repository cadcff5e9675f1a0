// Package notify fans domain events out as per-recipient emails and in-app
// notifications, gated by user preferences. Failures are isolated per
// recipient; batch callers collect outcomes in a Report.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/mailer"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

type Notifier struct {
	store  docstore.Store
	mailer mailer.Mailer
	gate   *Gate
	now    func() time.Time
}

func NewNotifier(store docstore.Store, m mailer.Mailer) *Notifier {
	return &Notifier{
		store:  store,
		mailer: m,
		gate:   NewGate(store),
		now:    time.Now,
	}
}

// ShouldSendEmail exposes the preference gate decision.
func (n *Notifier) ShouldSendEmail(ctx context.Context, userID string, t models.NotificationType) bool {
	return n.gate.ShouldSend(ctx, userID, t)
}

// EmailUser resolves the user's address and sends one gated email. A user
// without a stored address fails without sending.
func (n *Notifier) EmailUser(ctx context.Context, userID string, t models.NotificationType, subject, htmlBody string) (mailer.Outcome, error) {
	var user models.User
	if err := n.store.Get(ctx, docstore.CollectionUsers, userID, &user); err != nil {
		return mailer.Failed, fmt.Errorf("notify.Notifier.EmailUser: %w", err)
	}
	if user.Email == "" {
		return mailer.Failed, fmt.Errorf("notify.Notifier.EmailUser: user %s has no email address", userID)
	}
	return n.EmailAddress(ctx, user.Email, userID, t, subject, htmlBody)
}

// EmailAddress sends one gated email to a literal address. userID may be
// empty for recipients who are not registered users; the gate then allows
// the send.
func (n *Notifier) EmailAddress(ctx context.Context, addr, userID string, t models.NotificationType, subject, htmlBody string) (mailer.Outcome, error) {
	if !n.gate.ShouldSend(ctx, userID, t) {
		return mailer.Skipped, nil
	}

	outcome, err := n.mailer.Send(ctx, addr, subject, htmlBody)
	if err != nil {
		return outcome, fmt.Errorf("notify.Notifier.EmailAddress: %w", err)
	}
	return outcome, nil
}

// InApp persists one in-app notification document for the user.
func (n *Notifier) InApp(ctx context.Context, notification models.Notification) error {
	if notification.UserID == "" {
		return fmt.Errorf("notify.Notifier.InApp: %w: missing user id", models.ErrValidation)
	}
	notification.CreatedAt = n.now()

	_, err := n.store.Create(ctx, docstore.CollectionNotifications, notification)
	if err != nil {
		return fmt.Errorf("notify.Notifier.InApp: %w", err)
	}
	return nil
}

// Report accumulates per-recipient outcomes of a batch send. A failed
// recipient never stops the batch; callers record and move on.
type Report struct {
	Delivered []string
	Skipped   []string
	Failed    map[string]error
}

func NewReport() *Report {
	return &Report{Failed: make(map[string]error)}
}

func (r *Report) Record(recipient string, outcome mailer.Outcome, err error) {
	if err != nil {
		r.Failed[recipient] = err
		return
	}
	switch outcome {
	case mailer.Skipped:
		r.Skipped = append(r.Skipped, recipient)
	default:
		r.Delivered = append(r.Delivered, recipient)
	}
}

// Err aggregates every recipient failure, or nil when the batch had none.
func (r *Report) Err() error {
	var result *multierror.Error
	for recipient, err := range r.Failed {
		result = multierror.Append(result, fmt.Errorf("%s: %w", recipient, err))
	}
	return result.ErrorOrNil()
}
