package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/mailer"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

type fakeMailer struct {
	mu      sync.Mutex
	sent    []string
	failTo  map[string]error
	skipAll bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) (mailer.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failTo[to]; ok {
		return mailer.Failed, err
	}
	if m.skipAll {
		return mailer.Skipped, nil
	}
	m.sent = append(m.sent, to)
	return mailer.Delivered, nil
}

func TestEmailUserResolvesAddress(t *testing.T) {
	store := docstore.NewMemory()
	mail := &fakeMailer{}
	n := NewNotifier(store, mail)
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionUsers, models.User{Email: "supplier@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := n.EmailUser(ctx, id, models.NotificationBidAwarded, "subject", "<p>body</p>")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != mailer.Delivered {
		t.Errorf("expected delivered, got %s", outcome)
	}
	if len(mail.sent) != 1 || mail.sent[0] != "supplier@example.com" {
		t.Errorf("expected one email to the resolved address, got %v", mail.sent)
	}
}

func TestEmailUserWithoutAddressFails(t *testing.T) {
	store := docstore.NewMemory()
	mail := &fakeMailer{}
	n := NewNotifier(store, mail)
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionUsers, models.User{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = n.EmailUser(ctx, id, models.NotificationBidAwarded, "subject", "body")
	if err == nil {
		t.Fatal("a user without a stored address must fail without sending")
	}
	if len(mail.sent) != 0 {
		t.Errorf("no email should have been sent, got %v", mail.sent)
	}
}

func TestEmailAddressGated(t *testing.T) {
	store := docstore.NewMemory()
	mail := &fakeMailer{}
	n := NewNotifier(store, mail)
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionUsers, models.User{
		Email: "supplier@example.com",
		Preferences: models.NotificationPreferences{
			string(models.NotificationBidRejected): false,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := n.EmailAddress(ctx, "supplier@example.com", id, models.NotificationBidRejected, "s", "b")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != mailer.Skipped {
		t.Errorf("gated send should report skipped, got %s", outcome)
	}
	if len(mail.sent) != 0 {
		t.Errorf("gated send must not reach the mailer, got %v", mail.sent)
	}
}

func TestInApp(t *testing.T) {
	store := docstore.NewMemory()
	n := NewNotifier(store, &fakeMailer{})
	ctx := context.Background()

	err := n.InApp(ctx, models.Notification{
		UserID:  "user-1",
		Type:    models.NotificationBidSubmitted,
		Title:   "New bid",
		Message: "A supplier has submitted a bid.",
	})
	if err != nil {
		t.Fatal(err)
	}

	var stored []models.Notification
	if err := store.Query(ctx, docstore.CollectionNotifications, nil, &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(stored))
	}
	if stored[0].UserID != "user-1" || stored[0].CreatedAt.IsZero() {
		t.Errorf("unexpected stored notification: %+v", stored[0])
	}

	if err := n.InApp(ctx, models.Notification{Type: models.NotificationBidSubmitted}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing user id should be a validation error, got %v", err)
	}
}

func TestReportIsolatesFailures(t *testing.T) {
	report := NewReport()

	for i := 0; i < 5; i++ {
		recipient := fmt.Sprintf("user-%d", i)
		if i == 2 {
			report.Record(recipient, mailer.Failed, errors.New("address lookup failed"))
			continue
		}
		report.Record(recipient, mailer.Delivered, nil)
	}

	if len(report.Delivered) != 4 {
		t.Errorf("expected 4 delivered, got %d", len(report.Delivered))
	}
	if len(report.Failed) != 1 {
		t.Errorf("expected exactly 1 failure, got %d", len(report.Failed))
	}
	if report.Err() == nil {
		t.Error("a report with failures must produce a non-nil aggregate error")
	}

	clean := NewReport()
	clean.Record("user-a", mailer.Skipped, nil)
	if clean.Err() != nil {
		t.Error("skipped outcomes are success, aggregate error should be nil")
	}
	if len(clean.Skipped) != 1 {
		t.Errorf("expected 1 skipped, got %d", len(clean.Skipped))
	}
}
