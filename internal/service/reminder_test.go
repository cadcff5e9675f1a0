package service

import (
	"context"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

func TestSweepClosesExpiredTenders(t *testing.T) {
	svc, env := newTestService(t)
	creator, _ := seedUser(t, env, nil)
	ctx := context.Background()

	expired := seedOpenTender(t, svc, env, creator)
	current := seedOpenTender(t, svc, env, creator)

	env.clock.Set(expired.Deadline.Add(time.Hour))
	// Push the second deadline past the new clock so only one tender expires.
	stored, err := svc.GetTender(ctx, current.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored.Deadline = env.clock.Now().AddDate(0, 1, 0)
	if err := env.store.Update(ctx, docstore.CollectionTenders, stored.ID, stored); err != nil {
		t.Fatal(err)
	}

	result, err := svc.CheckDeadlineReminders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Closed != 1 || result.Reminded != 0 {
		t.Fatalf("expected 1 closed, 0 reminded, got %+v", result)
	}

	got, err := svc.GetTender(ctx, expired.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TenderClosed {
		t.Errorf("expired tender should be closed, got %s", got.Status)
	}
	got, err = svc.GetTender(ctx, current.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TenderOpen {
		t.Errorf("current tender should stay open, got %s", got.Status)
	}
}

func TestSweepRemindsAtOffset(t *testing.T) {
	svc, env := newTestService(t)
	creatorID, creatorEmail := seedUser(t, env, nil)
	supplierID, supplierEmail := seedUser(t, env, nil)
	ctx := context.Background()

	tender := seedOpenTender(t, svc, env, creatorID)
	if _, err := svc.InviteSupplier(ctx, tender.ID, models.Invitation{
		SupplierUserID: supplierID,
		Email:          supplierEmail,
	}); err != nil {
		t.Fatal(err)
	}
	env.flush()
	invitedAt := env.mail.sentTo(supplierEmail)

	// Three whole days before the deadline.
	env.clock.Set(tender.Deadline.AddDate(0, 0, -3))

	result, err := svc.CheckDeadlineReminders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Reminded != 1 {
		t.Fatalf("expected 1 reminded, got %+v", result)
	}
	env.flush()

	if got := env.mail.sentTo(creatorEmail); got != 1 {
		t.Errorf("creator should get 1 reminder email, got %d", got)
	}
	if got := env.mail.sentTo(supplierEmail) - invitedAt; got != 1 {
		t.Errorf("invited supplier should get 1 reminder email, got %d", got)
	}

	// Running the sweep again the same day is a no-op.
	result, err = svc.CheckDeadlineReminders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Reminded != 0 {
		t.Fatalf("repeat sweep should remind nobody, got %+v", result)
	}
	env.flush()
	if got := env.mail.sentTo(creatorEmail); got != 1 {
		t.Errorf("creator should still have 1 reminder email, got %d", got)
	}

	// The next configured offset fires again.
	env.clock.Set(tender.Deadline.AddDate(0, 0, -1))
	result, err = svc.CheckDeadlineReminders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Reminded != 1 {
		t.Fatalf("expected the 1-day reminder, got %+v", result)
	}
	env.flush()
	if got := env.mail.sentTo(creatorEmail); got != 2 {
		t.Errorf("creator should have 2 reminder emails, got %d", got)
	}
}

func TestSweepSkipsSubmittedSuppliers(t *testing.T) {
	svc, env := newTestService(t)
	creatorID, _ := seedUser(t, env, nil)
	submittedID, submittedEmail := seedUser(t, env, nil)
	pendingID, pendingEmail := seedUser(t, env, nil)
	ctx := context.Background()

	tender := seedOpenTender(t, svc, env, creatorID)
	for id, email := range map[string]string{submittedID: submittedEmail, pendingID: pendingEmail} {
		if _, err := svc.InviteSupplier(ctx, tender.ID, models.Invitation{SupplierUserID: id, Email: email}); err != nil {
			t.Fatal(err)
		}
	}
	submitBid(t, svc, tender.ID, submittedID, 80000)
	env.flush()
	before := env.mail.sentTo(submittedEmail)

	env.clock.Set(tender.Deadline.AddDate(0, 0, -7))
	if _, err := svc.CheckDeadlineReminders(ctx); err != nil {
		t.Fatal(err)
	}
	env.flush()

	if got := env.mail.sentTo(submittedEmail); got != before {
		t.Errorf("supplier who already submitted should not be reminded, got %d extra", got-before)
	}
	if got := env.mail.sentTo(pendingEmail); got < 2 {
		t.Errorf("pending supplier should get the reminder, got %d emails total", got)
	}
}

func TestSweepIgnoresNonMatchingDays(t *testing.T) {
	svc, env := newTestService(t)
	creator, _ := seedUser(t, env, nil)
	ctx := context.Background()

	tender := seedOpenTender(t, svc, env, creator)

	// Five days out matches no configured offset.
	env.clock.Set(tender.Deadline.AddDate(0, 0, -5))
	result, err := svc.CheckDeadlineReminders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Closed != 0 || result.Reminded != 0 {
		t.Fatalf("expected a quiet sweep, got %+v", result)
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), 0},
		{"late evening to early morning", time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC), 1},
		{"a week", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC), 7},
		{"month boundary", time.Date(2025, 2, 27, 12, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC), 3},
	}
	for _, tc := range cases {
		if got := calendarDaysBetween(tc.from, tc.to); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
