package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

func TestSubmitBid(t *testing.T) {
	svc, env := newTestService(t)
	creator, creatorEmail := seedUser(t, env, nil)
	supplier, supplierEmail := seedUser(t, env, nil)
	ctx := context.Background()

	tender := seedOpenTender(t, svc, env, creator)
	if _, err := svc.InviteSupplier(ctx, tender.ID, models.Invitation{Email: supplierEmail}); err != nil {
		t.Fatal(err)
	}

	bid, err := svc.SubmitBid(ctx, tender.ID, models.Bid{
		SubmitterUserID: supplier,
		Terms:           models.PriceTerms{Price: 125000, Currency: "NOK"},
	}, []Upload{{Name: "offer.pdf", Content: strings.NewReader("offer")}})
	if err != nil {
		t.Fatal(err)
	}
	if bid.ID == "" || bid.Status != models.BidSubmitted {
		t.Errorf("unexpected bid: %+v", bid)
	}
	if len(bid.Attachments) != 1 || bid.Attachments[0].StorageKey == "" {
		t.Errorf("attachment should be uploaded before the bid is stored: %+v", bid.Attachments)
	}

	got, err := svc.GetTender(ctx, tender.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Bids) != 1 {
		t.Fatalf("expected 1 bid on the tender, got %d", len(got.Bids))
	}
	// The invitation was matched by the submitter's stored email.
	if got.Invitations[0].Status != models.InvitationSubmitted {
		t.Errorf("matching invitation should be marked submitted, got %s", got.Invitations[0].Status)
	}

	env.flush()
	if got := env.mail.sentTo(creatorEmail); got != 1 {
		t.Errorf("the tender creator should be emailed once, got %d", got)
	}
}

func TestSubmitBidRequiresOpenTender(t *testing.T) {
	svc, env := newTestService(t)
	creator, _ := seedUser(t, env, nil)
	supplier, _ := seedUser(t, env, nil)
	ctx := context.Background()

	tender := seedOpenTender(t, svc, env, creator)
	if _, err := svc.CloseTender(ctx, tender.ID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.SubmitBid(ctx, tender.ID, models.Bid{SubmitterUserID: supplier}, nil)
	if !errors.Is(err, models.ErrTenderNotOpen) {
		t.Errorf("bidding on a closed tender should be rejected, got %v", err)
	}
}

func TestSubmitBidNotificationFailureDoesNotFailSubmission(t *testing.T) {
	svc, env := newTestService(t)
	creator, creatorEmail := seedUser(t, env, nil)
	supplier, _ := seedUser(t, env, nil)
	ctx := context.Background()

	tender := seedOpenTender(t, svc, env, creator)
	env.mail.failTo[creatorEmail] = errors.New("smtp down")

	bid, err := svc.SubmitBid(ctx, tender.ID, models.Bid{SubmitterUserID: supplier}, nil)
	if err != nil {
		t.Fatalf("a notification failure must not fail the submission, got %v", err)
	}
	env.flush()

	got, err := svc.GetTender(ctx, tender.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Bids) != 1 || got.Bids[0].ID != bid.ID {
		t.Errorf("the bid should be persisted regardless, got %+v", got.Bids)
	}
}
