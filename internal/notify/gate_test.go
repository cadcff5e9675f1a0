package notify

import (
	"context"
	"testing"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

func TestGateUnknownRecipientAllowed(t *testing.T) {
	gate := NewGate(docstore.NewMemory())

	if !gate.ShouldSend(context.Background(), "", models.NotificationBidAwarded) {
		t.Error("empty user id should default to allow")
	}
}

func TestGateFailClosed(t *testing.T) {
	store := docstore.NewMemory()
	gate := NewGate(store)
	ctx := context.Background()

	if gate.ShouldSend(ctx, "no-such-user", models.NotificationBidAwarded) {
		t.Error("a failed preference lookup must block the send")
	}

	// The denial must be stable even after the user appears: decisions are
	// cached for the lifetime of the gate.
	if _, err := store.Create(ctx, docstore.CollectionUsers, models.User{Email: "late@example.com"}); err != nil {
		t.Fatal(err)
	}
	if gate.ShouldSend(ctx, "no-such-user", models.NotificationBidAwarded) {
		t.Error("cached denial should persist for the same user id")
	}
}

func TestGateMasterSwitch(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionUsers, models.User{
		Email: "user@example.com",
		Preferences: models.NotificationPreferences{
			models.PreferenceKeyEmailMaster:       false,
			string(models.NotificationBidAwarded): true,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	gate := NewGate(store)
	if gate.ShouldSend(ctx, id, models.NotificationBidAwarded) {
		t.Error("master switch off must block every category, even enabled ones")
	}
}

func TestGateCategorySwitch(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionUsers, models.User{
		Email: "user@example.com",
		Preferences: models.NotificationPreferences{
			string(models.NotificationBidRejected): false,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	gate := NewGate(store)
	if gate.ShouldSend(ctx, id, models.NotificationBidRejected) {
		t.Error("disabled category must be blocked")
	}
	if !gate.ShouldSend(ctx, id, models.NotificationBidAwarded) {
		t.Error("unset category must default to allowed")
	}
	if !gate.ShouldSend(ctx, id, models.NotificationType("somethingNew")) {
		t.Error("unknown notification types must always be allowed")
	}
}

func TestGateCacheSkipsRepeatReads(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionUsers, models.User{Email: "user@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	gate := NewGate(store)
	if !gate.ShouldSend(ctx, id, models.NotificationBidAwarded) {
		t.Fatal("send should be allowed")
	}

	// Deleting the user after the first lookup must not change the cached
	// decision.
	if err := store.Delete(ctx, docstore.CollectionUsers, id); err != nil {
		t.Fatal(err)
	}
	if !gate.ShouldSend(ctx, id, models.NotificationBidAwarded) {
		t.Error("decision should be served from cache after the first lookup")
	}
}
