package notify

import (
	"context"
	"log"
	"sync"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

// Gate decides per user and notification type whether an email may be sent.
// Preference lookups are cached for the lifetime of the gate instance; a
// failed lookup is treated as "do not send" and that denial is cached too
// (fail-closed).
type Gate struct {
	store docstore.Store

	mu    sync.Mutex
	cache map[string]gateEntry
}

type gateEntry struct {
	prefs  models.NotificationPreferences
	denied bool
}

func NewGate(store docstore.Store) *Gate {
	return &Gate{
		store: store,
		cache: make(map[string]gateEntry),
	}
}

// ShouldSend reports whether an email of the given type may go to the user.
// An empty userID means the recipient is not a registered user and the
// caller only holds a literal address, so the gate allows the send.
func (g *Gate) ShouldSend(ctx context.Context, userID string, t models.NotificationType) bool {
	if userID == "" {
		return true
	}

	entry := g.lookup(ctx, userID)
	if entry.denied {
		return false
	}
	return entry.prefs.Allows(t)
}

func (g *Gate) lookup(ctx context.Context, userID string) gateEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.cache[userID]; ok {
		return entry
	}

	var user models.User
	err := g.store.Get(ctx, docstore.CollectionUsers, userID, &user)
	if err != nil {
		log.Printf("notify.Gate: preference lookup for user %s failed, blocking sends: %s", userID, err)
		entry := gateEntry{denied: true}
		g.cache[userID] = entry
		return entry
	}

	entry := gateEntry{prefs: user.Preferences}
	g.cache[userID] = entry
	return entry
}
