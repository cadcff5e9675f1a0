// Package service implements the procurement lifecycle: tender state
// transitions, bid intake, the award sequence with its standstill window,
// contract generation and signing, and deadline sweeps. Domain writes go
// through the document store; notifications are best-effort side effects
// routed through the notifier and the outbox.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/notify"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/outbox"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/storage"
)

const DefaultStandstillDays = 10

type Service struct {
	store    docstore.Store
	blobs    storage.Storage
	notifier *notify.Notifier
	outbox   *outbox.Queue

	standstillDays  int
	reminderOffsets []int

	now func() time.Time
}

type option func(*Service)

// WithClock replaces the wall clock, letting tests pin the standstill and
// reminder boundaries.
func WithClock(now func() time.Time) option {
	return func(s *Service) {
		s.now = now
	}
}

func WithStandstillDays(days int) option {
	return func(s *Service) {
		s.standstillDays = days
	}
}

func WithReminderOffsets(offsets []int) option {
	return func(s *Service) {
		s.reminderOffsets = offsets
	}
}

func NewService(store docstore.Store, blobs storage.Storage, notifier *notify.Notifier, queue *outbox.Queue, opts ...option) *Service {
	s := &Service{
		store:           store,
		blobs:           blobs,
		notifier:        notifier,
		outbox:          queue,
		standstillDays:  DefaultStandstillDays,
		reminderOffsets: []int{7, 3, 1},
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload is one file attached to a bid or tender document operation.
type Upload struct {
	Name    string
	Content io.Reader
}

func (s *Service) tenderByID(ctx context.Context, tenderID string) (models.Tender, error) {
	var tender models.Tender
	err := s.store.Get(ctx, docstore.CollectionTenders, tenderID, &tender)
	if errors.Is(err, docstore.ErrNotFound) {
		return tender, models.ErrNoTender
	} else if err != nil {
		return tender, depErr(err)
	}
	return tender, nil
}

func (s *Service) userByID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.store.Get(ctx, docstore.CollectionUsers, userID, &user)
	if errors.Is(err, docstore.ErrNotFound) {
		return user, models.ErrNoUser
	} else if err != nil {
		return user, depErr(err)
	}
	return user, nil
}

func (s *Service) saveTender(ctx context.Context, tender models.Tender) error {
	tender.UpdatedAt = s.now()
	err := s.store.Update(ctx, docstore.CollectionTenders, tender.ID, tender)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.ErrNoTender
	} else if err != nil {
		return depErr(err)
	}
	return nil
}

// depErr tags a collaborator failure with the dependency category while
// keeping the original chain matchable.
func depErr(err error) error {
	return fmt.Errorf("%w (%w)", models.ErrDependency, err)
}
