package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

// SweepResult summarizes one deadline sweep.
type SweepResult struct {
	Closed   int
	Reminded int
}

// CheckDeadlineReminders sweeps every open tender: tenders past their
// deadline are closed, tenders hitting a configured day offset before the
// deadline trigger reminder notifications to the creator and the invited
// suppliers. The sweep is idempotent and safe to run concurrently; closing
// races are resolved by the conditional write and simply skipped.
func (s *Service) CheckDeadlineReminders(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	var tenders []models.Tender
	err := s.store.Query(ctx, docstore.CollectionTenders, []docstore.Predicate{
		docstore.Eq("status", string(models.TenderOpen)),
	}, &tenders)
	if err != nil {
		return result, fmt.Errorf("service.Service.CheckDeadlineReminders: %w", depErr(err))
	}

	now := s.now()
	for _, tender := range tenders {
		if now.After(tender.Deadline) {
			if s.autoClose(ctx, tender) {
				result.Closed++
			}
			continue
		}

		offset := s.matchReminderOffset(now, tender.Deadline)
		if offset == 0 || tender.LastReminderOffset == offset {
			continue
		}

		s.sendDeadlineReminders(tender, offset)
		result.Reminded++

		tender.LastReminderOffset = offset
		tender.UpdatedAt = now
		err := s.store.UpdateWhere(ctx, docstore.CollectionTenders, tender.ID, tender, []docstore.Predicate{
			docstore.Eq("status", string(models.TenderOpen)),
		})
		if err != nil && !errors.Is(err, docstore.ErrConflict) {
			log.Printf("service: could not record reminder offset on tender %s: %s", tender.ID, err)
		}
	}
	return result, nil
}

// autoClose closes one expired tender, conditioned on it still being open
// so a concurrent sweep closing it first makes this one a no-op.
func (s *Service) autoClose(ctx context.Context, tender models.Tender) bool {
	tender.Status = models.TenderClosed
	tender.UpdatedAt = s.now()

	err := s.store.UpdateWhere(ctx, docstore.CollectionTenders, tender.ID, tender, []docstore.Predicate{
		docstore.Eq("status", string(models.TenderOpen)),
	})
	if errors.Is(err, docstore.ErrConflict) || errors.Is(err, docstore.ErrNotFound) {
		return false
	}
	if err != nil {
		log.Printf("service: could not auto-close tender %s: %s", tender.ID, err)
		return false
	}
	return true
}

// matchReminderOffset returns the configured offset matching the number of
// whole calendar days left until the deadline, or 0.
func (s *Service) matchReminderOffset(now, deadline time.Time) int {
	daysLeft := calendarDaysBetween(now, deadline)
	for _, offset := range s.reminderOffsets {
		if daysLeft == offset {
			return offset
		}
	}
	return 0
}

func calendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay) / (24 * time.Hour))
}

func (s *Service) sendDeadlineReminders(tender models.Tender, daysLeft int) {
	subject := fmt.Sprintf("Deadline in %d day(s): %s", daysLeft, tender.Title)
	body := fmt.Sprintf("<p>The deadline for <b>%s</b> is %s.</p>",
		tender.Title, tender.Deadline.Format("2006-01-02 15:04"))

	creator := tender.CreatedBy
	s.outbox.Enqueue("deadline-reminder", func(ctx context.Context) error {
		if err := s.notifier.InApp(ctx, models.Notification{
			UserID:   creator,
			Type:     models.NotificationDeadlineReminder,
			Title:    subject,
			TenderID: tender.ID,
		}); err != nil {
			return err
		}
		_, err := s.notifier.EmailUser(ctx, creator, models.NotificationDeadlineReminder, subject, body)
		return err
	})

	for _, inv := range tender.Invitations {
		if inv.Email == "" || inv.Status == models.InvitationSubmitted {
			continue
		}
		inv := inv
		s.outbox.Enqueue("deadline-reminder", func(ctx context.Context) error {
			_, err := s.notifier.EmailAddress(ctx, inv.Email, inv.SupplierUserID,
				models.NotificationDeadlineReminder, subject, body)
			return err
		})
	}
}
