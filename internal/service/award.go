package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/mailer"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/notify"
)

// StandstillEnd computes the end of the standstill window: the award date
// advanced by the given number of calendar days, at the last instant of that
// day. The period is full-day inclusive, so a same-day award still grants
// the complete final day.
func StandstillEnd(award time.Time, days int) time.Time {
	d := award.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999_000_000, d.Location())
}

// StandstillOver reports whether the standstill period has elapsed. An
// absent end date counts as elapsed: tenders awarded outside this workflow
// carry no window and are not restricted.
func (s *Service) StandstillOver(end *time.Time) bool {
	return end == nil || !s.now().Before(*end)
}

// AwardTender runs the award sequence: compute the standstill window, build
// the award letter, mark the winning bid awarded and every sibling rejected,
// and persist the tender as one logical write conditioned on it not having
// been awarded in the meantime. Award and rejection emails are then sent
// best-effort; the returned report carries the per-recipient outcomes and
// never affects the persisted award.
func (s *Service) AwardTender(ctx context.Context, tenderID, bidID string, project models.ProjectRef) (models.Tender, *notify.Report, error) {
	report := notify.NewReport()

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", err)
	}
	if tender.AwardedBidID != "" || tender.Status == models.TenderAwarded {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", models.ErrAlreadyAwarded)
	}
	if tender.Status == models.TenderDraft {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", models.ErrTenderNotPublished)
	}

	winner := tender.Bid(bidID)
	if winner == nil {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", models.ErrNoBid)
	}

	awardDate := s.now()
	standstillEnd := StandstillEnd(awardDate, s.standstillDays)

	letter := models.AwardLetter{
		TenderID:         tender.ID,
		BidID:            winner.ID,
		ProjectID:        project.ID,
		ProjectName:      project.Name,
		AwardeeUserID:    winner.SubmitterUserID,
		AwardeeCompanyID: winner.SubmitterCompany,
		AwardedAt:        awardDate,
		StandstillStart:  awardDate,
		StandstillEnd:    standstillEnd,
		Terms:            winner.Terms,
		Status:           models.AwardLetterStandstill,
	}

	winner.Status = models.BidAwarded
	for i := range tender.Bids {
		if tender.Bids[i].ID == winner.ID {
			continue
		}
		if tender.Bids[i].Status != models.BidRejected {
			tender.Bids[i].Status = models.BidRejected
		}
	}

	tender.Status = models.TenderAwarded
	tender.AwardedBidID = winner.ID
	tender.AwardedAt = &awardDate
	tender.StandstillStartDate = &awardDate
	tender.StandstillEndDate = &standstillEnd
	tender.AwardLetter = &letter
	tender.UpdatedAt = awardDate

	// The write only lands while the tender is still unawarded; a
	// concurrent award loses with a conflict instead of silently
	// overwriting the winner.
	err = s.store.UpdateWhere(ctx, docstore.CollectionTenders, tender.ID, tender, []docstore.Predicate{
		docstore.In("status", string(models.TenderOpen), string(models.TenderClosed)),
		docstore.Absent("awardedBidId"),
	})
	if errors.Is(err, docstore.ErrConflict) {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", models.ErrAlreadyAwarded)
	} else if errors.Is(err, docstore.ErrNotFound) {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", models.ErrNoTender)
	} else if err != nil {
		return tender, report, fmt.Errorf("service.Service.AwardTender: %w", depErr(err))
	}

	s.sendAwardEmails(ctx, tender, *winner, report)
	return tender, report, nil
}

// sendAwardEmails delivers the award email to the winner and rejection
// emails to every other bidder. Each recipient is handled independently;
// one failure never blocks the rest.
func (s *Service) sendAwardEmails(ctx context.Context, tender models.Tender, winner models.Bid, report *notify.Report) {
	for _, bid := range tender.Bids {
		recipient := bid.SubmitterUserID

		addr, err := s.bidderEmail(ctx, tender, bid)
		if err != nil {
			report.Record(recipient, mailer.Failed, err)
			continue
		}

		var subject, body string
		var kind models.NotificationType
		if bid.ID == winner.ID {
			kind = models.NotificationBidAwarded
			subject = "Contract awarded: " + tender.Title
			body = fmt.Sprintf("<p>Your bid on <b>%s</b> has been awarded.</p><p>The standstill period runs until %s.</p>",
				tender.Title, tender.StandstillEndDate.Format("2006-01-02 15:04"))
		} else {
			kind = models.NotificationBidRejected
			subject = "Bid not selected: " + tender.Title
			body = fmt.Sprintf("<p>Your bid on <b>%s</b> was not selected.</p>", tender.Title)
		}

		outcome, err := s.notifier.EmailAddress(ctx, addr, bid.SubmitterUserID, kind, subject, body)
		report.Record(recipient, outcome, err)

		userID := bid.SubmitterUserID
		s.outbox.Enqueue("award-inapp", func(ctx context.Context) error {
			return s.notifier.InApp(ctx, models.Notification{
				UserID:   userID,
				Type:     kind,
				Title:    subject,
				TenderID: tender.ID,
				RefID:    bid.ID,
			})
		})
	}
}

// bidderEmail resolves a bidder's address: the matching invitation's email
// first, the stored user profile second.
func (s *Service) bidderEmail(ctx context.Context, tender models.Tender, bid models.Bid) (string, error) {
	if inv := tender.InvitationFor(bid.SubmitterUserID, bid.SubmitterCompany, ""); inv != nil && inv.Email != "" {
		return inv.Email, nil
	}

	user, err := s.userByID(ctx, bid.SubmitterUserID)
	if err != nil {
		return "", fmt.Errorf("service.Service.bidderEmail: %w", err)
	}
	if user.Email == "" {
		return "", fmt.Errorf("service.Service.bidderEmail: user %s has no email address", bid.SubmitterUserID)
	}
	return user.Email, nil
}
