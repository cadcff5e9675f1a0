package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

// SubmitBid uploads the attachments first, then appends the bid to the
// tender and marks the matching invitation as submitted. The tender creator
// is notified after the write succeeds; a notification failure never fails
// the submission.
func (s *Service) SubmitBid(ctx context.Context, tenderID string, bid models.Bid, attachments []Upload) (models.Bid, error) {
	if bid.SubmitterUserID == "" {
		return bid, fmt.Errorf("service.Service.SubmitBid: %w: missing submitter", models.ErrValidation)
	}

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return bid, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}
	if tender.Status != models.TenderOpen {
		return bid, fmt.Errorf("service.Service.SubmitBid: %w", models.ErrTenderNotOpen)
	}

	for _, upload := range attachments {
		key, err := s.blobs.Upload(ctx, upload.Name, upload.Content)
		if err != nil {
			return bid, fmt.Errorf("service.Service.SubmitBid: %w", depErr(err))
		}
		bid.Attachments = append(bid.Attachments, models.BidAttachment{
			Name:       upload.Name,
			StorageKey: key,
		})
	}

	bid.ID = uuid.NewString()
	bid.TenderID = tender.ID
	bid.Status = models.BidSubmitted
	bid.SubmittedAt = s.now()
	tender.Bids = append(tender.Bids, bid)

	// Invitation matching prefers ids; email matching needs the
	// submitter's stored address, looked up best-effort.
	email := ""
	if user, err := s.userByID(ctx, bid.SubmitterUserID); err == nil {
		email = user.Email
	}
	if inv := tender.InvitationFor(bid.SubmitterUserID, bid.SubmitterCompany, email); inv != nil {
		inv.Status = models.InvitationSubmitted
	}

	if err := s.saveTender(ctx, tender); err != nil {
		return bid, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	creator := tender.CreatedBy
	title := tender.Title
	s.outbox.Enqueue("bid-submitted", func(ctx context.Context) error {
		if err := s.notifier.InApp(ctx, models.Notification{
			UserID:   creator,
			Type:     models.NotificationBidSubmitted,
			Title:    "New bid on " + title,
			Message:  "A supplier has submitted a bid.",
			TenderID: tender.ID,
			RefID:    bid.ID,
		}); err != nil {
			return err
		}
		_, err := s.notifier.EmailUser(ctx, creator, models.NotificationBidSubmitted,
			"New bid on "+title,
			fmt.Sprintf("<p>A new bid was submitted on <b>%s</b>.</p>", title))
		return err
	})
	return bid, nil
}
