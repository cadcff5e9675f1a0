package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

func (s *Service) NewTender(ctx context.Context, tender models.Tender) (models.Tender, error) {
	if tender.Title == "" {
		return tender, fmt.Errorf("service.Service.NewTender: %w: empty title", models.ErrValidation)
	}
	if tender.CreatedBy == "" {
		return tender, fmt.Errorf("service.Service.NewTender: %w: missing creator", models.ErrValidation)
	}
	if tender.Deadline.IsZero() {
		return tender, fmt.Errorf("service.Service.NewTender: %w: missing deadline", models.ErrValidation)
	}
	if !models.ValidContractStandard(tender.ContractStandard) {
		return tender, fmt.Errorf("service.Service.NewTender: %w: unknown contract standard %q",
			models.ErrValidation, tender.ContractStandard)
	}

	tender.Status = models.TenderDraft
	tender.CreatedAt = s.now()
	tender.UpdatedAt = tender.CreatedAt

	id, err := s.store.Create(ctx, docstore.CollectionTenders, tender)
	if err != nil {
		return tender, fmt.Errorf("service.Service.NewTender: %w", depErr(err))
	}
	tender.ID = id
	return tender, nil
}

func (s *Service) GetTender(ctx context.Context, tenderID string) (models.Tender, error) {
	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return tender, fmt.Errorf("service.Service.GetTender: %w", err)
	}
	return tender, nil
}

// PublishTender moves a draft tender to open and fires invitation
// notifications to every already-invited supplier with an email address.
func (s *Service) PublishTender(ctx context.Context, tenderID string) (models.Tender, error) {
	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return tender, fmt.Errorf("service.Service.PublishTender: %w", err)
	}

	if tender.Status != models.TenderDraft {
		return tender, fmt.Errorf("service.Service.PublishTender: %w: tender is already published", models.ErrPolicy)
	}

	now := s.now()
	tender.Status = models.TenderOpen
	tender.PublishDate = &now

	if err := s.saveTender(ctx, tender); err != nil {
		return tender, fmt.Errorf("service.Service.PublishTender: %w", err)
	}

	for _, inv := range tender.Invitations {
		if inv.Email == "" {
			continue
		}
		s.notifyInvitation(tender, inv)
	}
	return tender, nil
}

// InviteSupplier upserts an invitation, matching existing entries by
// supplier id first and case-insensitive email second. Updating an existing
// entry preserves its history and never re-notifies; a new entry on a
// published tender with an address is notified exactly once.
func (s *Service) InviteSupplier(ctx context.Context, tenderID string, inv models.Invitation) (models.Tender, error) {
	if inv.SupplierUserID == "" && inv.SupplierCompanyID == "" && inv.Email == "" {
		return models.Tender{}, fmt.Errorf("service.Service.InviteSupplier: %w: invitation identifies no supplier", models.ErrValidation)
	}

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return tender, fmt.Errorf("service.Service.InviteSupplier: %w", err)
	}

	existing := tender.InvitationFor(inv.SupplierUserID, inv.SupplierCompanyID, inv.Email)
	if existing != nil {
		if inv.SupplierUserID != "" {
			existing.SupplierUserID = inv.SupplierUserID
		}
		if inv.SupplierCompanyID != "" {
			existing.SupplierCompanyID = inv.SupplierCompanyID
		}
		if inv.Email != "" {
			existing.Email = inv.Email
		}
		if err := s.saveTender(ctx, tender); err != nil {
			return tender, fmt.Errorf("service.Service.InviteSupplier: %w", err)
		}
		return tender, nil
	}

	inv.InvitedAt = s.now()
	inv.Status = models.InvitationInvited
	tender.Invitations = append(tender.Invitations, inv)

	if err := s.saveTender(ctx, tender); err != nil {
		return tender, fmt.Errorf("service.Service.InviteSupplier: %w", err)
	}

	// Draft tenders notify at publication instead.
	if tender.Status != models.TenderDraft && inv.Email != "" {
		s.notifyInvitation(tender, inv)
	}
	return tender, nil
}

func (s *Service) notifyInvitation(tender models.Tender, inv models.Invitation) {
	subject := "Invitation to bid: " + tender.Title
	body := fmt.Sprintf("<p>You have been invited to submit a bid for <b>%s</b>.</p><p>Deadline: %s</p>",
		tender.Title, tender.Deadline.Format("2006-01-02 15:04"))

	s.outbox.Enqueue("invitation-email", func(ctx context.Context) error {
		_, err := s.notifier.EmailAddress(ctx, inv.Email, inv.SupplierUserID, models.NotificationTenderInvitation, subject, body)
		return err
	})

	if inv.SupplierUserID != "" {
		userID := inv.SupplierUserID
		s.outbox.Enqueue("invitation-inapp", func(ctx context.Context) error {
			return s.notifier.InApp(ctx, models.Notification{
				UserID:   userID,
				Type:     models.NotificationTenderInvitation,
				Title:    subject,
				Message:  "You have been invited to submit a bid.",
				TenderID: tender.ID,
			})
		})
	}
}

// CloseTender closes an open tender. Closing an already-closed tender is a
// no-op so deadline sweeps can repeat safely.
func (s *Service) CloseTender(ctx context.Context, tenderID string) (models.Tender, error) {
	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return tender, fmt.Errorf("service.Service.CloseTender: %w", err)
	}

	switch tender.Status {
	case models.TenderClosed:
		return tender, nil
	case models.TenderOpen:
	default:
		return tender, fmt.Errorf("service.Service.CloseTender: %w: tender is %s", models.ErrPolicy, tender.Status)
	}

	tender.Status = models.TenderClosed
	if err := s.saveTender(ctx, tender); err != nil {
		return tender, fmt.Errorf("service.Service.CloseTender: %w", err)
	}
	return tender, nil
}

func (s *Service) ReopenTender(ctx context.Context, tenderID string) (models.Tender, error) {
	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return tender, fmt.Errorf("service.Service.ReopenTender: %w", err)
	}

	if tender.Status != models.TenderClosed {
		return tender, fmt.Errorf("service.Service.ReopenTender: %w: tender is %s", models.ErrPolicy, tender.Status)
	}

	tender.Status = models.TenderOpen
	if err := s.saveTender(ctx, tender); err != nil {
		return tender, fmt.Errorf("service.Service.ReopenTender: %w", err)
	}
	return tender, nil
}

// AskQuestion records a supplier question. Questions require a published
// tender.
func (s *Service) AskQuestion(ctx context.Context, tenderID, userID, text string) (models.Question, error) {
	if text == "" {
		return models.Question{}, fmt.Errorf("service.Service.AskQuestion: %w: empty question", models.ErrValidation)
	}

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return models.Question{}, fmt.Errorf("service.Service.AskQuestion: %w", err)
	}
	if tender.Status == models.TenderDraft {
		return models.Question{}, fmt.Errorf("service.Service.AskQuestion: %w", models.ErrTenderNotPublished)
	}

	question := models.Question{
		ID:      uuid.NewString(),
		AskedBy: userID,
		Text:    text,
		AskedAt: s.now(),
	}
	tender.Questions = append(tender.Questions, question)

	if err := s.saveTender(ctx, tender); err != nil {
		return question, fmt.Errorf("service.Service.AskQuestion: %w", err)
	}
	return question, nil
}

// AnswerQuestion records the answer and notifies the original asker.
func (s *Service) AnswerQuestion(ctx context.Context, tenderID, questionID, userID, answer string) (models.Question, error) {
	if answer == "" {
		return models.Question{}, fmt.Errorf("service.Service.AnswerQuestion: %w: empty answer", models.ErrValidation)
	}

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return models.Question{}, fmt.Errorf("service.Service.AnswerQuestion: %w", err)
	}
	if tender.Status == models.TenderDraft {
		return models.Question{}, fmt.Errorf("service.Service.AnswerQuestion: %w", models.ErrTenderNotPublished)
	}

	var question *models.Question
	for i := range tender.Questions {
		if tender.Questions[i].ID == questionID {
			question = &tender.Questions[i]
			break
		}
	}
	if question == nil {
		return models.Question{}, fmt.Errorf("service.Service.AnswerQuestion: question %s: %w", questionID, models.ErrNotFound)
	}

	now := s.now()
	question.Answer = answer
	question.AnsweredBy = userID
	question.AnsweredAt = &now

	if err := s.saveTender(ctx, tender); err != nil {
		return *question, fmt.Errorf("service.Service.AnswerQuestion: %w", err)
	}

	asker := question.AskedBy
	answered := *question
	s.outbox.Enqueue("question-answered", func(ctx context.Context) error {
		if err := s.notifier.InApp(ctx, models.Notification{
			UserID:   asker,
			Type:     models.NotificationQuestionAnswered,
			Title:    "Your question on " + tender.Title + " was answered",
			Message:  answered.Answer,
			TenderID: tender.ID,
			RefID:    answered.ID,
		}); err != nil {
			return err
		}
		_, err := s.notifier.EmailUser(ctx, asker, models.NotificationQuestionAnswered,
			"Your question was answered: "+tender.Title,
			fmt.Sprintf("<p>Question: %s</p><p>Answer: %s</p>", answered.Text, answered.Answer))
		return err
	})
	return *question, nil
}

// AddTenderDocument uploads the blob first and appends a version record.
// An empty docID starts a new logical document; a known docID appends the
// next version with the "updated" reason.
func (s *Service) AddTenderDocument(ctx context.Context, tenderID, docID, userID string, upload Upload) (models.TenderDocument, error) {
	if upload.Name == "" || upload.Content == nil {
		return models.TenderDocument{}, fmt.Errorf("service.Service.AddTenderDocument: %w: missing file", models.ErrValidation)
	}

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return models.TenderDocument{}, fmt.Errorf("service.Service.AddTenderDocument: %w", err)
	}

	key, err := s.blobs.Upload(ctx, upload.Name, upload.Content)
	if err != nil {
		return models.TenderDocument{}, fmt.Errorf("service.Service.AddTenderDocument: %w", depErr(err))
	}

	doc := models.TenderDocument{
		DocID:      docID,
		Version:    1,
		Name:       upload.Name,
		StorageKey: key,
		Reason:     models.DocumentCreated,
		UploadedBy: userID,
		UploadedAt: s.now(),
	}
	if docID == "" {
		doc.DocID = uuid.NewString()
	} else {
		for _, existing := range tender.Documents {
			if existing.DocID == docID && existing.Version >= doc.Version {
				doc.Version = existing.Version + 1
				doc.Reason = models.DocumentUpdated
			}
		}
	}

	tender.Documents = append(tender.Documents, doc)
	if err := s.saveTender(ctx, tender); err != nil {
		return doc, fmt.Errorf("service.Service.AddTenderDocument: %w", err)
	}
	return doc, nil
}

// RemoveTenderDocument drops every version record of the logical document
// and best-effort deletes the underlying blobs. A storage failure does not
// fail the removal.
func (s *Service) RemoveTenderDocument(ctx context.Context, tenderID, docID string) error {
	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return fmt.Errorf("service.Service.RemoveTenderDocument: %w", err)
	}

	var kept []models.TenderDocument
	var removed []models.TenderDocument
	for _, doc := range tender.Documents {
		if doc.DocID == docID {
			removed = append(removed, doc)
		} else {
			kept = append(kept, doc)
		}
	}
	if len(removed) == 0 {
		return fmt.Errorf("service.Service.RemoveTenderDocument: document %s: %w", docID, models.ErrNotFound)
	}

	tender.Documents = kept
	if err := s.saveTender(ctx, tender); err != nil {
		return fmt.Errorf("service.Service.RemoveTenderDocument: %w", err)
	}

	for _, doc := range removed {
		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
			log.Printf("service: could not delete blob %s of tender %s: %s", doc.StorageKey, tenderID, err)
		}
	}
	return nil
}
