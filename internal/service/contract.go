package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

// GenerateContract creates a draft contract from an awarded bid once the
// tender's standstill period has elapsed. The supplier is asked to sign via
// a best-effort notification; contract creation never depends on delivery.
func (s *Service) GenerateContract(ctx context.Context, tenderID, bidID string, project models.ProjectRef) (models.Contract, error) {
	var contract models.Contract

	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil {
		return contract, fmt.Errorf("service.Service.GenerateContract: %w", err)
	}

	if !s.StandstillOver(tender.StandstillEndDate) {
		return contract, fmt.Errorf("service.Service.GenerateContract: %w", models.ErrStandstillActive)
	}

	bid := tender.Bid(bidID)
	if bid == nil {
		return contract, fmt.Errorf("service.Service.GenerateContract: %w", models.ErrNoBid)
	}

	now := s.now()
	contract = models.Contract{
		TenderID:  tender.ID,
		BidID:     bid.ID,
		ProjectID: project.ID,
		Status:    models.ContractDraft,
		Customer:  s.partySnapshot(ctx, tender.CreatedBy, tender.CompanyID),
		Supplier:  s.partySnapshot(ctx, bid.SubmitterUserID, bid.SubmitterCompany),
		Terms:     bid.Terms,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.store.Create(ctx, docstore.CollectionContracts, contract)
	if err != nil {
		return contract, fmt.Errorf("service.Service.GenerateContract: %w", depErr(err))
	}
	contract.ID = id

	if tender.AwardLetter != nil && tender.AwardLetter.Status == models.AwardLetterStandstill {
		tender.AwardLetter.Status = models.AwardLetterReadyForSigning
		if err := s.saveTender(ctx, tender); err != nil {
			log.Printf("service: could not advance award letter of tender %s: %s", tender.ID, err)
		}
	}

	supplier := contract.Supplier.UserID
	title := tender.Title
	s.outbox.Enqueue("contract-signing", func(ctx context.Context) error {
		if supplier == "" {
			return nil
		}
		if err := s.notifier.InApp(ctx, models.Notification{
			UserID:   supplier,
			Type:     models.NotificationContractSigning,
			Title:    "Contract ready for signing: " + title,
			Message:  "The contract has been generated and awaits your signature.",
			TenderID: tender.ID,
			RefID:    contract.ID,
		}); err != nil {
			return err
		}
		_, err := s.notifier.EmailUser(ctx, supplier, models.NotificationContractSigning,
			"Contract ready for signing: "+title,
			fmt.Sprintf("<p>The contract for <b>%s</b> is ready for your signature.</p>", title))
		return err
	})
	return contract, nil
}

// SignContract signs a contract, re-checking the owning tender's current
// standstill window first. A contract generated against a stale window must
// not slip through an unexpired one.
func (s *Service) SignContract(ctx context.Context, contractID, userID string) (models.Contract, error) {
	contract, err := s.contractByID(ctx, contractID)
	if err != nil {
		return contract, fmt.Errorf("service.Service.SignContract: %w", err)
	}

	if contract.Status == models.ContractSigned {
		return contract, fmt.Errorf("service.Service.SignContract: %w", models.ErrContractFinalized)
	}

	if contract.TenderID != "" {
		tender, err := s.tenderByID(ctx, contract.TenderID)
		if err == nil && !s.StandstillOver(tender.StandstillEndDate) {
			return contract, fmt.Errorf("service.Service.SignContract: %w", models.ErrStandstillActive)
		}
	}

	now := s.now()
	contract.Status = models.ContractSigned
	contract.SignedAt = &now
	contract.SignedBy = userID
	contract.UpdatedAt = now

	if err := s.saveContract(ctx, contract); err != nil {
		return contract, fmt.Errorf("service.Service.SignContract: %w", err)
	}

	s.advanceAwardLetter(ctx, contract.TenderID, models.AwardLetterSigned)
	s.notifyContractEvent(contract, models.NotificationContractSigned, "Contract signed",
		"<p>The contract has been signed.</p>")
	return contract, nil
}

// AddContractChange appends one amendment record, bumps the version and
// marks the contract amended. The change log is append-only.
func (s *Service) AddContractChange(ctx context.Context, contractID string, change models.ContractChange, userID string) (models.Contract, error) {
	if change.Field == "" {
		return models.Contract{}, fmt.Errorf("service.Service.AddContractChange: %w: missing field name", models.ErrValidation)
	}

	contract, err := s.contractByID(ctx, contractID)
	if err != nil {
		return contract, fmt.Errorf("service.Service.AddContractChange: %w", err)
	}

	now := s.now()
	change.ChangedBy = userID
	change.ChangedAt = now
	change.Version = contract.Version + 1

	contract.Changes = append(contract.Changes, change)
	contract.Version = change.Version
	contract.Status = models.ContractAmended
	contract.UpdatedAt = now

	if err := s.saveContract(ctx, contract); err != nil {
		return contract, fmt.Errorf("service.Service.AddContractChange: %w", err)
	}

	s.notifyContractEvent(contract, models.NotificationContractAmended, "Contract amended",
		fmt.Sprintf("<p>The contract was amended: %s.</p>", change.Field))
	return contract, nil
}

func (s *Service) contractByID(ctx context.Context, contractID string) (models.Contract, error) {
	var contract models.Contract
	err := s.store.Get(ctx, docstore.CollectionContracts, contractID, &contract)
	if errors.Is(err, docstore.ErrNotFound) {
		return contract, models.ErrNoContract
	} else if err != nil {
		return contract, depErr(err)
	}
	return contract, nil
}

func (s *Service) saveContract(ctx context.Context, contract models.Contract) error {
	err := s.store.Update(ctx, docstore.CollectionContracts, contract.ID, contract)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.ErrNoContract
	} else if err != nil {
		return depErr(err)
	}
	return nil
}

// partySnapshot captures the party's current identity; a missing user still
// yields a usable snapshot with the ids that are known.
func (s *Service) partySnapshot(ctx context.Context, userID, companyID string) models.Party {
	party := models.Party{UserID: userID, CompanyID: companyID}
	if userID == "" {
		return party
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		log.Printf("service: could not snapshot party %s: %s", userID, err)
		return party
	}
	party.Name = user.FirstName + " " + user.LastName
	party.Email = user.Email
	return party
}

// notifyContractEvent tells both parties about a contract event. Failures
// retry in the outbox and are otherwise swallowed.
func (s *Service) notifyContractEvent(contract models.Contract, kind models.NotificationType, title, body string) {
	for _, party := range []models.Party{contract.Customer, contract.Supplier} {
		if party.UserID == "" {
			continue
		}
		userID := party.UserID
		s.outbox.Enqueue("contract-event", func(ctx context.Context) error {
			if err := s.notifier.InApp(ctx, models.Notification{
				UserID:   userID,
				Type:     kind,
				Title:    title,
				TenderID: contract.TenderID,
				RefID:    contract.ID,
			}); err != nil {
				return err
			}
			_, err := s.notifier.EmailUser(ctx, userID, kind, title, body)
			return err
		})
	}
}

func (s *Service) advanceAwardLetter(ctx context.Context, tenderID string, status models.AwardLetterStatus) {
	if tenderID == "" {
		return
	}
	tender, err := s.tenderByID(ctx, tenderID)
	if err != nil || tender.AwardLetter == nil {
		return
	}
	tender.AwardLetter.Status = status
	if err := s.saveTender(ctx, tender); err != nil {
		log.Printf("service: could not advance award letter of tender %s: %s", tenderID, err)
	}
}
