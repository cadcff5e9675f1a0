package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

// awardedTender sets up an awarded tender with one winning bid and returns
// both.
func awardedTender(t *testing.T, svc *Service, env *testEnv) (models.Tender, models.Bid) {
	t.Helper()

	creator, _ := seedUser(t, env, nil)
	supplier, _ := seedUser(t, env, nil)

	tender := seedOpenTender(t, svc, env, creator)
	bid := submitBid(t, svc, tender.ID, supplier, 100000)

	awarded, _, err := svc.AwardTender(context.Background(), tender.ID, bid.ID, models.ProjectRef{ID: "proj-1"})
	if err != nil {
		t.Fatal(err)
	}
	return awarded, *awarded.Bid(bid.ID)
}

func TestGenerateContractBlockedDuringStandstill(t *testing.T) {
	svc, env := newTestService(t)
	tender, bid := awardedTender(t, svc, env)
	ctx := context.Background()

	_, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{})
	if !errors.Is(err, models.ErrStandstillActive) {
		t.Fatalf("contract generation during standstill must fail, got %v", err)
	}

	// No contract may have been written.
	var contracts []models.Contract
	if err := env.store.Query(ctx, docstore.CollectionContracts, nil, &contracts); err != nil {
		t.Fatal(err)
	}
	if len(contracts) != 0 {
		t.Errorf("no contract should be persisted, got %d", len(contracts))
	}
}

func TestGenerateContractStandstillBoundary(t *testing.T) {
	svc, env := newTestService(t)
	tender, bid := awardedTender(t, svc, env)
	ctx := context.Background()

	end := *tender.StandstillEndDate

	// The instant before expiry still fails.
	env.clock.Set(end.Add(-time.Millisecond))
	if _, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{}); !errors.Is(err, models.ErrStandstillActive) {
		t.Fatalf("generation just before expiry must fail, got %v", err)
	}

	// One second after it succeeds.
	env.clock.Set(end.Add(time.Second))
	contract, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{ID: "proj-1"})
	if err != nil {
		t.Fatal(err)
	}
	if contract.Status != models.ContractDraft || contract.Version != 1 {
		t.Errorf("new contract should be draft version 1, got %+v", contract)
	}
	if len(contract.Changes) != 0 {
		t.Errorf("new contract should have an empty change log, got %d entries", len(contract.Changes))
	}
	if contract.Terms.Price != bid.Terms.Price {
		t.Errorf("contract terms should mirror the bid, got %+v", contract.Terms)
	}

	// The award letter advances to ready for signing.
	stored, err := svc.GetTender(ctx, tender.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.AwardLetter.Status != models.AwardLetterReadyForSigning {
		t.Errorf("award letter should be ready for signing, got %s", stored.AwardLetter.Status)
	}
}

func TestGenerateContractWithoutStandstillWindow(t *testing.T) {
	svc, env := newTestService(t)
	creator, _ := seedUser(t, env, nil)
	supplier, _ := seedUser(t, env, nil)
	ctx := context.Background()

	// A tender awarded outside this workflow carries bids but no
	// standstill window; generation is unrestricted.
	tender := seedOpenTender(t, svc, env, creator)
	bid := submitBid(t, svc, tender.ID, supplier, 50000)

	contract, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{})
	if err != nil {
		t.Fatal(err)
	}
	if contract.Status != models.ContractDraft || contract.Version != 1 {
		t.Errorf("expected draft version 1, got %+v", contract)
	}
}

func TestSignContract(t *testing.T) {
	svc, env := newTestService(t)
	tender, bid := awardedTender(t, svc, env)
	ctx := context.Background()

	env.clock.Set(tender.StandstillEndDate.Add(time.Second))
	contract, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{})
	if err != nil {
		t.Fatal(err)
	}

	signer, _ := seedUser(t, env, nil)
	signed, err := svc.SignContract(ctx, contract.ID, signer)
	if err != nil {
		t.Fatal(err)
	}
	if signed.Status != models.ContractSigned {
		t.Errorf("expected signed, got %s", signed.Status)
	}
	if signed.SignedAt == nil || signed.SignedBy != signer {
		t.Errorf("signing should record who and when: %+v", signed)
	}

	if _, err := svc.SignContract(ctx, contract.ID, signer); !errors.Is(err, models.ErrContractFinalized) {
		t.Errorf("signing twice should fail, got %v", err)
	}

	stored, err := svc.GetTender(ctx, tender.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.AwardLetter.Status != models.AwardLetterSigned {
		t.Errorf("award letter should be signed, got %s", stored.AwardLetter.Status)
	}
}

func TestSignContractRechecksStandstill(t *testing.T) {
	svc, env := newTestService(t)
	tender, bid := awardedTender(t, svc, env)
	ctx := context.Background()

	// Contract generated after expiry of the original window.
	env.clock.Set(tender.StandstillEndDate.Add(time.Second))
	contract, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{})
	if err != nil {
		t.Fatal(err)
	}

	// A newer standstill window then appears on the tender; signing must
	// respect the current window, not the one generation saw.
	stored, err := svc.GetTender(ctx, tender.ID)
	if err != nil {
		t.Fatal(err)
	}
	laterEnd := env.clock.Now().Add(48 * time.Hour)
	stored.StandstillEndDate = &laterEnd
	if err := env.store.Update(ctx, docstore.CollectionTenders, stored.ID, stored); err != nil {
		t.Fatal(err)
	}

	signer, _ := seedUser(t, env, nil)
	if _, err := svc.SignContract(ctx, contract.ID, signer); !errors.Is(err, models.ErrStandstillActive) {
		t.Fatalf("signing inside the current standstill window must fail, got %v", err)
	}

	env.clock.Set(laterEnd.Add(time.Second))
	if _, err := svc.SignContract(ctx, contract.ID, signer); err != nil {
		t.Fatalf("signing after the window should succeed, got %v", err)
	}
}

func TestAddContractChange(t *testing.T) {
	svc, env := newTestService(t)
	tender, bid := awardedTender(t, svc, env)
	ctx := context.Background()

	env.clock.Set(tender.StandstillEndDate.Add(time.Second))
	contract, err := svc.GenerateContract(ctx, tender.ID, bid.ID, models.ProjectRef{})
	if err != nil {
		t.Fatal(err)
	}

	editor, _ := seedUser(t, env, nil)
	for i := 1; i <= 3; i++ {
		contract, err = svc.AddContractChange(ctx, contract.ID, models.ContractChange{
			Field:    "price",
			OldValue: "100000",
			NewValue: "105000",
			Reason:   "index adjustment",
		}, editor)
		if err != nil {
			t.Fatal(err)
		}

		if contract.Version != 1+i {
			t.Errorf("change %d: expected version %d, got %d", i, 1+i, contract.Version)
		}
		if contract.Status != models.ContractAmended {
			t.Errorf("change %d: expected amended, got %s", i, contract.Status)
		}
		if len(contract.Changes) != i {
			t.Errorf("change %d: expected %d log entries, got %d", i, i, len(contract.Changes))
		}
	}

	// The log keeps every entry with its version at the time.
	for i, change := range contract.Changes {
		if change.Version != i+2 {
			t.Errorf("entry %d should carry version %d, got %d", i, i+2, change.Version)
		}
		if change.ChangedBy != editor || change.ChangedAt.IsZero() {
			t.Errorf("entry %d should record who and when: %+v", i, change)
		}
	}

	if _, err := svc.AddContractChange(ctx, contract.ID, models.ContractChange{}, editor); !errors.Is(err, models.ErrValidation) {
		t.Errorf("a change without a field name should be rejected, got %v", err)
	}
	if _, err := svc.AddContractChange(ctx, "missing", models.ContractChange{Field: "x"}, editor); !errors.Is(err, models.ErrNoContract) {
		t.Errorf("expected ErrNoContract, got %v", err)
	}
}
