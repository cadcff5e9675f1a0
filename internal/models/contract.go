package models

import "time"

type AwardLetterStatus string

const (
	AwardLetterStandstill      AwardLetterStatus = "standstill"
	AwardLetterReadyForSigning AwardLetterStatus = "ready_for_signing"
	AwardLetterSigned          AwardLetterStatus = "signed"
)

// AwardLetter is the immutable record of an award event, stored as a
// snapshot on the tender. Only its Status advances after creation.
type AwardLetter struct {
	TenderID         string            `json:"tenderId"`
	BidID            string            `json:"bidId"`
	ProjectID        string            `json:"projectId,omitempty"`
	ProjectName      string            `json:"projectName,omitempty"`
	AwardeeUserID    string            `json:"awardeeUserId"`
	AwardeeCompanyID string            `json:"awardeeCompanyId,omitempty"`
	AwardedAt        time.Time         `json:"awardedAt"`
	StandstillStart  time.Time         `json:"standstillStart"`
	StandstillEnd    time.Time         `json:"standstillEnd"`
	Terms            PriceTerms        `json:"terms"`
	Status           AwardLetterStatus `json:"status"`
}

type ContractStatus string

const (
	ContractDraft            ContractStatus = "draft"
	ContractPendingSignature ContractStatus = "pending_signature"
	ContractSigned           ContractStatus = "signed"
	ContractAmended          ContractStatus = "amended"
)

// Party is a point-in-time snapshot of one side of the contract.
type Party struct {
	UserID    string `json:"userId,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ContractChange is one entry of the append-only amendment log.
type ContractChange struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	Reason    string    `json:"reason,omitempty"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Version   int       `json:"version"`
}

// Contract is generated from an awarded tender after the standstill period.
// Version is monotonic from 1; Changes are never edited or removed.
type Contract struct {
	ID        string `json:"id"`
	TenderID  string `json:"tenderId"`
	BidID     string `json:"bidId"`
	ProjectID string `json:"projectId,omitempty"`

	Status   ContractStatus `json:"status"`
	Customer Party          `json:"customer"`
	Supplier Party          `json:"supplier"`
	Terms    PriceTerms     `json:"terms"`

	Version int              `json:"version"`
	Changes []ContractChange `json:"changes,omitempty"`

	SignedAt *time.Time `json:"signedAt,omitempty"`
	SignedBy string     `json:"signedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
