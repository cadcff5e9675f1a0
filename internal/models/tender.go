package models

import (
	"strings"
	"time"
)

type TenderStatus string

const (
	TenderDraft   TenderStatus = "draft"
	TenderOpen    TenderStatus = "open"
	TenderClosed  TenderStatus = "closed"
	TenderAwarded TenderStatus = "awarded"
)

func ValidTenderStatus(s TenderStatus) bool {
	switch s {
	case TenderDraft, TenderOpen, TenderClosed, TenderAwarded:
		return true
	default:
		return false
	}
}

// ContractStandard identifies the Norwegian standard contract the tender is
// procured under.
type ContractStandard string

const (
	NS8405 ContractStandard = "NS8405"
	NS8406 ContractStandard = "NS8406"
	NS8407 ContractStandard = "NS8407"
)

func ValidContractStandard(s ContractStandard) bool {
	switch s {
	case NS8405, NS8406, NS8407:
		return true
	default:
		return false
	}
}

// StandardTerms holds the standard-specific sub-object for a tender. Exactly
// the variant matching Standard is populated; the constructors below are the
// only intended way to build one.
type StandardTerms struct {
	Standard ContractStandard `json:"standard"`
	NS8405   *NS8405Terms     `json:"ns8405,omitempty"`
	NS8406   *NS8406Terms     `json:"ns8406,omitempty"`
	NS8407   *NS8407Terms     `json:"ns8407,omitempty"`
}

// NS8405Terms covers execution contracts with full interaction rules.
type NS8405Terms struct {
	SecurityPercent    float64 `json:"securityPercent"`
	DefectLiabilityYrs int     `json:"defectLiabilityYears"`
	DailyFinePercent   float64 `json:"dailyFinePercent"`
}

// NS8406Terms is the simplified execution contract.
type NS8406Terms struct {
	SecurityPercent  float64 `json:"securityPercent"`
	DailyFinePercent float64 `json:"dailyFinePercent"`
}

// NS8407Terms covers design-build contracts.
type NS8407Terms struct {
	SecurityPercent  float64 `json:"securityPercent"`
	DesignLiability  bool    `json:"designLiability"`
	DailyFinePercent float64 `json:"dailyFinePercent"`
}

func NewNS8405Terms(t NS8405Terms) StandardTerms {
	return StandardTerms{Standard: NS8405, NS8405: &t}
}

func NewNS8406Terms(t NS8406Terms) StandardTerms {
	return StandardTerms{Standard: NS8406, NS8406: &t}
}

func NewNS8407Terms(t NS8407Terms) StandardTerms {
	return StandardTerms{Standard: NS8407, NS8407: &t}
}

type InvitationStatus string

const (
	InvitationInvited   InvitationStatus = "invited"
	InvitationViewed    InvitationStatus = "viewed"
	InvitationSubmitted InvitationStatus = "submitted"
)

// Invitation records a supplier invited to bid on a tender.
type Invitation struct {
	SupplierUserID    string           `json:"supplierUserId,omitempty"`
	SupplierCompanyID string           `json:"supplierCompanyId,omitempty"`
	Email             string           `json:"email,omitempty"`
	InvitedAt         time.Time        `json:"invitedAt"`
	Status            InvitationStatus `json:"status"`
}

// Matches reports whether the invitation refers to the same supplier:
// id match first, case-insensitive email match second.
func (inv Invitation) Matches(userID, companyID, email string) bool {
	if inv.SupplierUserID != "" && inv.SupplierUserID == userID {
		return true
	}
	if inv.SupplierCompanyID != "" && inv.SupplierCompanyID == companyID {
		return true
	}
	return inv.Email != "" && email != "" && strings.EqualFold(inv.Email, email)
}

// Question is a supplier question on a published tender, with its answer.
type Question struct {
	ID         string     `json:"id"`
	AskedBy    string     `json:"askedBy"`
	Text       string     `json:"text"`
	AskedAt    time.Time  `json:"askedAt"`
	AnsweredBy string     `json:"answeredBy,omitempty"`
	Answer     string     `json:"answer,omitempty"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

type DocumentReason string

const (
	DocumentCreated DocumentReason = "created"
	DocumentUpdated DocumentReason = "updated"
)

// TenderDocument is one version record of an uploaded tender document.
// Re-uploading under the same logical DocID appends a new record with a
// bumped Version and the "updated" reason.
type TenderDocument struct {
	DocID      string         `json:"docId"`
	Version    int            `json:"version"`
	Name       string         `json:"name"`
	StorageKey string         `json:"storageKey"`
	Reason     DocumentReason `json:"reason"`
	UploadedBy string         `json:"uploadedBy"`
	UploadedAt time.Time      `json:"uploadedAt"`
}

// Tender is the root procurement document. Bids, invitations, questions and
// document versions are embedded; the whole tender is written as one logical
// document.
type Tender struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	ContractStandard ContractStandard `json:"contractStandard"`
	Terms            StandardTerms    `json:"terms"`
	CreatedBy        string           `json:"createdBy"`
	CompanyID        string           `json:"companyId,omitempty"`
	Status           TenderStatus     `json:"status"`

	Deadline         time.Time  `json:"deadline"`
	PublishDate      *time.Time `json:"publishDate,omitempty"`
	QuestionDeadline *time.Time `json:"questionDeadline,omitempty"`

	PriceType       string `json:"priceType,omitempty"`
	EvaluationModel string `json:"evaluationModel,omitempty"`

	Invitations []Invitation     `json:"invitations,omitempty"`
	Bids        []Bid            `json:"bids,omitempty"`
	Questions   []Question       `json:"questions,omitempty"`
	Documents   []TenderDocument `json:"documents,omitempty"`

	AwardedBidID        string       `json:"awardedBidId,omitempty"`
	AwardedAt           *time.Time   `json:"awardedAt,omitempty"`
	StandstillStartDate *time.Time   `json:"standstillStartDate,omitempty"`
	StandstillEndDate   *time.Time   `json:"standstillEndDate,omitempty"`
	AwardLetter         *AwardLetter `json:"awardLetter,omitempty"`

	LastReminderOffset int `json:"lastReminderOffset,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Bid returns a pointer into the tender's bid list, or nil.
func (t *Tender) Bid(bidID string) *Bid {
	for i := range t.Bids {
		if t.Bids[i].ID == bidID {
			return &t.Bids[i]
		}
	}
	return nil
}

// InvitationFor locates the invitation matching the supplier, or nil.
func (t *Tender) InvitationFor(userID, companyID, email string) *Invitation {
	for i := range t.Invitations {
		if t.Invitations[i].Matches(userID, companyID, email) {
			return &t.Invitations[i]
		}
	}
	return nil
}
