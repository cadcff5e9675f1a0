package models

import "time"

type BidStatus string

const (
	BidSubmitted BidStatus = "submitted"
	BidAwarded   BidStatus = "awarded"
	BidRejected  BidStatus = "rejected"
)

func ValidBidStatus(s BidStatus) bool {
	switch s {
	case BidSubmitted, BidAwarded, BidRejected:
		return true
	default:
		return false
	}
}

// PriceTerms carries the commercial terms a supplier bids with; mirrored
// into the award letter and contract on award.
type PriceTerms struct {
	Price          float64 `json:"price"`
	PriceStructure string  `json:"priceStructure,omitempty"`
	HourlyRate     float64 `json:"hourlyRate,omitempty"`
	Currency       string  `json:"currency,omitempty"`
}

// BidAttachment references a file uploaded with the bid.
type BidAttachment struct {
	Name       string `json:"name"`
	StorageKey string `json:"storageKey"`
}

// Bid is a supplier offer embedded in the tender document. Bids are
// append-only; retraction is not modeled.
type Bid struct {
	ID               string          `json:"id"`
	TenderID         string          `json:"tenderId"`
	SubmitterUserID  string          `json:"submitterUserId"`
	SubmitterCompany string          `json:"submitterCompanyId,omitempty"`
	SubmittedAt      time.Time       `json:"submittedAt"`
	Terms            PriceTerms      `json:"terms"`
	Attachments      []BidAttachment `json:"attachments,omitempty"`
	Status           BidStatus       `json:"status"`
	Score            *float64        `json:"score,omitempty"`
}
