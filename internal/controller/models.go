package controller

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
)

// New tender request

type NewTenderReq struct {
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	ContractStandard models.ContractStandard `json:"contractStandard"`
	CreatedBy        string                  `json:"createdBy"`
	CompanyID        string                  `json:"companyId"`
	Deadline         time.Time               `json:"deadline"`
	QuestionDeadline *time.Time              `json:"questionDeadline"`
	PriceType        string                  `json:"priceType"`
	EvaluationModel  string                  `json:"evaluationModel"`
}

func ParseNewTenderReq(data []byte) (*NewTenderReq, error) {
	t := &NewTenderReq{}

	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, err
	}

	if !models.ValidContractStandard(t.ContractStandard) {
		return nil, fmt.Errorf("invalid contract standard supplied: %s, should be one of: %s, %s, %s",
			string(t.ContractStandard), models.NS8405, models.NS8406, models.NS8407)
	}
	if err = checkLengthLimit(t.Title, "title", 200); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.Description, "description", 2000); err != nil {
		return nil, err
	}
	if len(t.CreatedBy) == 0 {
		return nil, fmt.Errorf("empty createdBy supplied")
	}
	if t.Deadline.IsZero() {
		return nil, fmt.Errorf("empty deadline supplied")
	}

	return t, nil
}

func (t *NewTenderReq) Tender() models.Tender {
	terms := models.StandardTerms{Standard: t.ContractStandard}
	switch t.ContractStandard {
	case models.NS8405:
		terms = models.NewNS8405Terms(models.NS8405Terms{})
	case models.NS8406:
		terms = models.NewNS8406Terms(models.NS8406Terms{})
	case models.NS8407:
		terms = models.NewNS8407Terms(models.NS8407Terms{})
	}

	return models.Tender{
		Title:            t.Title,
		Description:      t.Description,
		ContractStandard: t.ContractStandard,
		Terms:            terms,
		CreatedBy:        t.CreatedBy,
		CompanyID:        t.CompanyID,
		Deadline:         t.Deadline,
		QuestionDeadline: t.QuestionDeadline,
		PriceType:        t.PriceType,
		EvaluationModel:  t.EvaluationModel,
	}
}

// Invite supplier request

type InviteReq struct {
	SupplierUserID    string `json:"supplierUserId"`
	SupplierCompanyID string `json:"supplierCompanyId"`
	Email             string `json:"email"`
}

func ParseInviteReq(data []byte) (*InviteReq, error) {
	req := &InviteReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}

	if len(req.SupplierUserID) == 0 && len(req.SupplierCompanyID) == 0 && len(req.Email) == 0 {
		return nil, fmt.Errorf("invitation must carry a supplier id, company id or email")
	}
	return req, nil
}

func (req *InviteReq) Invitation() models.Invitation {
	return models.Invitation{
		SupplierUserID:    req.SupplierUserID,
		SupplierCompanyID: req.SupplierCompanyID,
		Email:             req.Email,
	}
}

// Question and answer requests

type QuestionReq struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func ParseQuestionReq(data []byte) (*QuestionReq, error) {
	req := &QuestionReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}

	if len(req.UserID) == 0 {
		return nil, fmt.Errorf("empty userId supplied")
	}
	if err = checkLengthLimit(req.Text, "text", 2000); err != nil {
		return nil, err
	}
	if len(req.Text) == 0 {
		return nil, fmt.Errorf("empty text supplied")
	}
	return req, nil
}

type AnswerReq struct {
	UserID string `json:"userId"`
	Answer string `json:"answer"`
}

func ParseAnswerReq(data []byte) (*AnswerReq, error) {
	req := &AnswerReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}

	if len(req.UserID) == 0 {
		return nil, fmt.Errorf("empty userId supplied")
	}
	if err = checkLengthLimit(req.Answer, "answer", 2000); err != nil {
		return nil, err
	}
	if len(req.Answer) == 0 {
		return nil, fmt.Errorf("empty answer supplied")
	}
	return req, nil
}

// New bid request

type NewBidReq struct {
	SubmitterUserID  string  `json:"submitterUserId"`
	SubmitterCompany string  `json:"submitterCompanyId"`
	Price            float64 `json:"price"`
	PriceStructure   string  `json:"priceStructure"`
	HourlyRate       float64 `json:"hourlyRate"`
	Currency         string  `json:"currency"`
}

func ParseNewBidReq(data []byte) (*NewBidReq, error) {
	req := &NewBidReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}

	if len(req.SubmitterUserID) == 0 {
		return nil, fmt.Errorf("empty submitterUserId supplied")
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("negative price supplied")
	}
	return req, nil
}

func (req *NewBidReq) Bid() models.Bid {
	return models.Bid{
		SubmitterUserID:  req.SubmitterUserID,
		SubmitterCompany: req.SubmitterCompany,
		Terms: models.PriceTerms{
			Price:          req.Price,
			PriceStructure: req.PriceStructure,
			HourlyRate:     req.HourlyRate,
			Currency:       req.Currency,
		},
	}
}

// Project reference, shared by award and contract generation

type ProjectReq struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
}

func ParseProjectReq(data []byte) (*ProjectReq, error) {
	req := &ProjectReq{}
	if len(data) == 0 {
		return req, nil
	}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (req *ProjectReq) Project() models.ProjectRef {
	return models.ProjectRef{ID: req.ProjectID, Name: req.ProjectName}
}

// Sign request

type SignReq struct {
	UserID string `json:"userId"`
}

func ParseSignReq(data []byte) (*SignReq, error) {
	req := &SignReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}

	if len(req.UserID) == 0 {
		return nil, fmt.Errorf("empty userId supplied")
	}
	return req, nil
}

// Contract change request

type ContractChangeReq struct {
	UserID   string `json:"userId"`
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
	Reason   string `json:"reason"`
}

func ParseContractChangeReq(data []byte) (*ContractChangeReq, error) {
	req := &ContractChangeReq{}

	err := json.Unmarshal(data, req)
	if err != nil {
		return nil, err
	}

	if len(req.UserID) == 0 {
		return nil, fmt.Errorf("empty userId supplied")
	}
	if len(req.Field) == 0 {
		return nil, fmt.Errorf("empty field supplied")
	}
	return req, nil
}

func (req *ContractChangeReq) Change() models.ContractChange {
	return models.ContractChange{
		Field:    req.Field,
		OldValue: req.OldValue,
		NewValue: req.NewValue,
		Reason:   req.Reason,
	}
}

// Award response carries the persisted tender plus the per-recipient
// notification outcomes.

type AwardResp struct {
	Tender    models.Tender     `json:"tender"`
	Delivered []string          `json:"delivered,omitempty"`
	Skipped   []string          `json:"skipped,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func checkLengthLimit(value, name string, limit int) error {
	if len(value) > limit {
		return fmt.Errorf("value of '%s' exceeds length limit of %d", name, limit)
	}
	return nil
}
