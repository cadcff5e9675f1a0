package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/notify"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/service"
)

type Service interface {
	NewTender(ctx context.Context, tender models.Tender) (models.Tender, error)
	GetTender(ctx context.Context, tenderID string) (models.Tender, error)
	PublishTender(ctx context.Context, tenderID string) (models.Tender, error)
	CloseTender(ctx context.Context, tenderID string) (models.Tender, error)
	ReopenTender(ctx context.Context, tenderID string) (models.Tender, error)
	InviteSupplier(ctx context.Context, tenderID string, inv models.Invitation) (models.Tender, error)
	AskQuestion(ctx context.Context, tenderID, userID, text string) (models.Question, error)
	AnswerQuestion(ctx context.Context, tenderID, questionID, userID, answer string) (models.Question, error)
	AddTenderDocument(ctx context.Context, tenderID, docID, userID string, upload service.Upload) (models.TenderDocument, error)
	RemoveTenderDocument(ctx context.Context, tenderID, docID string) error

	SubmitBid(ctx context.Context, tenderID string, bid models.Bid, attachments []service.Upload) (models.Bid, error)
	AwardTender(ctx context.Context, tenderID, bidID string, project models.ProjectRef) (models.Tender, *notify.Report, error)

	GenerateContract(ctx context.Context, tenderID, bidID string, project models.ProjectRef) (models.Contract, error)
	SignContract(ctx context.Context, contractID, userID string) (models.Contract, error)
	AddContractChange(ctx context.Context, contractID string, change models.ContractChange, userID string) (models.Contract, error)

	CheckDeadlineReminders(ctx context.Context) (service.SweepResult, error)
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

//// Tenders

// POST /api/tenders/new
func (c *Controller) NewTender(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewTenderReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tender, err := c.service.NewTender(r.Context(), req.Tender())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, tender)
}

// GET /api/tenders/{tenderId}
func (c *Controller) GetTender(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	tender, err := c.service.GetTender(r.Context(), tenderID)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, tender)
}

// PUT /api/tenders/{tenderId}/publish
func (c *Controller) PublishTender(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	tender, err := c.service.PublishTender(r.Context(), tenderID)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, tender)
}

// PUT /api/tenders/{tenderId}/status
func (c *Controller) SetTenderStatus(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	var tender models.Tender
	var err error
	switch models.TenderStatus(r.URL.Query().Get("status")) {
	case models.TenderClosed:
		tender, err = c.service.CloseTender(r.Context(), tenderID)
	case models.TenderOpen:
		tender, err = c.service.ReopenTender(r.Context(), tenderID)
	default:
		c.errorResponse(w, http.StatusBadRequest, "status must be one of: open, closed")
		return
	}
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, tender)
}

// POST /api/tenders/{tenderId}/invitations
func (c *Controller) InviteSupplier(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseInviteReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tender, err := c.service.InviteSupplier(r.Context(), tenderID, req.Invitation())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, tender)
}

// POST /api/tenders/{tenderId}/questions
func (c *Controller) AskQuestion(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseQuestionReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	question, err := c.service.AskQuestion(r.Context(), tenderID, req.UserID, req.Text)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, question)
}

// PUT /api/tenders/{tenderId}/questions/{questionId}/answer
func (c *Controller) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	questionID := r.PathValue("questionId")
	if len(tenderID) == 0 || len(questionID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId or questionId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseAnswerReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	question, err := c.service.AnswerQuestion(r.Context(), tenderID, questionID, req.UserID, req.Answer)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, question)
}

// POST /api/tenders/{tenderId}/documents
//
// Multipart form upload. An optional docId field appends a new version of
// an existing document.
func (c *Controller) AddTenderDocument(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	doc, err := c.service.AddTenderDocument(r.Context(), tenderID, r.FormValue("docId"), r.FormValue("userId"), service.Upload{
		Name:    header.Filename,
		Content: file,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, doc)
}

// DELETE /api/tenders/{tenderId}/documents/{docId}
func (c *Controller) RemoveTenderDocument(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	docID := r.PathValue("docId")
	if len(tenderID) == 0 || len(docID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId or docId supplied")
		return
	}

	if err := c.service.RemoveTenderDocument(r.Context(), tenderID, docID); err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, map[string]bool{"success": true})
}

//// Bids

// POST /api/tenders/{tenderId}/bids
func (c *Controller) SubmitBid(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	if len(tenderID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewBidReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := c.service.SubmitBid(r.Context(), tenderID, req.Bid(), nil)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bid)
}

// PUT /api/tenders/{tenderId}/award/{bidId}
func (c *Controller) AwardTender(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	bidID := r.PathValue("bidId")
	if len(tenderID) == 0 || len(bidID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId or bidId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseProjectReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tender, report, err := c.service.AwardTender(r.Context(), tenderID, bidID, req.Project())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, AwardResp{
		Tender:    tender,
		Delivered: report.Delivered,
		Skipped:   report.Skipped,
		Failed:    failureReasons(report),
	})
}

//// Contracts

// POST /api/tenders/{tenderId}/contract/{bidId}
func (c *Controller) GenerateContract(w http.ResponseWriter, r *http.Request) {
	tenderID := r.PathValue("tenderId")
	bidID := r.PathValue("bidId")
	if len(tenderID) == 0 || len(bidID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tenderId or bidId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseProjectReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	contract, err := c.service.GenerateContract(r.Context(), tenderID, bidID, req.Project())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, contract)
}

// PUT /api/contracts/{contractId}/sign
func (c *Controller) SignContract(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contractId")
	if len(contractID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty contractId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseSignReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	contract, err := c.service.SignContract(r.Context(), contractID, req.UserID)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, contract)
}

// POST /api/contracts/{contractId}/changes
func (c *Controller) AddContractChange(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contractId")
	if len(contractID) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty contractId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseContractChangeReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	contract, err := c.service.AddContractChange(r.Context(), contractID, req.Change(), req.UserID)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, contract)
}

//// Sweeps

// POST /api/sweeps/deadlines
func (c *Controller) CheckDeadlineReminders(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.CheckDeadlineReminders(r.Context())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, result)
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

//// Helpers

type ErrorResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.WriteHeader(status)

	data, err := json.Marshal(ErrorResponse{Reason: text})
	if err != nil {
		log.Printf("controller.Controller.errorResponse: %s", err)
		return
	}

	_, err = w.Write(data)
	if err != nil {
		log.Printf("controller.Controller.errorResponse: %s", err)
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		c.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrPolicy):
		c.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrDependency):
		log.Println("controller:", err)
		c.errorResponse(w, http.StatusServiceUnavailable, "a backing service is unavailable")
	default:
		log.Println("controller:", err)
		c.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	_, err = w.Write(d)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not write response data")
		return
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}

func failureReasons(report *notify.Report) map[string]string {
	if len(report.Failed) == 0 {
		return nil
	}
	reasons := make(map[string]string, len(report.Failed))
	for recipient, err := range report.Failed {
		reasons[recipient] = err.Error()
	}
	return reasons
}
