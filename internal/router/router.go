package router

import (
	"net/http"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/controller"
)

func NewRouter(c *controller.Controller) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", c.Ping)

	mux.HandleFunc("POST /api/tenders/new", c.NewTender)
	mux.HandleFunc("GET /api/tenders/{tenderId}", c.GetTender)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/publish", c.PublishTender)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/status", c.SetTenderStatus)
	mux.HandleFunc("POST /api/tenders/{tenderId}/invitations", c.InviteSupplier)
	mux.HandleFunc("POST /api/tenders/{tenderId}/questions", c.AskQuestion)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/questions/{questionId}/answer", c.AnswerQuestion)
	mux.HandleFunc("POST /api/tenders/{tenderId}/documents", c.AddTenderDocument)
	mux.HandleFunc("DELETE /api/tenders/{tenderId}/documents/{docId}", c.RemoveTenderDocument)

	mux.HandleFunc("POST /api/tenders/{tenderId}/bids", c.SubmitBid)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/award/{bidId}", c.AwardTender)

	mux.HandleFunc("POST /api/tenders/{tenderId}/contract/{bidId}", c.GenerateContract)
	mux.HandleFunc("PUT /api/contracts/{contractId}/sign", c.SignContract)
	mux.HandleFunc("POST /api/contracts/{contractId}/changes", c.AddContractChange)

	mux.HandleFunc("POST /api/sweeps/deadlines", c.CheckDeadlineReminders)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	return mux
}
