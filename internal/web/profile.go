package web

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/model"
)

// ProfilePage handles GET /profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	won, err := s.Market.WonAuctions(r.Context(), webIdentity(r.Context()))

	data := &struct {
		PageData
		Won []model.Auction
	}{
		PageData: page(r, "My Profile"),
		Won:      won,
	}
	if err != nil {
		slog.Error("failed to list won auctions", "error", err)
		data.Error = "Failed to load auctions."
	}

	s.Templates.Render(w, "profile.html", data)
}

type paymentPage struct {
	PageData
	Auction *model.Auction
	Methods []paymentOption
	Method  model.PaymentMethod
}

type paymentOption struct {
	Value model.PaymentMethod
	Label string
}

var paymentOptions = []paymentOption{
	{model.PaymentUPI, "UPI"},
	{model.PaymentCard, "Credit / Debit Card"},
	{model.PaymentNetBanking, "Net Banking"},
}

// PaymentPage handles GET /payment?auctionId=.
func (s *Server) PaymentPage(w http.ResponseWriter, r *http.Request) {
	s.renderPayment(w, r, http.StatusOK, "", "")
}

func (s *Server) renderPayment(w http.ResponseWriter, r *http.Request, status int, method model.PaymentMethod, errMsg string) {
	id := r.URL.Query().Get("auctionId")
	if id == "" {
		s.renderError(w, r, http.StatusBadRequest, "No auction ID provided.")
		return
	}

	a, err := s.Market.GetAuction(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := &paymentPage{
		PageData: page(r, "Payment"),
		Auction:  a,
		Methods:  paymentOptions,
		Method:   method,
	}
	data.Error = errMsg
	if !auction.CanPay(a) && errMsg == "" {
		data.Success = "This auction has already been paid for."
	}
	s.Templates.RenderStatus(w, status, "payment.html", data)
}

// PaymentSubmit handles POST /payment?auctionId=.
func (s *Server) PaymentSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("auctionId")
	method := model.PaymentMethod(r.FormValue("method"))

	_, changed, err := s.Market.ConfirmPayment(r.Context(), webIdentity(r.Context()), id, method)
	if err != nil {
		status, msg := errorStatus(err)
		s.renderPayment(w, r, status, method, msg)
		return
	}
	if !changed {
		slog.Info("payment already completed", "auction", id)
	}

	http.Redirect(w, r, "/receipt?auctionId="+url.QueryEscape(id), http.StatusSeeOther)
}

// ReceiptPage handles GET /receipt?auctionId=.
func (s *Server) ReceiptPage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("auctionId")
	if id == "" {
		s.renderError(w, r, http.StatusBadRequest, "No auction ID provided.")
		return
	}

	a, err := s.Market.GetAuction(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "receipt.html", &struct {
		PageData
		Auction *model.Auction
	}{
		PageData: page(r, "Payment Receipt"),
		Auction:  a,
	})
}
