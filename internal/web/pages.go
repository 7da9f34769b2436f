package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/bidsphere/internal/auction"
)

// homeFeatured is how many live auctions the home page shows.
const homeFeatured = 3

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	live, err := s.Market.LiveAuctions(r.Context(), "")
	if err != nil {
		slog.Error("failed to list live auctions", "error", err)
	}
	auction.Sort(live, auction.SortNewest)
	if len(live) > homeFeatured {
		live = live[:homeFeatured]
	}

	s.Templates.Render(w, "home.html", &struct {
		PageData
		Live []auction.Entry
	}{
		PageData: page(r, "BidSphere"),
		Live:     live,
	})
}

// Contact handles GET /contact.
func (s *Server) Contact(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "contact.html", &struct{ PageData }{page(r, "Contact Us")})
}

// AboutUs handles GET /about-us.
func (s *Server) AboutUs(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "about.html", &struct{ PageData }{page(r, "About Us")})
}

// NotFound renders the error page for unknown paths.
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found.")
}

// renderError renders the error page with a message.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := &struct{ PageData }{page(r, "Error")}
	data.Error = message
	s.Templates.RenderStatus(w, status, "error.html", data)
}

// errorStatus maps a marketplace error to a status and a message fit for
// display. Unexpected errors are logged and shown generically.
func errorStatus(err error) (int, string) {
	var verr *auction.ValidationError
	switch {
	case errors.Is(err, auction.ErrNotAuthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auction.ErrNotFound):
		return http.StatusNotFound, "Auction not found."
	case errors.Is(err, auction.ErrAuctionNotOpen), errors.Is(err, auction.ErrBidTooLow):
		return http.StatusConflict, err.Error()
	case errors.Is(err, auction.ErrForbidden):
		return http.StatusForbidden, "You are not allowed to do that."
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Message
	}
	slog.Error("request failed", "error", err)
	return http.StatusInternalServerError, "Something went wrong. Please try again."
}

// fail renders err on the error page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	s.renderError(w, r, status, msg)
}
