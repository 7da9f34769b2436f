package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a marketplace error to its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	var verr *auction.ValidationError
	switch {
	case errors.Is(err, auction.ErrNotAuthenticated):
		jsonError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auction.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auction.ErrAuctionNotOpen), errors.Is(err, auction.ErrBidTooLow):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auction.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Message,
			"field": verr.Field,
		})
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// auctionView is an auction with its derived status.
type auctionView struct {
	Auction model.Auction  `json:"auction"`
	Status  auction.Status `json:"status"`
}

func viewsOf(entries []auction.Entry) []auctionView {
	views := make([]auctionView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auctionView{Auction: e.Auction, Status: e.Status})
	}
	return views
}
