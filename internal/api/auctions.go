package api

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/imaging"
	"github.com/erazemk/bidsphere/internal/market"
	"github.com/erazemk/bidsphere/internal/model"
)

// maxListingBody bounds a listing upload: every image at full size plus the form fields.
const maxListingBody = (auction.MaxImages+1)*imaging.MaxUploadBytes + 1<<20

// AuctionsHandler handles auction endpoints.
type AuctionsHandler struct {
	Market *market.Service
}

type bidRequest struct {
	Amount float64 `json:"amount"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

type paymentRequest struct {
	Method model.PaymentMethod `json:"method"`
}

type paymentResponse struct {
	Auction model.Auction `json:"auction"`
	Changed bool          `json:"changed"`
}

// List handles GET /api/auctions.
func (h *AuctionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Market.Browse(r.Context(), auction.Query{
		Search: q.Get("search"),
		Status: auction.ParseStatusFilter(q.Get("status")),
		Sort:   auction.ParseSortOrder(q.Get("sort")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewsOf(entries))
}

// Get handles GET /api/auctions/{id}.
func (h *AuctionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Market.GetAuction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	e := h.Market.Annotate(a)
	jsonResponse(w, http.StatusOK, auctionView{Auction: e.Auction, Status: e.Status})
}

// Live handles GET /api/auctions/{id}/live: the other auctions open for bidding.
func (h *AuctionsHandler) Live(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Market.LiveAuctions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewsOf(entries))
}

// Bids handles GET /api/auctions/{id}/bids.
func (h *AuctionsHandler) Bids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.Market.Bids(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	jsonResponse(w, http.StatusOK, bids)
}

// PlaceBid handles POST /api/auctions/{id}/bids.
func (h *AuctionsHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Market.PlaceBid(r.Context(), identity(r.Context()), r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	e := h.Market.Annotate(a)
	jsonResponse(w, http.StatusOK, auctionView{Auction: e.Auction, Status: e.Status})
}

// Create handles POST /api/auctions as a multipart form with up to five
// "images" files.
func (h *AuctionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxListingBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "upload too large or invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := market.ListingFromForm(r.MultipartForm.Value, time.Local)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := openAll(r.MultipartForm.File["images"])
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read uploaded images")
		return
	}
	defer closeAll(files)
	for _, f := range files {
		in.Images = append(in.Images, f)
	}

	a, err := h.Market.CreateListing(r.Context(), identity(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, a)
}

// SetActive handles PUT /api/auctions/{id}/active.
func (h *AuctionsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Market.SetActive(r.Context(), identity(r.Context()), r.PathValue("id"), req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Pay handles POST /api/auctions/{id}/payment.
func (h *AuctionsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, changed, err := h.Market.ConfirmPayment(r.Context(), identity(r.Context()), r.PathValue("id"), req.Method)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, paymentResponse{Auction: *a, Changed: changed})
}

// Won handles GET /api/profile/won.
func (h *AuctionsHandler) Won(w http.ResponseWriter, r *http.Request) {
	won, err := h.Market.WonAuctions(r.Context(), identity(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if won == nil {
		won = []model.Auction{}
	}
	jsonResponse(w, http.StatusOK, won)
}

// Listings handles GET /api/profile/listings.
func (h *AuctionsHandler) Listings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Market.SellerAuctions(r.Context(), identity(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewsOf(entries))
}

func openAll(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		if err := f.Close(); err != nil {
			slog.Warn("closing upload", "error", err)
		}
	}
}
