package web

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/imaging"
	"github.com/erazemk/bidsphere/internal/market"
	"github.com/erazemk/bidsphere/internal/model"
	"github.com/erazemk/bidsphere/internal/store"
)

const maxListingBody = (auction.MaxImages+1)*imaging.MaxUploadBytes + 1<<20

// AuctionsPage handles GET /auctions.
func (s *Server) AuctionsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := auction.Query{
		Search: strings.TrimSpace(q.Get("search")),
		Status: auction.ParseStatusFilter(q.Get("status")),
		Sort:   auction.ParseSortOrder(q.Get("sort")),
	}

	data := &struct {
		PageData
		Query    auction.Query
		Auctions []auction.Entry
		Statuses []auction.StatusFilter
		Sorts    []sortOption
	}{
		PageData: page(r, "Available Auctions"),
		Query:    query,
		Statuses: []auction.StatusFilter{auction.FilterAll, auction.FilterActive, auction.FilterUpcoming, auction.FilterEnded},
		Sorts:    sortOptions,
	}

	entries, err := s.Market.Browse(r.Context(), query)
	if err != nil {
		slog.Error("failed to browse auctions", "error", err)
		data.Error = "Failed to load products."
	}
	data.Auctions = entries

	s.Templates.Render(w, "auctions.html", data)
}

type sortOption struct {
	Value auction.SortOrder
	Label string
}

var sortOptions = []sortOption{
	{auction.SortNewest, "Newest first"},
	{auction.SortOldest, "Oldest first"},
	{auction.SortPriceAsc, "Price: low to high"},
	{auction.SortPriceDesc, "Price: high to low"},
}

type bidPage struct {
	PageData
	Auction auction.Entry
	Live    []auction.Entry
	Bids    []model.Bid
	Amount  string
}

// PlaceBidPage handles GET /place-bid/{id}.
func (s *Server) PlaceBidPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.bidPage(r, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("placed") != "" {
		data.Success = "Bid placed successfully!"
	}
	s.Templates.Render(w, "place_bid.html", data)
}

// PlaceBidSubmit handles POST /place-bid/{id}.
func (s *Server) PlaceBidSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw := strings.TrimSpace(r.FormValue("amount"))

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.renderBidError(w, r, id, raw, http.StatusUnprocessableEntity, "Please enter a valid bid amount.")
		return
	}

	_, err = s.Market.PlaceBid(r.Context(), webIdentity(r.Context()), id, amount)
	switch {
	case errors.Is(err, auction.ErrNotAuthenticated):
		redirectToLogin(w, r, "/login")
		return
	case errors.Is(err, auction.ErrNotFound):
		s.fail(w, r, err)
		return
	case err != nil:
		status, msg := errorStatus(err)
		s.renderBidError(w, r, id, raw, status, msg)
		return
	}

	http.Redirect(w, r, "/place-bid/"+id+"?placed=1", http.StatusSeeOther)
}

func (s *Server) renderBidError(w http.ResponseWriter, r *http.Request, id, amount string, status int, msg string) {
	data, err := s.bidPage(r, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data.Amount = amount
	data.Error = msg
	s.Templates.RenderStatus(w, status, "place_bid.html", data)
}

func (s *Server) bidPage(r *http.Request, id string) (*bidPage, error) {
	a, err := s.Market.GetAuction(r.Context(), id)
	if err != nil {
		return nil, err
	}

	live, err := s.Market.LiveAuctions(r.Context(), id)
	if err != nil {
		slog.Error("failed to list live auctions", "error", err)
	}
	bids, err := s.Market.Bids(r.Context(), id)
	if err != nil {
		slog.Error("failed to list bids", "auction", id, "error", err)
	}

	return &bidPage{
		PageData: page(r, a.ProductName),
		Auction:  s.Market.Annotate(a),
		Live:     live,
		Bids:     bids,
	}, nil
}

// AuctionImage handles GET /auctions/{id}/images/{n}.
func (s *Server) AuctionImage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 {
		http.Error(w, "invalid image index", http.StatusBadRequest)
		return
	}

	dataURL, err := store.GetAuctionImage(r.Context(), s.DB, r.PathValue("id"), n)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if dataURL == "" {
		http.NotFound(w, r)
		return
	}

	mime, data, err := imaging.DecodeDataURL(dataURL)
	if err != nil {
		slog.Error("stored image is not a data URL", "auction", r.PathValue("id"), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

type addProductPage struct {
	PageData
	Form      map[string]string
	MaxImages int
	MinStart  string
}

// AddProductPage handles GET /add-product.
func (s *Server) AddProductPage(w http.ResponseWriter, r *http.Request) {
	s.renderAddProduct(w, r, http.StatusOK, nil, "")
}

func (s *Server) renderAddProduct(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errMsg string) {
	data := &addProductPage{
		PageData:  page(r, "Add Product"),
		Form:      form,
		MaxImages: auction.MaxImages,
		MinStart:  time.Now().Format(model.FormLayout),
	}
	data.Error = errMsg
	s.Templates.RenderStatus(w, status, "add_product.html", data)
}

// AddProductSubmit handles POST /add-product.
func (s *Server) AddProductSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxListingBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.renderAddProduct(w, r, http.StatusBadRequest, nil, "Upload too large or invalid form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := make(map[string]string)
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			form[key] = values[0]
		}
	}

	in, err := market.ListingFromForm(r.MultipartForm.Value, time.Local)
	if err != nil {
		status, msg := errorStatus(err)
		s.renderAddProduct(w, r, status, form, msg)
		return
	}

	headers := r.MultipartForm.File["images"]
	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.renderAddProduct(w, r, http.StatusBadRequest, form, "Failed to read uploaded images.")
			return
		}
		files = append(files, f)
		in.Images = append(in.Images, f)
	}

	a, err := s.Market.CreateListing(r.Context(), webIdentity(r.Context()), in)
	if err != nil {
		status, msg := errorStatus(err)
		s.renderAddProduct(w, r, status, form, msg)
		return
	}

	http.Redirect(w, r, "/seller-dashboard?created="+a.ID, http.StatusSeeOther)
}

// SellerDashboard handles GET /seller-dashboard.
func (s *Server) SellerDashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Market.SellerAuctions(r.Context(), webIdentity(r.Context()))

	data := &struct {
		PageData
		Auctions []auction.Entry
	}{
		PageData: page(r, "Seller Dashboard"),
		Auctions: entries,
	}
	if err != nil {
		slog.Error("failed to list seller auctions", "error", err)
		data.Error = "Failed to load your auctions."
	}
	if r.URL.Query().Get("created") != "" {
		data.Success = "Product added successfully!"
	}

	s.Templates.Render(w, "seller_dashboard.html", data)
}

// SetActiveSubmit handles POST /seller-dashboard/{id}/active.
func (s *Server) SetActiveSubmit(w http.ResponseWriter, r *http.Request) {
	active := r.FormValue("active") == "true"
	if _, err := s.Market.SetActive(r.Context(), webIdentity(r.Context()), r.PathValue("id"), active); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/seller-dashboard", http.StatusSeeOther)
}
