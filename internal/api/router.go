package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/bidsphere/internal/market"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, m *market.Service, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	auctionsHandler := &AuctionsHandler{Market: m}
	streamHandler := &StreamHandler{Market: m}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuthMiddleware(jwtSecret, db)
	requireSeller := RequireSeller

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated account routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Auctions: browsing is public, bidding needs an identity, listing needs a seller.
	mux.Handle("GET /api/auctions", optionalAuth(http.HandlerFunc(auctionsHandler.List)))
	mux.Handle("POST /api/auctions", authMW(requireSeller(http.HandlerFunc(auctionsHandler.Create))))
	mux.Handle("GET /api/auctions/stream", optionalAuth(http.HandlerFunc(streamHandler.Stream)))
	mux.Handle("GET /api/auctions/{id}", optionalAuth(http.HandlerFunc(auctionsHandler.Get)))
	mux.Handle("GET /api/auctions/{id}/live", optionalAuth(http.HandlerFunc(auctionsHandler.Live)))
	mux.Handle("GET /api/auctions/{id}/bids", optionalAuth(http.HandlerFunc(auctionsHandler.Bids)))
	mux.Handle("POST /api/auctions/{id}/bids", authMW(http.HandlerFunc(auctionsHandler.PlaceBid)))
	mux.Handle("PUT /api/auctions/{id}/active", authMW(requireSeller(http.HandlerFunc(auctionsHandler.SetActive))))
	mux.Handle("POST /api/auctions/{id}/payment", authMW(http.HandlerFunc(auctionsHandler.Pay)))

	// Profile.
	mux.Handle("GET /api/profile/won", authMW(http.HandlerFunc(auctionsHandler.Won)))
	mux.Handle("GET /api/profile/listings", authMW(requireSeller(http.HandlerFunc(auctionsHandler.Listings))))

	return mux
}
