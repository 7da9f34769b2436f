package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/bidsphere/internal/market"
	webembed "github.com/erazemk/bidsphere/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, m *market.Service, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Market:    m,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	login := RequireLogin
	seller := RequireSeller

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public pages.
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /contact", s.Contact)
	mux.HandleFunc("GET /about-us", s.AboutUs)
	mux.HandleFunc("GET /auctions", s.AuctionsPage)
	mux.HandleFunc("GET /auctions/{id}/images/{n}", s.AuctionImage)
	mux.HandleFunc("GET /place-bid/{id}", s.PlaceBidPage)
	mux.HandleFunc("POST /place-bid/{id}", s.PlaceBidSubmit)

	// Accounts.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("GET /seller-login", s.SellerLoginPage)
	mux.HandleFunc("POST /seller-login", s.SellerLoginSubmit)
	mux.HandleFunc("GET /seller-register", s.SellerRegisterPage)
	mux.HandleFunc("POST /seller-register", s.SellerRegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Buyer pages.
	mux.Handle("GET /profile", login(http.HandlerFunc(s.ProfilePage)))
	mux.Handle("GET /payment", login(http.HandlerFunc(s.PaymentPage)))
	mux.Handle("POST /payment", login(http.HandlerFunc(s.PaymentSubmit)))
	mux.Handle("GET /receipt", login(http.HandlerFunc(s.ReceiptPage)))

	// Seller pages.
	mux.Handle("GET /add-product", seller(http.HandlerFunc(s.AddProductPage)))
	mux.Handle("POST /add-product", seller(http.HandlerFunc(s.AddProductSubmit)))
	mux.Handle("GET /seller-dashboard", seller(http.HandlerFunc(s.SellerDashboard)))
	mux.Handle("POST /seller-dashboard/{id}/active", seller(http.HandlerFunc(s.SetActiveSubmit)))

	mux.HandleFunc("/", s.NotFound)

	return SessionMiddleware(jwtSecret, db)(mux), nil
}
