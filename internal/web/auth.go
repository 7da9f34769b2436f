package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/bidsphere/internal/auth"
	"github.com/erazemk/bidsphere/internal/model"
	"github.com/erazemk/bidsphere/internal/store"
)

// accountForm describes one of the buyer or seller login/register pages.
type accountForm struct {
	Role         string
	Action       string
	RegisterPath string
	LoginPath    string
	Home         string
}

var (
	buyerForms  = accountForm{Role: model.RoleBuyer, Action: "/login", RegisterPath: "/register", LoginPath: "/login", Home: "/auctions"}
	sellerForms = accountForm{Role: model.RoleSeller, Action: "/seller-login", RegisterPath: "/seller-register", LoginPath: "/seller-login", Home: "/seller-dashboard"}
)

type accountPage struct {
	PageData
	Form  accountForm
	Email string
	Name  string
	Next  string
}

func (f accountForm) title(register bool) string {
	who := "Buyer"
	if f.Role == model.RoleSeller {
		who = "Seller"
	}
	if register {
		return who + " Registration"
	}
	return who + " Login"
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, buyerForms, "", "")
}

// SellerLoginPage handles GET /seller-login.
func (s *Server) SellerLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, sellerForms, "", "")
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, buyerForms)
}

// SellerLoginSubmit handles POST /seller-login.
func (s *Server) SellerLoginSubmit(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, sellerForms)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, f accountForm, email, errMsg string) {
	data := &accountPage{
		PageData: page(r, f.title(false)),
		Form:     f,
		Email:    email,
		Next:     r.FormValue("next"),
	}
	data.Error = errMsg
	status := http.StatusOK
	if errMsg != "" {
		status = http.StatusUnauthorized
	}
	s.Templates.RenderStatus(w, status, "login.html", data)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, f accountForm) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.renderLogin(w, r, f, email, "Please enter your email and password.")
		return
	}

	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		s.renderLogin(w, r, f, email, "Invalid email or password.")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, normalized)
	if err != nil || user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "email", normalized, "remote", r.RemoteAddr)
		s.renderLogin(w, r, f, email, "Invalid email or password.")
		return
	}
	if f.Role == model.RoleSeller && !model.CanSell(user.Role) {
		s.renderLogin(w, r, f, email, "This account is not a seller account.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		s.renderLogin(w, r, f, email, "Login failed. Please try again.")
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	http.Redirect(w, r, safeNext(r.FormValue("next"), f.Home), http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderRegister(w, r, buyerForms, "", "", "")
}

// SellerRegisterPage handles GET /seller-register.
func (s *Server) SellerRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderRegister(w, r, sellerForms, "", "", "")
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, buyerForms)
}

// SellerRegisterSubmit handles POST /seller-register.
func (s *Server) SellerRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, sellerForms)
}

func (s *Server) renderRegister(w http.ResponseWriter, r *http.Request, f accountForm, email, name, errMsg string) {
	data := &accountPage{
		PageData: page(r, f.title(true)),
		Form:     f,
		Email:    email,
		Name:     name,
		Next:     r.FormValue("next"),
	}
	data.Error = errMsg
	status := http.StatusOK
	if errMsg != "" {
		status = http.StatusUnprocessableEntity
	}
	s.Templates.RenderStatus(w, status, "register.html", data)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, f accountForm) {
	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")

	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		s.renderRegister(w, r, f, email, name, "Please enter a valid email address.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderRegister(w, r, f, email, name, "Password must be at least 8 characters.")
		return
	}
	if password != r.FormValue("confirm") {
		s.renderRegister(w, r, f, email, name, "Passwords do not match.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.renderRegister(w, r, f, email, name, "Registration failed. Please try again.")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, normalized, name, hash, f.Role)
	if errors.Is(err, store.ErrEmailTaken) {
		s.renderRegister(w, r, f, email, name, "An account with this email already exists.")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		s.renderRegister(w, r, f, email, name, "Registration failed. Please try again.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		s.renderRegister(w, r, f, email, name, "Registration failed. Please try again.")
		return
	}

	setAuthCookie(w, token)
	slog.Info("user registered", "user", user.Email, "role", user.Role)
	http.Redirect(w, r, safeNext(r.FormValue("next"), f.Home), http.StatusSeeOther)
}

// Logout handles POST /logout by revoking the session token.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Email)
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
