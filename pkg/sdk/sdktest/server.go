// Package sdktest provides an in-process implementation of the accounts API
// for tests and local development.
package sdktest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Account statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Token actions embedded in emailed link tokens.
const (
	ActionVerifyEmail   = "verify-email"
	ActionResetPassword = "reset-password"
)

// Error codes of the structured error body.
const (
	ErrorInvalidField   = 1
	ErrorInvalidStatus  = 2
	ErrorPendingAccount = 3
)

const issuer = "sports-stub"

// Options configures a Server. The zero value is usable.
type Options struct {
	// BasePath prefixes every API route. Defaults to "/api".
	BasePath string
	// TokenLifetime of issued session tokens. Defaults to one hour.
	TokenLifetime time.Duration
	// Secret signs issued tokens (HS256).
	Secret []byte
	// Now overrides the server clock.
	Now func() time.Time
	// CORSOptions overrides the development CORS policy.
	CORSOptions *cors.Options
	// BcryptCost for stored password hashes. Defaults to bcrypt.MinCost.
	BcryptCost int
	// OnMail observes every email the server sends. It runs under the server
	// lock and must not call back into the Server.
	OnMail func(Mail)
}

// Mail is an email the server would have sent.
type Mail struct {
	To     string
	Action string
	Token  string
}

// RecordedRequest is an API request observed by the server.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}

type account struct {
	ID           string
	Username     string
	PasswordHash []byte
	Status       string
	Role         string
	Amka         string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Upn    string `json:"upn,omitempty"`
	UserID string `json:"userId,omitempty"`
	Action string `json:"action,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Server is a stub accounts API.
type Server struct {
	opts   Options
	router chi.Router

	mu        sync.Mutex
	nextID    int
	accounts  map[string]*account
	byName    map[string]string
	mails     []Mail
	requests  []RecordedRequest
	overrides map[string]http.HandlerFunc
}

var _ http.Handler = (*Server)(nil)

// DefaultCORSOptions allows the local front-end dev servers.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://127.0.0.1:8081"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewServer builds a stub with no accounts.
func NewServer(opts Options) *Server {
	if opts.BasePath == "" {
		opts.BasePath = "/api"
	}
	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")
	if opts.TokenLifetime <= 0 {
		opts.TokenLifetime = time.Hour
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("sports-stub-signing-secret-0123456789")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}

	s := &Server{
		opts:      opts,
		nextID:    1,
		accounts:  make(map[string]*account),
		byName:    make(map[string]string),
		overrides: make(map[string]http.HandlerFunc),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if s.opts.CORSOptions != nil {
		corsCfg = *s.opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))
	r.Use(s.record)

	r.Route(s.opts.BasePath, func(r chi.Router) {
		r.Get("/settings", s.handleSettings)
		r.Get("/translations/{lang}", s.handleTranslations)

		r.Route("/users", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Put("/verify-email", s.handleVerifyEmail)
			r.Put("/resend-verification-email", s.handleResendVerification)
			r.Post("/reset-password", s.handleRequestReset)
			r.Put("/reset-password", s.handleResetPassword)

			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
			r.Put("/{id}", s.handleUpdate)
			r.Delete("/{id}", s.handleDelete)
		})
	})
	return r
}

// ServeHTTP dispatches to an override registered for the path, else to the API.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	override := s.overrides[r.URL.Path]
	s.mu.Unlock()
	if override != nil {
		s.recordRequest(r)
		override(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.recordRequest(r)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recordRequest(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
	})
}

// Override replaces the handler for an exact request path (including the base path).
func (s *Server) Override(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = h
}

// ClearOverrides removes all overrides.
func (s *Server) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]http.HandlerFunc)
}

// Requests returns every request observed so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests counts observed requests for method and API path (without base path).
func (s *Server) CountRequests(method, path string) int {
	full := s.opts.BasePath + path
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == full {
			n++
		}
	}
	return n
}

// AddUser creates an account directly and returns its id.
func (s *Server) AddUser(username, password, status, role string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("sdktest: hashing password: %v", err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(strings.ToLower(username), hash, status, role, "")
}

func (s *Server) insertLocked(username string, hash []byte, status, role, amka string) string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	s.accounts[id] = &account{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Status:       status,
		Role:         role,
		Amka:         amka,
		CreatedAt:    s.opts.Now().UTC(),
	}
	s.byName[username] = id
	return id
}

// UserStatus returns the status of username, or "" when unknown.
func (s *Server) UserStatus(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.lookupLocked(username); acc != nil {
		return acc.Status
	}
	return ""
}

// Mails returns the emails sent to address, oldest first.
func (s *Server) Mails(address string) []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Mail
	for _, m := range s.mails {
		if m.To == strings.ToLower(address) {
			out = append(out, m)
		}
	}
	return out
}

// LastMail returns the latest email sent to address with action.
func (s *Server) LastMail(address, action string) (Mail, bool) {
	mails := s.Mails(address)
	for i := len(mails) - 1; i >= 0; i-- {
		if mails[i].Action == action {
			return mails[i], true
		}
	}
	return Mail{}, false
}

// IssueToken signs a token for username expiring at exp.
func (s *Server) IssueToken(username, action string, exp time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signLocked(strings.ToLower(username), action, exp)
}

func (s *Server) lookupLocked(username string) *account {
	id, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return nil
	}
	return s.accounts[id]
}

func (s *Server) sendMailLocked(to, action string) {
	token := s.signLocked(to, action, s.opts.Now().Add(s.opts.TokenLifetime))
	mail := Mail{To: to, Action: action, Token: token}
	s.mails = append(s.mails, mail)
	if s.opts.OnMail != nil {
		s.opts.OnMail(mail)
	}
}

func (s *Server) signLocked(username, action string, exp time.Time) string {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(s.opts.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Upn:    username,
		Action: action,
	}
	if acc := s.lookupLocked(username); acc != nil {
		c.UserID = acc.ID
		c.Role = acc.Role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.opts.Secret)
	if err != nil {
		panic(fmt.Sprintf("sdktest: signing token: %v", err))
	}
	return signed
}

var errNoBearer = errors.New("missing bearer token")

// authenticate verifies the bearer token of r.
func (s *Server) authenticate(r *http.Request) (*claims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errNoBearer
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, errNoBearer
	}
	return &c, nil
}

// sortedAccountsLocked returns accounts ordered by numeric id.
func (s *Server) sortedAccountsLocked() []*account {
	out := make([]*account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, code int, field, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": code, "field": field, "message": message})
}

func unauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
}

// BasePath returns the route prefix of the API.
func (s *Server) BasePath() string {
	return s.opts.BasePath
}
