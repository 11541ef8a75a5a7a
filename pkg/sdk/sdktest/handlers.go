package sdktest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Status    string `json:"status,omitempty"`
	Role      string `json:"role,omitempty"`
	Amka      string `json:"amka,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	LastLogin string `json:"lastLogin,omitempty"`
}

func (a *account) record() userRecord {
	rec := userRecord{
		ID:        a.ID,
		Username:  a.Username,
		Status:    a.Status,
		Role:      a.Role,
		Amka:      a.Amka,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.LastLogin != nil {
		rec.LastLogin = a.LastLogin.Format(time.RFC3339)
	}
	return rec
}

type userBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Status   string `json:"status"`
	Role     string `json:"role"`
	Amka     string `json:"amka"`
	Email    string `json:"email"`
	Lang     string `json:"lang"`
}

func decodeBody(r *http.Request) (userBody, bool) {
	var body userBody
	if r.Body == nil {
		return body, true
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return body, false
	}
	body.Username = strings.ToLower(strings.TrimSpace(body.Username))
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	return body, true
}

func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": []string{"en", "el"}})
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"lang": chi.URLParam(r, "lang")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	if !ok || body.Username == "" || body.Password == "" {
		unauthorized(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(body.Username)
	if acc == nil || bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(body.Password)) != nil {
		unauthorized(w)
		return
	}
	switch acc.Status {
	case StatusPending:
		writeError(w, ErrorPendingAccount, "status", "account is pending email verification")
		return
	case StatusSuspended:
		writeError(w, ErrorInvalidStatus, "status", "account is suspended")
		return
	}

	now := s.opts.Now().UTC()
	acc.LastLogin = &now
	token := s.signLocked(acc.Username, "", now.Add(s.opts.TokenLifetime))
	writeJSON(w, http.StatusOK, map[string]any{"username": acc.Username, "id": acc.ID, "token": token})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := s.authenticate(r)
	if err != nil || c.Action != "" {
		unauthorized(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(c.Upn)
	if acc == nil || acc.Status != StatusActive {
		unauthorized(w)
		return
	}
	token := s.signLocked(acc.Username, "", s.opts.Now().Add(s.opts.TokenLifetime))
	writeJSON(w, http.StatusOK, map[string]any{"username": acc.Username, "id": acc.ID, "token": token})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	c, err := s.authenticate(r)
	if err != nil {
		unauthorized(w)
		return
	}
	if c.Action != ActionVerifyEmail {
		writeError(w, ErrorInvalidField, "token", "token was not issued for this action")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(c.Upn)
	if acc == nil {
		writeError(w, ErrorInvalidField, "username", "unknown account")
		return
	}
	if acc.Status != StatusPending {
		writeError(w, ErrorPendingAccount, "status", "account is already active")
		return
	}
	acc.Status = StatusActive
	writeJSON(w, http.StatusOK, acc.record())
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	if !ok {
		writeError(w, ErrorInvalidField, "email", "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(body.Email)
	if acc == nil {
		writeError(w, ErrorInvalidField, "email", "unknown account")
		return
	}
	if body.Password != "" && bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(body.Password)) != nil {
		writeError(w, ErrorInvalidField, "password", "wrong password")
		return
	}
	if acc.Status != StatusPending {
		writeError(w, ErrorPendingAccount, "status", "account is already active")
		return
	}
	s.sendMailLocked(acc.Username, ActionVerifyEmail)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	if !ok {
		writeError(w, ErrorInvalidField, "email", "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(body.Email)
	if acc == nil {
		writeError(w, ErrorInvalidField, "email", "unknown account")
		return
	}
	if acc.Status == StatusPending {
		writeError(w, ErrorPendingAccount, "status", "account is pending email verification")
		return
	}
	s.sendMailLocked(acc.Username, ActionResetPassword)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	c, err := s.authenticate(r)
	if err != nil {
		unauthorized(w)
		return
	}
	if c.Action != ActionResetPassword {
		writeError(w, ErrorInvalidField, "token", "token was not issued for this action")
		return
	}
	body, ok := decodeBody(r)
	if !ok || body.Password == "" {
		writeError(w, ErrorInvalidField, "password", "password is required")
		return
	}
	if body.Username != "" && body.Username != c.Upn {
		writeError(w, ErrorInvalidField, "username", "token does not match account")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), s.opts.BcryptCost)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(c.Upn)
	if acc == nil {
		writeError(w, ErrorInvalidField, "username", "unknown account")
		return
	}
	acc.PasswordHash = hash
	w.WriteHeader(http.StatusOK)
}

// handleCreate serves both self registration and administrative creation.
// Only an authenticated caller may choose the status and role.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	if !ok || body.Username == "" {
		writeError(w, ErrorInvalidField, "username", "username is required")
		return
	}
	status, role := StatusPending, "user"
	if c, err := s.authenticate(r); err == nil && c.Action == "" {
		if body.Status != "" {
			status = body.Status
		}
		if body.Role != "" {
			role = body.Role
		}
	}
	password := body.Password
	if password == "" {
		writeError(w, ErrorInvalidField, "password", "password is required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupLocked(body.Username) != nil {
		writeError(w, ErrorInvalidField, "username", "username already exists")
		return
	}
	id := s.insertLocked(body.Username, hash, status, role, body.Amka)
	if status == StatusPending {
		s.sendMailLocked(body.Username, ActionVerifyEmail)
	}
	writeJSON(w, http.StatusOK, s.accounts[id].record())
}

func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) bool {
	c, err := s.authenticate(r)
	if err != nil || c.Action != "" {
		unauthorized(w)
		return false
	}
	return true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	accounts := s.sortedAccountsLocked()
	records := make([]userRecord, 0, len(accounts))
	for _, acc := range accounts {
		if matchesFilters(acc, q) {
			records = append(records, acc.record())
		}
	}
	s.mu.Unlock()

	if q.Get("sortDesc") == "true" {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}
	if lastID := q.Get("lastId"); lastID != "" {
		records = pageAfter(records, lastID, q.Get("forward") != "false")
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	writeJSON(w, http.StatusOK, records)
}

func matchesFilters(acc *account, q map[string][]string) bool {
	for key, values := range q {
		field, ok := strings.CutPrefix(key, "filter_")
		if !ok || len(values) == 0 || values[0] == "" {
			continue
		}
		var actual string
		switch field {
		case "username":
			actual = acc.Username
		case "status":
			actual = acc.Status
		case "role":
			actual = acc.Role
		case "amka":
			actual = acc.Amka
		default:
			continue
		}
		if !strings.Contains(strings.ToLower(actual), strings.ToLower(values[0])) {
			return false
		}
	}
	return true
}

// pageAfter returns the records following (or preceding) lastID.
func pageAfter(records []userRecord, lastID string, forward bool) []userRecord {
	for i, rec := range records {
		if rec.ID != lastID {
			continue
		}
		if forward {
			return records[i+1:]
		}
		return records[:i]
	}
	return records
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[chi.URLParam(r, "id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, acc.record())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	body, ok := decodeBody(r)
	if !ok {
		writeError(w, ErrorInvalidField, "username", "malformed request")
		return
	}
	var hash []byte
	if body.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(body.Password), s.opts.BcryptCost); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[chi.URLParam(r, "id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if body.Username != "" && body.Username != acc.Username {
		if s.lookupLocked(body.Username) != nil {
			writeError(w, ErrorInvalidField, "username", "username already exists")
			return
		}
		delete(s.byName, acc.Username)
		acc.Username = body.Username
		s.byName[acc.Username] = acc.ID
	}
	if body.Status != "" {
		acc.Status = body.Status
	}
	if body.Role != "" {
		acc.Role = body.Role
	}
	if body.Amka != "" {
		acc.Amka = body.Amka
	}
	if hash != nil {
		acc.PasswordHash = hash
	}
	writeJSON(w, http.StatusOK, acc.record())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[chi.URLParam(r, "id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(s.accounts, acc.ID)
	delete(s.byName, acc.Username)
	w.WriteHeader(http.StatusNoContent)
}
