package mock

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const refreshTTL = 7 * 24 * time.Hour

type tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	User   *User   `json:"user,omitempty"`
	Tokens *tokens `json:"tokens"`
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// issue creates a new token pair for the account and records it as valid
func (s *APIService) issue(user *User) (*tokens, error) {
	accessToken, err := s.createJWT(user, accessTokenType, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.createJWT(user, refreshTokenType, refreshTTL)
	if err != nil {
		return nil, err
	}
	s.accessTokens.Put(accessToken, user.Email)
	s.refreshTokens.Put(refreshToken, user.Email)
	return &tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *APIService) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	acc, ok := s.lookup(strings.ToLower(request.Email))
	if !ok || acc.password != request.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.writeSession(w, http.StatusOK, &acc.User)
}

func (s *APIService) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var issues []validationIssue
	if !strings.Contains(request.Email, "@") {
		issues = append(issues, validationIssue{Loc: []string{"body", "email"}, Msg: "value is not a valid email address", Type: "value_error"})
	}
	if len(request.Password) < 8 {
		issues = append(issues, validationIssue{Loc: []string{"body", "password"}, Msg: "password must have at least 8 characters", Type: "value_error"})
	}
	if len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": issues})
		return
	}
	acc, err := s.addAccount(User{Email: strings.ToLower(request.Email), Name: request.Name, Phone: request.Phone}, request.Password)
	if err != nil {
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	s.writeSession(w, http.StatusCreated, &acc.User)
}

func (s *APIService) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	atomic.AddInt32(&s.refreshCount, 1)
	s.mux.Lock()
	gate := s.gate
	s.mux.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if s.failRefresh.Load() {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	var request struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.RefreshToken == "" {
		writeDetail(w, http.StatusBadRequest, "Missing refresh token")
		return
	}
	if _, err := s.verifyJWT(request.RefreshToken, refreshTokenType); err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	// refresh tokens are single use
	email, ok := s.refreshTokens.Take(request.RefreshToken)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	acc, ok := s.lookup(email)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	pair, err := s.issue(&acc.User)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, &sessionResponse{Tokens: pair})
}

func (s *APIService) writeSession(w http.ResponseWriter, status int, user *User) {
	pair, err := s.issue(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, status, &sessionResponse{User: user, Tokens: pair})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
