package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// ResourceResponse echoes an authenticated request back to the caller
type ResourceResponse struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	User   string          `json:"user"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// authenticate resolves the account behind a bearer access token
func (s *APIService) authenticate(w http.ResponseWriter, r *http.Request) (*account, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s"`, s.Issuer))
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		writeDetail(w, http.StatusBadRequest, "Invalid authorization header")
		return nil, false
	}
	email, ok := s.accessTokens.Get(parts[1])
	if _, err := s.verifyJWT(parts[1], accessTokenType); err != nil || !ok {
		atomic.AddInt32(&s.rejected, 1)
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="invalid_token"`, s.Issuer))
		writeDetail(w, http.StatusUnauthorized, "Token expired")
		return nil, false
	}
	acc, ok := s.lookup(email)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unknown user")
		return nil, false
	}
	return acc, true
}

func (s *APIService) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, &acc.User)
}

// handleResource simulates any protected booking endpoint
func (s *APIService) handleResource(w http.ResponseWriter, r *http.Request, path string) {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		s.mux.Lock()
		s.requestIDs = append(s.requestIDs, id)
		s.mux.Unlock()
	}
	acc, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	response := &ResourceResponse{Method: r.Method, Path: path, User: acc.Email}
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(data) > 0 {
			if !json.Valid(data) {
				writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
				return
			}
			response.Body = data
		}
	}
	writeJSON(w, http.StatusOK, response)
}
