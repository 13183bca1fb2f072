package mock

import (
	"net/http"
	"strings"
)

// Handler routes HTTP requests to the mock API endpoints.
type Handler struct {
	Service *APIService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.Service.BasePath)
	switch path {
	case "/auth/login":
		h.Service.handleLogin(w, r)
	case "/auth/register":
		h.Service.handleRegister(w, r)
	case "/auth/refresh":
		if h.Service.RefreshHandler != nil {
			h.Service.RefreshHandler(w, r)
		} else {
			h.Service.handleRefresh(w, r)
		}
	case "/me":
		h.Service.handleMe(w, r)
	default:
		if h.Service.ResourceHandler != nil {
			h.Service.ResourceHandler(w, r)
		} else {
			h.Service.handleResource(w, r, path)
		}
	}
}
