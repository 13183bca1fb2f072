package mock

import "net/http/httptest"

// Server runs APIService on a local httptest server
type Server struct {
	*APIService
	Server *httptest.Server
	// URL is the API base URL, including BasePath
	URL string
}

// NewServer starts a mock API server
func NewServer(options ...Option) (*Server, error) {
	service, err := NewAPIService(options...)
	if err != nil {
		return nil, err
	}
	ret := &Server{APIService: service}
	ret.Server = httptest.NewServer(service.Handler())
	service.Issuer = ret.Server.URL
	ret.URL = ret.Server.URL + service.BasePath
	return ret, nil
}

func (s *Server) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
