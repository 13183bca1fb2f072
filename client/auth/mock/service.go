package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/pakuspa/internal/collection"
)

// User is the account profile returned by the API
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role,omitempty"`
}

type account struct {
	User
	password string
}

// APIService simulates the PAKU Spa authentication and resource endpoints
type APIService struct {
	PrivateKey *rsa.PrivateKey
	Issuer     string
	// BasePath is stripped from request paths before routing
	BasePath  string
	AccessTTL time.Duration

	RefreshHandler  func(w http.ResponseWriter, r *http.Request)
	ResourceHandler func(w http.ResponseWriter, r *http.Request)

	accounts      *collection.SyncMap[string, *account]
	accessTokens  *collection.SyncMap[string, string]
	refreshTokens *collection.SyncMap[string, string]

	mux          sync.Mutex
	refreshCount int32
	rejected     int32
	failRefresh  atomic.Bool
	gate         chan struct{}
	requestIDs   []string
}

// NewAPIService creates a mock API with a fresh signing key
func NewAPIService(options ...Option) (*APIService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	ret := &APIService{
		PrivateKey:    privateKey,
		Issuer:        "pakuspa-mock",
		AccessTTL:     15 * time.Minute,
		accounts:      collection.NewSyncMap[string, *account](),
		accessTokens:  collection.NewSyncMap[string, string](),
		refreshTokens: collection.NewSyncMap[string, string](),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Handler returns an http.Handler for all mock endpoints
func (s *APIService) Handler() http.Handler {
	return &Handler{Service: s}
}

// RefreshCount returns number of refresh exchanges received
func (s *APIService) RefreshCount() int {
	return int(atomic.LoadInt32(&s.refreshCount))
}

// UnauthorizedCount returns number of requests rejected with 401 for a bad access token
func (s *APIService) UnauthorizedCount() int {
	return int(atomic.LoadInt32(&s.rejected))
}

// FailRefresh makes the refresh endpoint answer 401
func (s *APIService) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

// HoldRefresh blocks refresh exchanges until the returned release function is called
func (s *APIService) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mux.Lock()
	s.gate = gate
	s.mux.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mux.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mux.Unlock()
			close(gate)
		})
	}
}

// ExpireAccessTokens invalidates every access token issued so far
func (s *APIService) ExpireAccessTokens() {
	s.accessTokens.Reset()
}

// RevokeRefreshTokens invalidates every refresh token issued so far
func (s *APIService) RevokeRefreshTokens() {
	s.refreshTokens.Reset()
}

// RequestIDs returns X-Request-ID values seen on resource requests
func (s *APIService) RequestIDs() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]string{}, s.requestIDs...)
}

func (s *APIService) addAccount(user User, password string) (*account, error) {
	user.Email = strings.ToLower(user.Email)
	if user.ID == "" {
		user.ID = "user-" + uuid.NewString()[:8]
	}
	if user.Role == "" {
		user.Role = "customer"
	}
	ret := &account{User: user, password: password}
	if !s.accounts.PutIfAbsent(user.Email, ret) {
		return nil, fmt.Errorf("account %v already exists", user.Email)
	}
	return ret, nil
}

func (s *APIService) lookup(email string) (*account, bool) {
	return s.accounts.Get(email)
}
