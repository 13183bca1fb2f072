package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/pakuspa/client/auth/flow"
	"github.com/viant/pakuspa/client/auth/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/oauth2"
)

// fakeAPI accepts only requests bearing the valid token.
type fakeAPI struct {
	mu           sync.Mutex
	valid        string
	status       int
	err          error
	headers      []string
	bodies       []string
	unauthorized int32
	onRequest    func(req *http.Request)
}

func (f *fakeAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.onRequest != nil {
		f.onRequest(req)
	}
	header := req.Header.Get("Authorization")
	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	f.mu.Lock()
	f.headers = append(f.headers, header)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.status != 0 {
		return newResponse(req, f.status, `{"detail":"server error"}`), nil
	}
	expect := ""
	if f.valid != "" {
		expect = "Bearer " + f.valid
	}
	if header != expect {
		atomic.AddInt32(&f.unauthorized, 1)
		return newResponse(req, http.StatusUnauthorized, `{"detail":"Token expired"}`), nil
	}
	return newResponse(req, http.StatusOK, `{"status":"ok"}`), nil
}

func (f *fakeAPI) count(header string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret := 0
	for _, h := range f.headers {
		if h == header {
			ret++
		}
	}
	return ret
}

func (f *fakeAPI) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.headers)
}

func newResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// countingFlow records refresh calls and delegates to fn.
type countingFlow struct {
	calls int32
	fn    func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

func (c *countingFlow) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.fn(ctx, refreshToken)
}

func (c *countingFlow) Calls() int {
	return int(atomic.LoadInt32(&c.calls))
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func newSession(values map[string]string) store.Store {
	return store.NewMemoryStore(store.WithValues(values))
}

func newTestRoundTripper(t *testing.T, api *fakeAPI, refresher *countingFlow, s store.Store) *RoundTripper {
	t.Helper()
	rt, err := New(WithTransport(api), WithFlow(refresher), WithStore(s))
	require.NoError(t, err)
	return rt
}

func get(ctx context.Context, rt http.RoundTripper) (*http.Response, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://api.test/pets", nil)
	return (&http.Client{Transport: rt}).Do(req)
}

func TestNew_RequiresFlow(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestRoundTripper_AttachesToken(t *testing.T) {
	api := &fakeAPI{valid: "A1"}
	refresher := &countingFlow{}
	rt := newTestRoundTripper(t, api, refresher, newSession(map[string]string{store.AccessTokenKey: "A1"}))

	req, _ := http.NewRequest(http.MethodGet, "http://api.test/services", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, api.count("Bearer A1"))
	assert.Empty(t, req.Header.Get("Authorization"), "caller request must not be mutated")
	assert.Equal(t, 0, refresher.Calls())
}

func TestRoundTripper_WithoutToken(t *testing.T) {
	api := &fakeAPI{}
	rt := newTestRoundTripper(t, api, &countingFlow{}, store.NewMemoryStore())
	resp, err := get(context.Background(), rt)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, api.count(""))
}

func TestRoundTripper_ConcurrentRefresh(t *testing.T) {
	const burst = 3
	api := &fakeAPI{valid: "A2"}
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		assert.Equal(t, "R1", refreshToken)
		waitFor(t, func() bool { return atomic.LoadInt32(&api.unauthorized) >= burst })
		return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
	}}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	rt := newTestRoundTripper(t, api, refresher, s)

	var wg sync.WaitGroup
	statuses := make(chan int, burst)
	for i := 0; i < burst; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := get(context.Background(), rt)
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		assert.Equal(t, http.StatusOK, status)
	}
	assert.Equal(t, 1, refresher.Calls())
	assert.Equal(t, burst, api.count("Bearer A1"))
	assert.Equal(t, burst, api.count("Bearer A2"))

	token, err := store.LoadToken(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "A2", token.AccessToken)
	assert.Equal(t, "R2", token.RefreshToken)
	assert.False(t, rt.refreshing)
	assert.Equal(t, 0, rt.queue.Len())
}

func TestRoundTripper_MissingRefreshToken(t *testing.T) {
	api := &fakeAPI{valid: "A2"}
	refresher := &countingFlow{}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.UserKey: `{"id":"u1"}`})
	rt := newTestRoundTripper(t, api, refresher, s)

	resp, err := get(context.Background(), rt)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Token expired", "original response must be returned intact")
	assert.Equal(t, 0, refresher.Calls())
	assert.Equal(t, 1, api.requests())
	for _, key := range store.SessionKeys {
		_, ok, _ := s.Get(context.Background(), key)
		assert.False(t, ok, key)
	}
}

func TestRoundTripper_RefreshFailure(t *testing.T) {
	const waiters = 2
	api := &fakeAPI{valid: "A2"}
	release := make(chan struct{})
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		<-release
		return nil, &flow.StatusError{StatusCode: http.StatusUnauthorized, Detail: "Invalid refresh token"}
	}}
	s := newSession(map[string]string{
		store.AccessTokenKey:  "A1",
		store.RefreshTokenKey: "R1",
		store.UserKey:         `{"id":"u1"}`,
	})
	rt := newTestRoundTripper(t, api, refresher, s)

	errs := make(chan error, waiters+1)
	call := func() {
		resp, err := get(context.Background(), rt)
		if resp != nil {
			resp.Body.Close()
		}
		errs <- err
	}
	go call()
	waitFor(t, func() bool { return refresher.Calls() == 1 })
	for i := 0; i < waiters; i++ {
		go call()
	}
	waitFor(t, func() bool {
		rt.mux.Lock()
		defer rt.mux.Unlock()
		return rt.queue.Len() == waiters
	})
	close(release)

	for i := 0; i < waiters+1; i++ {
		err := <-errs
		assert.ErrorIs(t, err, ErrRefreshFailed)
		var statusErr *flow.StatusError
		if assert.ErrorAs(t, err, &statusErr) {
			assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
		}
	}
	assert.Equal(t, 1, refresher.Calls())
	for _, key := range store.SessionKeys {
		_, ok, _ := s.Get(context.Background(), key)
		assert.False(t, ok, key)
	}
	assert.Equal(t, 0, api.count("Bearer A2"))
}

func TestRoundTripper_QueueOrder(t *testing.T) {
	const waiters = 4
	api := &fakeAPI{valid: "A2"}
	release := make(chan struct{})
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		<-release
		return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
	}}
	core, logs := observer.New(zap.DebugLevel)
	rt, err := New(WithTransport(api), WithFlow(refresher), WithLogger(zap.New(core)),
		WithStore(newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})))
	require.NoError(t, err)

	done := make(chan error, waiters+1)
	call := func(path string) {
		req, _ := http.NewRequest(http.MethodGet, "http://api.test"+path, nil)
		resp, err := rt.RoundTrip(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				err = errors.New(resp.Status)
			}
		}
		done <- err
	}
	go call("/initiator")
	waitFor(t, func() bool { return refresher.Calls() == 1 })
	var expect []string
	for i := 0; i < waiters; i++ {
		path := fmt.Sprintf("/waiter/%d", i)
		expect = append(expect, "http://api.test"+path)
		go call(path)
		position := i + 1
		waitFor(t, func() bool {
			return logs.FilterMessage("refresh in flight, request queued").Len() == position
		})
	}
	close(release)
	for i := 0; i < waiters+1; i++ {
		assert.NoError(t, <-done)
	}

	var queued []string
	for i, entry := range logs.FilterMessage("refresh in flight, request queued").All() {
		fields := entry.ContextMap()
		assert.EqualValues(t, i+1, fields["position"])
		queued = append(queued, fields["url"].(string))
	}
	assert.Equal(t, expect, queued)
	assert.Equal(t, waiters+1, api.count("Bearer A2"))
	assert.Equal(t, 1, refresher.Calls())
}

func TestRoundTripper_RequestBody(t *testing.T) {
	const payload = `{"petId":"p1"}`
	var testCases = []struct {
		description  string
		newRequest   func() *http.Request
		expectBodies []string
		expectNoBody bool
		expectReplay int
	}{
		{
			description: "replayed through GetBody",
			newRequest: func() *http.Request {
				req, _ := http.NewRequest(http.MethodPost, "http://api.test/cart", strings.NewReader(payload))
				return req
			},
			expectBodies: []string{payload, payload},
			expectReplay: 1,
		},
		{
			description: "buffered without GetBody",
			newRequest: func() *http.Request {
				req, _ := http.NewRequest(http.MethodPost, "http://api.test/cart", io.NopCloser(strings.NewReader(payload)))
				return req
			},
			expectBodies: []string{payload, payload},
		},
		{
			description: "empty body sent as NoBody",
			newRequest: func() *http.Request {
				req, _ := http.NewRequest(http.MethodPost, "http://api.test/cart", io.NopCloser(strings.NewReader("")))
				return req
			},
			expectBodies: []string{"", ""},
			expectNoBody: true,
		},
	}
	for _, testCase := range testCases {
		var noBody []bool
		var lengths []int64
		api := &fakeAPI{valid: "A2"}
		api.onRequest = func(req *http.Request) {
			noBody = append(noBody, req.Body == http.NoBody)
			lengths = append(lengths, req.ContentLength)
		}
		refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
		}}
		rt := newTestRoundTripper(t, api, refresher, newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"}))

		req := testCase.newRequest()
		replays := 0
		if getBody := req.GetBody; getBody != nil {
			req.GetBody = func() (io.ReadCloser, error) {
				replays++
				return getBody()
			}
		}
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err, testCase.description)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, testCase.description)
		assert.Equal(t, testCase.expectBodies, api.bodies, testCase.description)
		assert.Equal(t, testCase.expectReplay, replays, testCase.description)
		assert.Equal(t, []bool{testCase.expectNoBody, testCase.expectNoBody}, noBody, testCase.description)
		if testCase.expectNoBody {
			assert.Equal(t, []int64{0, 0}, lengths, testCase.description)
		} else {
			assert.Equal(t, []int64{int64(len(payload)), int64(len(payload))}, lengths, testCase.description)
		}
	}
}

func TestRoundTripper_QueuedCallersRejected(t *testing.T) {
	api := &fakeAPI{valid: "A2"}
	release := make(chan struct{})
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		<-release
		return nil, errors.New("connection reset")
	}}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	rt := newTestRoundTripper(t, api, refresher, s)

	const waiters = 2
	errs := make(chan error, waiters+1)
	go func() {
		_, err := get(context.Background(), rt)
		errs <- err
	}()
	waitFor(t, func() bool { return refresher.Calls() == 1 })
	for i := 0; i < waiters; i++ {
		go func() {
			_, err := get(context.Background(), rt)
			errs <- err
		}()
	}
	waitFor(t, func() bool {
		rt.mux.Lock()
		defer rt.mux.Unlock()
		return rt.queue.Len() == waiters
	})
	close(release)

	for i := 0; i < waiters+1; i++ {
		err := <-errs
		assert.ErrorIs(t, err, ErrRefreshFailed)
		assert.Contains(t, err.Error(), "connection reset")
	}
	assert.Equal(t, 1, refresher.Calls())
	_, ok, _ := s.Get(context.Background(), store.RefreshTokenKey)
	assert.False(t, ok)
}

func TestRoundTripper_NoDoubleRetry(t *testing.T) {
	api := &fakeAPI{valid: "never-accepted"}
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
	}}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	rt := newTestRoundTripper(t, api, refresher, s)

	resp, err := get(context.Background(), rt)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, refresher.Calls())
	assert.Equal(t, 2, api.requests())
	assert.Equal(t, 1, api.count("Bearer A2"))
}

func TestRoundTripper_PassThrough(t *testing.T) {
	var testCases = []struct {
		description string
		api         *fakeAPI
		expectCode  int
		expectErr   bool
	}{
		{description: "server error", api: &fakeAPI{status: http.StatusInternalServerError}, expectCode: http.StatusInternalServerError},
		{description: "forbidden", api: &fakeAPI{status: http.StatusForbidden}, expectCode: http.StatusForbidden},
		{description: "network error", api: &fakeAPI{err: errors.New("dial tcp: connection refused")}, expectErr: true},
	}
	for _, testCase := range testCases {
		refresher := &countingFlow{}
		s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
		rt := newTestRoundTripper(t, testCase.api, refresher, s)
		resp, err := get(context.Background(), rt)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			assert.NotErrorIs(t, err, ErrRefreshFailed, testCase.description)
		} else {
			require.NoError(t, err, testCase.description)
			assert.Equal(t, testCase.expectCode, resp.StatusCode, testCase.description)
			resp.Body.Close()
		}
		assert.Equal(t, 0, refresher.Calls(), testCase.description)
		assert.Equal(t, 1, testCase.api.requests(), testCase.description)
		_, ok, _ := s.Get(context.Background(), store.AccessTokenKey)
		assert.True(t, ok, testCase.description)
	}
}

func TestRoundTripper_ReplaysBody(t *testing.T) {
	api := &fakeAPI{valid: "A2"}
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
	}}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	rt := newTestRoundTripper(t, api, refresher, s)

	payload := `{"petId":"p1","serviceId":"s1","date":"2026-10-20"}`
	req, _ := http.NewRequest(http.MethodPost, "http://api.test/cart", strings.NewReader(payload))
	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{payload, payload}, api.bodies)
}

func TestRoundTripper_WithoutRefresh(t *testing.T) {
	api := &fakeAPI{valid: "A2"}
	refresher := &countingFlow{}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	rt := newTestRoundTripper(t, api, refresher, s)

	resp, err := get(WithoutRefresh(context.Background()), rt)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, refresher.Calls())
	_, ok, _ := s.Get(context.Background(), store.RefreshTokenKey)
	assert.True(t, ok)
}

func TestRoundTripper_StaleToken(t *testing.T) {
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	api := &fakeAPI{valid: "A2"}
	api.onRequest = func(req *http.Request) {
		// another client instance sharing the store refreshed meanwhile
		_ = store.SaveToken(req.Context(), s, &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"})
	}
	refresher := &countingFlow{}
	rt := newTestRoundTripper(t, api, refresher, s)

	resp, err := get(context.Background(), rt)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, refresher.Calls())
	assert.Equal(t, 1, api.count("Bearer A2"))
}

func TestRoundTripper_QueuedCallerCancelled(t *testing.T) {
	api := &fakeAPI{valid: "A2"}
	release := make(chan struct{})
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		<-release
		return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
	}}
	s := newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})
	rt := newTestRoundTripper(t, api, refresher, s)

	initiator := make(chan int, 1)
	go func() {
		resp, err := get(context.Background(), rt)
		if assert.NoError(t, err) {
			resp.Body.Close()
			initiator <- resp.StatusCode
		}
	}()
	waitFor(t, func() bool { return refresher.Calls() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := get(ctx, rt)
		cancelled <- err
	}()
	waitFor(t, func() bool {
		rt.mux.Lock()
		defer rt.mux.Unlock()
		return rt.queue.Len() == 1
	})
	cancel()
	assert.ErrorIs(t, <-cancelled, context.Canceled)

	close(release)
	assert.Equal(t, http.StatusOK, <-initiator)
	assert.Equal(t, 1, refresher.Calls())
}

func TestRoundTripper_StoreWriteFailure(t *testing.T) {
	api := &fakeAPI{valid: "A2"}
	refresher := &countingFlow{fn: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}, nil
	}}
	s := &failingStore{Store: newSession(map[string]string{store.AccessTokenKey: "A1", store.RefreshTokenKey: "R1"})}
	rt := newTestRoundTripper(t, api, refresher, s)

	_, err := get(context.Background(), rt)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	_, ok, _ := s.Get(context.Background(), store.AccessTokenKey)
	assert.False(t, ok)
}

// failingStore rejects writes and hides Batch.
type failingStore struct {
	store.Store
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("disk full")
}
