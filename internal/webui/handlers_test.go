package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

const testEndpoint = "https://search.example.test/api/search"

const categorizedBody = `{"results":{"Social Profiles":[{"url":"https://example.test/jane","title":"Jane <Doe>","description":"Profile","match_context":"name"}],"News":[]}}`

type fakeSearcher struct {
	mu      sync.Mutex
	body    string
	err     error
	queries []types.Query
	release chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, q types.Query) (*results.RawResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return results.ParseResponse([]byte(f.body))
}

func (f *fakeSearcher) Endpoint() string { return testEndpoint }

func (f *fakeSearcher) calls() []types.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Query(nil), f.queries...)
}

func newTestServer(t *testing.T, searcher *fakeSearcher) *Server {
	t.Helper()
	s, err := NewServer(nil, searcher, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(s *Server, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if method == http.MethodPost && strings.Contains(body, "=") {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func form(name, extra string) string {
	return url.Values{"name": {name}, "extra_info": {extra}}.Encode()
}

func waitForPhase(t *testing.T, s *Server, phase console.Phase) console.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Dispatcher().Snapshot().Phase == phase
	}, 2*time.Second, 5*time.Millisecond)
	return s.Dispatcher().Snapshot()
}

func TestNewServerRequiresSearcher(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
}

func TestServerConfigFromConfig(t *testing.T) {
	sc := ServerConfigFromConfig(&types.Config{WebUIHost: "0.0.0.0", WebUIPort: 9000})
	assert.Equal(t, "0.0.0.0:9000", sc.Addr())

	sc = ServerConfigFromConfig(nil)
	assert.Equal(t, "localhost:8081", sc.Addr())
}

func TestHandleIndexShowsQueryForm(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{body: categorizedBody})

	w := do(s, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/search"`)
	assert.Contains(t, body, testEndpoint)
	assert.NotContains(t, body, console.LoadingText)
}

func TestHandleIndexUnknownPath(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{})

	w := do(s, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSearchBlankNameIsIgnored(t *testing.T) {
	searcher := &fakeSearcher{body: categorizedBody}
	s := newTestServer(t, searcher)

	w := do(s, http.MethodPost, "/search", form("   ", "MIT"), nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, console.PhaseEnteringQuery, s.Dispatcher().Snapshot().Phase)
	assert.Empty(t, searcher.calls())
}

func TestHandleSearchResolvesResults(t *testing.T) {
	searcher := &fakeSearcher{body: categorizedBody}
	s := newTestServer(t, searcher)

	w := do(s, http.MethodPost, "/search", form(" Jane Doe ", "MIT"), nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	waitForPhase(t, s, console.PhaseResolved)
	assert.Equal(t, []types.Query{{Name: " Jane Doe ", ExtraInfo: "MIT"}}, searcher.calls())

	w = do(s, http.MethodGet, "/partials/view", "", nil)
	body := w.Body.String()
	assert.Contains(t, body, console.ResultsText)
	assert.Contains(t, body, "SOCIAL PROFILES (1)")
	assert.NotContains(t, body, "NEWS (0)")
	assert.Contains(t, body, "Jane &lt;Doe&gt;")
	assert.Contains(t, body, `class="badge">name<`)
	assert.Contains(t, body, "https://example.test/jane")
}

func TestHandleSearchFlatResultsHaveNoHeading(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{body: `{"results":[{"url":"https://a.test","title":"A"}]}`})

	do(s, http.MethodPost, "/search", form("Jane", ""), nil)
	waitForPhase(t, s, console.PhaseResolved)

	body := do(s, http.MethodGet, "/partials/view", "", nil).Body.String()
	assert.Contains(t, body, "https://a.test")
	assert.NotContains(t, body, "UNCATEGORIZED")
}

func TestHandleSearchEmptyResults(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{body: `{"results":{"News":[]}}`})

	do(s, http.MethodPost, "/search", form("Nobody", ""), nil)
	waitForPhase(t, s, console.PhaseResolved)

	body := do(s, http.MethodGet, "/partials/view", "", nil).Body.String()
	assert.Contains(t, body, console.EmptyText)
	assert.Contains(t, body, `action="/reset"`)
	assert.NotContains(t, body, `class="alert"`)
}

func TestHandleSearchFailureShowsNotification(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{err: errors.New("connection refused")})

	do(s, http.MethodPost, "/search", form("Jane", ""), nil)
	snap := waitForPhase(t, s, console.PhaseResolved)
	require.NotNil(t, snap.Notification)

	body := do(s, http.MethodGet, "/partials/view", "", nil).Body.String()
	assert.Contains(t, body, "Backend Connection Failed to "+testEndpoint)
	assert.Contains(t, body, console.EmptyText)

	w := do(s, http.MethodPost, "/notification/dismiss", "", map[string]string{"X-Requested-With": "fetch"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `class="alert"`)
	assert.Nil(t, s.Dispatcher().Snapshot().Notification)
}

func TestHandleSearchWhileLoadingConflicts(t *testing.T) {
	searcher := &fakeSearcher{body: categorizedBody, release: make(chan struct{})}
	s := newTestServer(t, searcher)

	do(s, http.MethodPost, "/search", form("Jane", ""), nil)
	waitForPhase(t, s, console.PhaseLoading)

	loading := do(s, http.MethodGet, "/", "", nil).Body.String()
	assert.Contains(t, loading, console.LoadingText)
	assert.Contains(t, loading, `http-equiv="refresh"`)

	w := do(s, http.MethodPost, "/search", form("John", ""), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(searcher.release)
	waitForPhase(t, s, console.PhaseResolved)
	assert.Len(t, searcher.calls(), 1)
}

func TestHandleResetReturnsToForm(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{body: categorizedBody})

	w := do(s, http.MethodPost, "/reset", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	do(s, http.MethodPost, "/search", form("Jane", ""), nil)
	waitForPhase(t, s, console.PhaseResolved)

	w = do(s, http.MethodPost, "/reset", "", map[string]string{"X-Requested-With": "fetch"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/search"`)

	snap := s.Dispatcher().Snapshot()
	assert.Equal(t, console.PhaseEnteringQuery, snap.Phase)
	assert.Nil(t, snap.Query)
	assert.True(t, snap.Results.IsEmpty())
}

func TestHandleAPIState(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{err: errors.New("boom")})

	do(s, http.MethodPost, "/search", form("Jane", ""), nil)
	waitForPhase(t, s, console.PhaseResolved)

	w := do(s, http.MethodGet, "/api/state", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp APIStateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, console.PhaseResolved, resp.Phase)
	assert.Equal(t, console.ViewEmpty, resp.View)
	assert.Equal(t, testEndpoint, resp.Endpoint)
	assert.Equal(t, "Backend Connection Failed to "+testEndpoint+": boom", resp.NotificationText)
}

func TestHandleAPISearch(t *testing.T) {
	searcher := &fakeSearcher{body: categorizedBody, release: make(chan struct{})}
	s := newTestServer(t, searcher)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "invalid json", body: `{"name":`, status: http.StatusBadRequest},
		{name: "blank name", body: `{"name":"  ","extra_info":"x"}`, status: http.StatusUnprocessableEntity},
		{name: "accepted", body: `{"name":"Jane","extra_info":"MIT"}`, status: http.StatusAccepted},
		{name: "in flight", body: `{"name":"John"}`, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/api/search", tt.body, map[string]string{"Content-Type": "application/json"})
			assert.Equal(t, tt.status, w.Code)
		})
	}

	assert.Equal(t, console.PhaseLoading, s.Dispatcher().Snapshot().Phase)
	close(searcher.release)
	waitForPhase(t, s, console.PhaseResolved)
	assert.Equal(t, []types.Query{{Name: "Jane", ExtraInfo: "MIT"}}, searcher.calls())

	w := do(s, http.MethodPost, "/api/reset", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(s, http.MethodPost, "/api/reset", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleHealthz(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{})

	w := do(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","clients":0}`, w.Body.String())
}

func TestStaticFilesServed(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{})

	w := do(s, http.MethodGet, "/static/app.js", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EventSource")
}

func TestStateChangedBroadcastsView(t *testing.T) {
	s := newTestServer(t, &fakeSearcher{body: categorizedBody})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.sseManager.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	client, err := s.sseManager.RegisterClient("tab", []string{EventTypeViewChanged})
	require.NoError(t, err)

	require.NoError(t, s.Dispatcher().Begin(types.Query{Name: "Jane"}))

	select {
	case msg := <-client.Events:
		assert.Contains(t, string(msg), "event: view_changed")
		assert.Contains(t, string(msg), `"view":"loading"`)
		assert.Contains(t, string(msg), `"version":1`)
	case <-time.After(time.Second):
		t.Fatal("view_changed not received")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	searcher := &fakeSearcher{body: categorizedBody, release: make(chan struct{})}
	s, err := NewServer(nil, searcher, nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	transport := &http.Transport{}
	client := &http.Client{Transport: transport}
	resp, err := client.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A search still loading is cancelled by shutdown and resolves as a failure.
	require.NoError(t, s.Dispatcher().Begin(types.Query{Name: "Jane"}))
	s.startSearch(types.Query{Name: "Jane"})

	transport.CloseIdleConnections()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	snap := s.Dispatcher().Snapshot()
	assert.Equal(t, console.PhaseResolved, snap.Phase)
	require.NotNil(t, snap.Notification)
	assert.Contains(t, snap.Notification.Text(), context.Canceled.Error())
}
