package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordedRequest is a copy of an outbound request taken before the handler runs.
type recordedRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

func (r recordedRequest) form(t *testing.T) url.Values {
	t.Helper()
	v, err := url.ParseQuery(string(r.Body))
	require.NoError(t, err)
	return v
}

func (r recordedRequest) json(t *testing.T) map[string]string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(r.Body, &m))
	return m
}

// fakeAPI serves provider endpoints in-process. Routes are keyed by method,
// host and path so the production URLs are used unchanged.
type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []recordedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t, handlers: map[string]http.HandlerFunc{}}
}

func routeKey(method string, u *url.URL) string {
	return method + " " + u.Host + u.Path
}

func (f *fakeAPI) handle(method, rawURL string, h http.HandlerFunc) *fakeAPI {
	u, err := url.Parse(rawURL)
	require.NoError(f.t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[routeKey(method, u)] = h
	return f
}

func (f *fakeAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	key := routeKey(req.Method, req.URL)
	f.mu.Lock()
	h, ok := f.handlers[key]
	f.requests = append(f.requests, recordedRequest{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header.Clone(),
		Body:   body,
	})
	f.mu.Unlock()

	rec := httptest.NewRecorder()
	if !ok {
		f.t.Errorf("unexpected request %s", key)
		rec.WriteHeader(http.StatusNotFound)
		return rec.Result(), nil
	}
	h(rec, req)
	return rec.Result(), nil
}

func (f *fakeAPI) client() *http.Client {
	return &http.Client{Transport: f}
}

// last returns the most recent request sent to rawURL.
func (f *fakeAPI) last(method, rawURL string) recordedRequest {
	f.t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(f.t, err)
	key := routeKey(method, u)

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if routeKey(f.requests[i].Method, f.requests[i].URL) == key {
			return f.requests[i]
		}
	}
	f.t.Fatalf("no request recorded for %s", key)
	return recordedRequest{}
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func jsonResponse(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func rawResponse(status int, contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func testConfig(name ProviderName) ProviderConfig {
	return ProviderConfig{
		ClientID:     string(name) + "-client-id",
		ClientSecret: string(name) + "-client-secret",
		RedirectURI:  "http://localhost:3000/auth/" + string(name) + "/callback",
	}
}

func testDeps(t *testing.T, client *http.Client) providerDeps {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return providerDeps{
		client:      client,
		logger:      zaptest.NewLogger(t),
		logEnricher: passthroughEnricher,
	}
}

func newTestProvider(t *testing.T, name ProviderName, client *http.Client) Provider {
	t.Helper()
	p, err := newProvider(name, testConfig(name), testDeps(t, client))
	require.NoError(t, err)
	return p
}

func newTestHandler(t *testing.T, api *fakeAPI, names ...ProviderName) *OAuthHandler {
	t.Helper()
	cfg := OAuthConfig{}
	for _, n := range names {
		cfg[string(n)] = testConfig(n)
	}
	h, err := NewOAuthHandler(zaptest.NewLogger(t), nil, cfg, WithHTTPClient(api.client()))
	require.NoError(t, err)
	return h
}
