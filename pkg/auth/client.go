package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultHTTPTimeout bounds every outbound call when no client is supplied.
	DefaultHTTPTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20

	// Compatibility values sent when the caller supplies no per-request
	// state or PKCE verifier. They offer no CSRF or interception protection;
	// use NewAuthRequest instead.
	placeholderState = "random_string"
	placeholderPKCE  = "challenge"
)

var (
	errMissingAccessToken = errors.New("server response missing access_token")
	errMissingUserID      = errors.New("response has no user id")
)

// providerBase carries what every provider shares: identity, credentials,
// the outbound client and logging.
type providerBase struct {
	name        ProviderName
	config      ProviderConfig
	client      *http.Client
	logger      *zap.Logger
	logEnricher LogEnricher
}

func newProviderBase(name ProviderName, cfg ProviderConfig, deps providerDeps) (providerBase, error) {
	if err := cfg.Validate(); err != nil {
		return providerBase{}, err
	}
	return providerBase{
		name:        name,
		config:      cfg,
		client:      deps.client,
		logger:      deps.logger,
		logEnricher: deps.logEnricher,
	}, nil
}

func (b *providerBase) Name() ProviderName {
	return b.name
}

func (b *providerBase) log(ctx context.Context, op string) *zap.Logger {
	return b.logEnricher(ctx, b.logger).Named(string(b.name) + "_" + op)
}

// apiRequest describes one call to a provider REST endpoint.
type apiRequest struct {
	method string
	url    string
	query  url.Values
	header http.Header
	body   any // JSON-encoded when non-nil
}

// apiError is returned when a provider answers with a non-2xx status.
type apiError struct {
	StatusCode int
	Body       []byte
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// do executes r and returns the raw response body of a 2xx response.
func (b *providerBase) do(ctx context.Context, r apiRequest) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	target := r.url
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, redactURLError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}

// redactURLError strips the query string from a transport error. Facebook
// and Instagram carry client_secret, code and access_token in the query.
func redactURLError(err error) error {
	var uErr *url.Error
	if !errors.As(err, &uErr) {
		return err
	}
	target := uErr.URL
	if u, perr := url.Parse(uErr.URL); perr == nil {
		u.RawQuery, u.Fragment, u.User = "", "", nil
		target = u.String()
	} else if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	return &url.Error{Op: uErr.Op, URL: target, Err: uErr.Err}
}

// getJSON performs r and decodes a 2xx JSON response into out.
func (b *providerBase) getJSON(ctx context.Context, r apiRequest, out any) error {
	data, err := b.do(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func bearer(token AccessToken) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+string(token))
	return h
}

// accessTokenFrom extracts access_token from a JSON token response. The
// provider's own error text is used when the token is absent.
func (b *providerBase) accessTokenFrom(body []byte, paths ...string) (AccessToken, error) {
	if tok := gjson.GetBytes(body, "access_token").String(); tok != "" {
		return AccessToken(tok), nil
	}
	detail := detailFromBody(body, paths)
	if detail == "" {
		detail = errMissingAccessToken.Error()
	}
	return "", newError(KindTokenExchange, b.name, "token exchange failed: "+detail, errMissingAccessToken)
}

// exchangeWithConfig runs a form-encoded code exchange through oauth2.
func (b *providerBase) exchangeWithConfig(ctx context.Context, cfg *oauth2.Config, code string, opts []oauth2.AuthCodeOption, paths ...string) (AccessToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)
	tok, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return "", b.tokenExchangeError(err, paths...)
	}
	if tok.AccessToken == "" {
		return "", newError(KindTokenExchange, b.name, "token exchange failed: "+errMissingAccessToken.Error(), errMissingAccessToken)
	}
	return AccessToken(tok.AccessToken), nil
}

func (b *providerBase) tokenExchangeError(err error, paths ...string) *Error {
	return newError(KindTokenExchange, b.name, "token exchange failed: "+errorDetail(err, paths), err)
}

func (b *providerBase) userInfoError(err error, paths ...string) *Error {
	return newError(KindUserInfo, b.name, "failed to get user info: "+errorDetail(err, paths), err)
}

// errorDetail prefers the provider's error description found at one of the
// JSON paths in the response body, then falls back to err's own text.
func errorDetail(err error, paths []string) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if d := detailFromBody(apiErr.Body, paths); d != "" {
			return d
		}
	}
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if d := detailFromBody(rErr.Body, paths); d != "" {
			return d
		}
		if rErr.ErrorDescription != "" {
			return rErr.ErrorDescription
		}
		if rErr.ErrorCode != "" {
			return rErr.ErrorCode
		}
		if rErr.Response != nil {
			return fmt.Sprintf("request failed with status code %d", rErr.Response.StatusCode)
		}
	}
	return err.Error()
}

func detailFromBody(body []byte, paths []string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, p := range paths {
		if v := gjson.GetBytes(body, p); v.Exists() && v.Type != gjson.Null {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// userAgentTransport stamps a fixed User-Agent on every request.
type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

func withUserAgent(c *http.Client, agent string) *http.Client {
	clone := *c
	clone.Transport = &userAgentTransport{base: c.Transport, agent: agent}
	return &clone
}
