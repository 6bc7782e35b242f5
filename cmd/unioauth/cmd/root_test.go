package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unioauth/unioauth/pkg/auth"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonReply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func setGitHubEnv(t *testing.T) {
	t.Setenv("UNIOAUTH_LOG_LEVEL", "error")
	t.Setenv("UNIOAUTH_GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("UNIOAUTH_GITHUB_CLIENT_SECRET", "gh-secret")
	t.Setenv("UNIOAUTH_GITHUB_REDIRECT_URI", "http://localhost:3000/auth/github/callback")
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := root.Execute()
	return out.String(), err
}

func TestProvidersCmd(t *testing.T) {
	setGitHubEnv(t)
	t.Setenv("UNIOAUTH_GOOGLE_CLIENT_ID", "g-id")
	t.Setenv("UNIOAUTH_GOOGLE_CLIENT_SECRET", "g-secret")
	t.Setenv("UNIOAUTH_GOOGLE_REDIRECT_URI", "http://localhost:3000/auth/google/callback")

	out, err := run(t, &app{}, "providers")
	require.NoError(t, err)
	assert.Equal(t, "google\ngithub\n", out)
}

func TestURLCmd(t *testing.T) {
	setGitHubEnv(t)

	out, err := run(t, &app{}, "url", "github")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "gh-id", u.Query().Get("client_id"))
}

func TestURLCmd_Secure(t *testing.T) {
	setGitHubEnv(t)

	out, err := run(t, &app{}, "url", "github", "--secure")
	require.NoError(t, err)

	var req auth.AuthRequest
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, auth.GitHub, req.Provider)
	assert.NotEmpty(t, req.State)
	assert.Contains(t, req.URL, "state="+req.State)
}

func TestURLCmd_UnknownProvider(t *testing.T) {
	setGitHubEnv(t)

	_, err := run(t, &app{}, "url", "reddit")
	require.Error(t, err)
	assert.Equal(t, auth.KindConfiguration, auth.KindOf(err))
}

func TestSignInCmd(t *testing.T) {
	setGitHubEnv(t)
	a := &app{transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Host + r.URL.Path {
		case "github.com/login/oauth/access_token":
			return jsonReply(http.StatusOK, `{"access_token":"tok"}`), nil
		case "api.github.com/user":
			return jsonReply(http.StatusOK, `{"id":7,"login":"adal","avatar_url":"http://x/y.png"}`), nil
		}
		return jsonReply(http.StatusNotFound, `{}`), nil
	})}

	out, err := run(t, a, "signin", "github", "the-code")
	require.NoError(t, err)

	var user auth.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, auth.User{ID: "7", Name: "adal", Picture: "http://x/y.png", Provider: auth.GitHub}, user)
}

func TestSignInCmd_ErrorCarriesKind(t *testing.T) {
	setGitHubEnv(t)
	a := &app{transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonReply(http.StatusOK, `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`), nil
	})}

	_, err := run(t, a, "signin", "github", "stale")
	require.Error(t, err)
	assert.Equal(t, "TokenExchangeError: token exchange failed: The code passed is incorrect or expired.", err.Error())
	assert.ErrorIs(t, err, auth.ErrTokenExchange)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	t.Setenv("UNIOAUTH_LOG_LEVEL", "error")
	t.Setenv("UNIOAUTH_TWITTER_CLIENT_ID", "only-id")

	_, err := run(t, &app{}, "providers")
	require.Error(t, err)
	assert.Equal(t, auth.KindConfiguration, auth.KindOf(err))
}
