package auth

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	ternary "github.com/julien040/go-ternary"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ===== GitHub OAuth =====

const githubUserURL = "https://api.github.com/user"

// GitHubUserInfo represents the user information returned by the GitHub API endpoint `/user`.
// See: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUserInfo struct {
	ID        int64  `json:"id"`         // The user's unique GitHub ID.
	Login     string `json:"login"`      // The user's GitHub username.
	Name      string `json:"name"`       // The user's display name (can be null).
	Email     string `json:"email"`      // The user's publicly visible email (can be null).
	AvatarURL string `json:"avatar_url"` // URL of the user's avatar.
}

// githubProvider implements the Provider interface for GitHub OAuth.
type githubProvider struct {
	providerBase
	oauth *oauth2.Config
}

func newGitHubProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(GitHub, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &githubProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
	}, nil
}

// AuthURL sends only client_id, redirect_uri, scope and an optional state.
// GitHub takes no response_type, so the URL is built without AuthCodeURL.
func (g *githubProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	v := url.Values{
		"client_id":    {g.oauth.ClientID},
		"redirect_uri": {g.oauth.RedirectURL},
		"scope":        {strings.Join(g.oauth.Scopes, " ")},
	}
	if p.state != "" {
		v.Set("state", p.state)
	}
	return g.oauth.Endpoint.AuthURL + "?" + v.Encode()
}

// ExchangeCode posts the code as JSON. GitHub reports a bad code with a 200
// response carrying error/error_description instead of an access token.
func (g *githubProvider) ExchangeCode(ctx context.Context, code string, _ ...AuthOption) (AccessToken, error) {
	logger := g.log(ctx, "exchange")

	header := http.Header{}
	header.Set("Accept", "application/json")
	body, err := g.do(ctx, apiRequest{
		method: http.MethodPost,
		url:    g.oauth.Endpoint.TokenURL,
		header: header,
		body: map[string]string{
			"client_id":     g.config.ClientID,
			"client_secret": g.config.ClientSecret,
			"code":          code,
		},
	})
	if err != nil {
		logger.Error("Failed to exchange code for token", zap.Error(err))
		return "", g.tokenExchangeError(err, "error_description")
	}
	token, err := g.accessTokenFrom(body, "error_description", "error")
	if err != nil {
		logger.Error("Token response missing access token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (g *githubProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := g.log(ctx, "login")

	var githubUser GitHubUserInfo
	err := g.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    githubUserURL,
		header: bearer(token),
	}, &githubUser)
	if err != nil {
		logger.Error("Failed to get GitHub user info", zap.Error(err))
		return nil, g.userInfoError(err, "message")
	}
	if githubUser.ID == 0 {
		logger.Error("GitHub user info response has no id")
		return nil, g.userInfoError(errMissingUserID)
	}

	user := &User{
		ID: strconv.FormatInt(githubUser.ID, 10),
		// Display name is optional on GitHub; the login is always present.
		Name:     ternary.If(githubUser.Name != "", githubUser.Name, githubUser.Login),
		Email:    githubUser.Email, // Empty when the user keeps it private.
		Picture:  githubUser.AvatarURL,
		Provider: GitHub,
	}

	logger.Info("GitHub login successful", zap.String("github_login", githubUser.Login), zap.String("email", user.Email))
	return user, nil
}
