package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ===== Reddit OAuth =====

const (
	redditAuthURL  = "https://www.reddit.com/api/v1/authorize"
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditMeURL    = "https://oauth.reddit.com/api/v1/me"

	// RedditUserAgent is sent on every Reddit call. Reddit requires a descriptive agent.
	RedditUserAgent = "MultiProviderOAuth/1.0.0"
)

// RedditUserInfo is the subset of `/api/v1/me` used for normalization.
// Reddit does not expose email.
type RedditUserInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconImg string `json:"icon_img"`
}

// redditProvider implements the Provider interface for Reddit OAuth.
type redditProvider struct {
	providerBase
	oauth *oauth2.Config
}

func newRedditProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(Reddit, cfg, deps)
	if err != nil {
		return nil, err
	}
	base.client = withUserAgent(base.client, RedditUserAgent)
	return &redditProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"identity"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   redditAuthURL,
				TokenURL:  redditTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader, // Reddit only accepts the secret via Basic auth
			},
		},
	}, nil
}

// AuthURL requests a permanent grant so Reddit returns a refresh token.
func (r *redditProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	if p.state == "" {
		p.state = placeholderState
	}
	return r.oauth.AuthCodeURL(p.state, oauth2.SetAuthURLParam("duration", "permanent"))
}

func (r *redditProvider) ExchangeCode(ctx context.Context, code string, _ ...AuthOption) (AccessToken, error) {
	token, err := r.exchangeWithConfig(ctx, r.oauth, code, nil, "error")
	if err != nil {
		r.log(ctx, "exchange").Error("Failed to exchange code for token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (r *redditProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := r.log(ctx, "login")

	var redditUser RedditUserInfo
	err := r.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    redditMeURL,
		header: bearer(token),
	}, &redditUser)
	if err != nil {
		logger.Error("Failed to get Reddit user info", zap.Error(err))
		return nil, r.userInfoError(err, "error")
	}
	if redditUser.ID == "" {
		logger.Error("Reddit user info response has no id")
		return nil, r.userInfoError(errMissingUserID)
	}

	user := &User{
		ID:       redditUser.ID,
		Name:     redditUser.Name,
		Email:    "",
		Picture:  redditUser.IconImg,
		Provider: Reddit,
	}

	logger.Info("Reddit login successful", zap.String("reddit_name", user.Name))
	return user, nil
}
