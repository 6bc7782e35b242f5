package auth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ===== Twitter OAuth =====

const (
	twitterAuthURL  = "https://twitter.com/i/oauth2/authorize"
	twitterTokenURL = "https://api.twitter.com/2/oauth2/token"
	twitterMeURL    = "https://api.twitter.com/2/users/me"
)

// TwitterUserInfo is the envelope returned by the v2 `/users/me` endpoint.
// Twitter does not expose email through this API.
type TwitterUserInfo struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

// twitterProvider implements the Provider interface for Twitter OAuth 2.0
// with PKCE and confidential-client Basic authentication.
type twitterProvider struct {
	providerBase
	oauth *oauth2.Config
}

func newTwitterProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(Twitter, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &twitterProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"tweet.read", "users.read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   twitterAuthURL,
				TokenURL:  twitterTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}, nil
}

// AuthURL sends an S256 challenge when a verifier is supplied; otherwise it
// falls back to the static plain challenge.
func (t *twitterProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	if p.state == "" {
		p.state = placeholderState
	}
	if p.verifier != "" {
		return t.oauth.AuthCodeURL(p.state, oauth2.S256ChallengeOption(p.verifier))
	}
	return t.oauth.AuthCodeURL(p.state,
		oauth2.SetAuthURLParam("code_challenge", placeholderPKCE),
		oauth2.SetAuthURLParam("code_challenge_method", "plain"),
	)
}

func (t *twitterProvider) ExchangeCode(ctx context.Context, code string, opts ...AuthOption) (AccessToken, error) {
	p := collectAuthParams(opts)
	verifier := p.verifier
	if verifier == "" {
		verifier = placeholderPKCE
	}
	token, err := t.exchangeWithConfig(ctx, t.oauth, code, []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("client_id", t.config.ClientID),
		oauth2.VerifierOption(verifier),
	}, "error_description")
	if err != nil {
		t.log(ctx, "exchange").Error("Failed to exchange code for token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (t *twitterProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := t.log(ctx, "login")

	var twitterUser TwitterUserInfo
	err := t.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    twitterMeURL,
		query:  url.Values{"user.fields": {"id,name,username,profile_image_url"}},
		header: bearer(token),
	}, &twitterUser)
	if err != nil {
		logger.Error("Failed to get Twitter user info", zap.Error(err))
		return nil, t.userInfoError(err, "detail")
	}
	if twitterUser.Data.ID == "" {
		logger.Error("Twitter user info response has no id")
		return nil, t.userInfoError(errMissingUserID)
	}

	user := &User{
		ID:       twitterUser.Data.ID,
		Name:     twitterUser.Data.Name,
		Email:    "",
		Picture:  twitterUser.Data.ProfileImageURL,
		Provider: Twitter,
	}

	logger.Info("Twitter login successful", zap.String("twitter_username", twitterUser.Data.Username))
	return user, nil
}
