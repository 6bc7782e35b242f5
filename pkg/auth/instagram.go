package auth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/instagram"
)

// ===== Instagram OAuth =====

const instagramMeURL = "https://graph.instagram.com/me"

// InstagramUserInfo is the Basic Display API `/me` response. It carries no
// email and no profile picture.
type InstagramUserInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type"`
	MediaCount  int    `json:"media_count"`
}

// instagramProvider implements the Provider interface for Instagram Basic Display.
type instagramProvider struct {
	providerBase
	oauth *oauth2.Config
}

func newInstagramProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(Instagram, cfg, deps)
	if err != nil {
		return nil, err
	}
	endpoint := instagram.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &instagramProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"user_profile,user_media"},
			Endpoint:     endpoint,
		},
	}, nil
}

func (i *instagramProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	return i.oauth.AuthCodeURL(p.state)
}

func (i *instagramProvider) ExchangeCode(ctx context.Context, code string, _ ...AuthOption) (AccessToken, error) {
	token, err := i.exchangeWithConfig(ctx, i.oauth, code, nil, "error_message")
	if err != nil {
		i.log(ctx, "exchange").Error("Failed to exchange code for token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (i *instagramProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := i.log(ctx, "login")

	var igUser InstagramUserInfo
	err := i.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    instagramMeURL,
		query: url.Values{
			"fields":       {"id,username,account_type,media_count"},
			"access_token": {string(token)},
		},
	}, &igUser)
	if err != nil {
		logger.Error("Failed to get Instagram user info", zap.Error(err))
		return nil, i.userInfoError(err, "error.message")
	}
	if igUser.ID == "" {
		logger.Error("Instagram user info response has no id")
		return nil, i.userInfoError(errMissingUserID)
	}

	user := &User{
		ID:       igUser.ID,
		Name:     igUser.Username,
		Email:    "",
		Picture:  "",
		Provider: Instagram,
	}

	logger.Info("Instagram login successful", zap.String("instagram_username", igUser.Username))
	return user, nil
}
