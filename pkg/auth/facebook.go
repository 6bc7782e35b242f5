package auth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ===== Facebook OAuth =====

const (
	facebookAuthURL  = "https://www.facebook.com/v18.0/dialog/oauth"
	facebookTokenURL = "https://graph.facebook.com/v18.0/oauth/access_token"
	facebookMeURL    = "https://graph.facebook.com/v18.0/me"
)

// FacebookUserInfo represents the user information returned by the Facebook Graph API endpoint `/me`.
// The available fields depend on the scopes requested (e.g., `public_profile`, `email`).
// See: https://developers.facebook.com/docs/graph-api/reference/user/
type FacebookUserInfo struct {
	ID      string               `json:"id"`                // The user's unique Facebook ID.
	Name    string               `json:"name"`              // The user's full name.
	Email   string               `json:"email,omitempty"`   // The user's email address (requires 'email' scope).
	Picture *FacebookPictureData `json:"picture,omitempty"` // Profile picture details.
}

// FacebookPictureData is a wrapper structure for the profile picture data returned by the Graph API.
type FacebookPictureData struct {
	Data FacebookPicture `json:"data"`
}

// FacebookPicture holds the URL and dimensions of the user's profile picture.
type FacebookPicture struct {
	URL          string `json:"url"`
	Height       int    `json:"height"`
	Width        int    `json:"width"`
	IsSilhouette bool   `json:"is_silhouette"`
}

// facebookProvider implements the Provider interface for Facebook OAuth.
type facebookProvider struct {
	providerBase
	oauth *oauth2.Config
}

func newFacebookProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(Facebook, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &facebookProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"email,public_profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  facebookAuthURL,
				TokenURL: facebookTokenURL,
			},
		},
	}, nil
}

func (f *facebookProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	return f.oauth.AuthCodeURL(p.state)
}

// ExchangeCode uses the Graph API's GET form of the token endpoint.
func (f *facebookProvider) ExchangeCode(ctx context.Context, code string, _ ...AuthOption) (AccessToken, error) {
	logger := f.log(ctx, "exchange")

	body, err := f.do(ctx, apiRequest{
		method: http.MethodGet,
		url:    f.oauth.Endpoint.TokenURL,
		query: url.Values{
			"client_id":     {f.config.ClientID},
			"client_secret": {f.config.ClientSecret},
			"redirect_uri":  {f.config.RedirectURI},
			"code":          {code},
		},
	})
	if err != nil {
		logger.Error("Failed to exchange code for token", zap.Error(err))
		return "", f.tokenExchangeError(err, "error.message")
	}
	token, err := f.accessTokenFrom(body, "error.message")
	if err != nil {
		logger.Error("Token response missing access token", zap.Error(err))
		return "", err
	}
	return token, nil
}

// UserInfo passes the token as a query parameter, as the Graph API allows.
func (f *facebookProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := f.log(ctx, "login")

	var facebookUser FacebookUserInfo
	err := f.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    facebookMeURL,
		query: url.Values{
			"fields":       {"id,name,email,picture"},
			"access_token": {string(token)},
		},
	}, &facebookUser)
	if err != nil {
		logger.Error("Failed to get Facebook user info", zap.Error(err))
		return nil, f.userInfoError(err, "error.message")
	}
	if facebookUser.ID == "" {
		logger.Error("Facebook user info response has no id")
		return nil, f.userInfoError(errMissingUserID)
	}

	picture := ""
	if facebookUser.Picture != nil {
		picture = facebookUser.Picture.Data.URL
	}

	user := &User{
		ID:       facebookUser.ID,
		Name:     facebookUser.Name,
		Email:    facebookUser.Email,
		Picture:  picture,
		Provider: Facebook,
	}

	logger.Info("Facebook login successful", zap.String("facebook_id", user.ID), zap.String("email", user.Email))
	return user, nil
}
