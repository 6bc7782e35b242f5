package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ===== Google OAuth =====

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleUserInfo represents the user information returned by Google's userinfo endpoint
// (https://www.googleapis.com/oauth2/v2/userinfo).
type GoogleUserInfo struct {
	ID            string `json:"id"`             // The user's unique Google ID.
	Email         string `json:"email"`          // The user's email address.
	VerifiedEmail bool   `json:"verified_email"` // Whether Google has verified the email address.
	Name          string `json:"name"`           // The user's full name.
	GivenName     string `json:"given_name"`     // The user's first name.
	FamilyName    string `json:"family_name"`    // The user's last name.
	Picture       string `json:"picture"`        // URL of the user's profile picture.
	Locale        string `json:"locale"`         // The user's locale (e.g., "en").
}

// googleProvider implements the Provider interface for Google OAuth.
type googleProvider struct {
	providerBase
	oauth *oauth2.Config
}

// newGoogleProvider builds the Google provider. The oauth2.Config is only
// used for URL assembly; Google receives the code exchange as a JSON body.
func newGoogleProvider(cfg ProviderConfig, deps providerDeps) (Provider, error) {
	base, err := newProviderBase(Google, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &googleProvider{
		providerBase: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   googleAuthURL,
				TokenURL:  google.Endpoint.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// AuthURL requests offline access with a forced consent prompt so Google
// issues a refresh token.
func (g *googleProvider) AuthURL(opts ...AuthOption) string {
	p := collectAuthParams(opts)
	return g.oauth.AuthCodeURL(p.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *googleProvider) ExchangeCode(ctx context.Context, code string, _ ...AuthOption) (AccessToken, error) {
	logger := g.log(ctx, "exchange")

	body, err := g.do(ctx, apiRequest{
		method: http.MethodPost,
		url:    g.oauth.Endpoint.TokenURL,
		body: map[string]string{
			"client_id":     g.config.ClientID,
			"client_secret": g.config.ClientSecret,
			"code":          code,
			"grant_type":    "authorization_code",
			"redirect_uri":  g.config.RedirectURI,
		},
	})
	if err != nil {
		logger.Error("Failed to exchange code for token", zap.Error(err))
		return "", g.tokenExchangeError(err, "error_description")
	}
	token, err := g.accessTokenFrom(body, "error_description")
	if err != nil {
		logger.Error("Token response missing access token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (g *googleProvider) UserInfo(ctx context.Context, token AccessToken) (*User, error) {
	logger := g.log(ctx, "login")

	var googleUser GoogleUserInfo
	err := g.getJSON(ctx, apiRequest{
		method: http.MethodGet,
		url:    googleUserInfoURL,
		header: bearer(token),
	}, &googleUser)
	if err != nil {
		logger.Error("Failed to get Google user info", zap.Error(err))
		return nil, g.userInfoError(err, "error_description", "error.message")
	}
	if googleUser.ID == "" {
		logger.Error("Google user info response has no id")
		return nil, g.userInfoError(errMissingUserID)
	}

	user := &User{
		ID:       googleUser.ID,
		Name:     googleUser.Name,
		Email:    googleUser.Email,
		Picture:  googleUser.Picture,
		Provider: Google,
	}

	logger.Info("Google login successful", zap.String("google_id", user.ID), zap.String("email", user.Email))
	return user, nil
}
