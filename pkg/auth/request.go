package auth

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// AuthRequest is a single authorization attempt with per-request CSRF state
// and, where the provider supports it, a PKCE verifier. The caller must keep
// State and CodeVerifier (e.g. in the session) and check State on callback.
type AuthRequest struct {
	Provider     ProviderName `json:"provider"`
	URL          string       `json:"url"`
	State        string       `json:"state"`
	CodeVerifier string       `json:"code_verifier,omitempty"`
}

// Options returns the AuthOptions to pass to SignIn for this request.
func (r *AuthRequest) Options() []AuthOption {
	opts := []AuthOption{WithState(r.State)}
	if r.CodeVerifier != "" {
		opts = append(opts, WithPKCE(r.CodeVerifier))
	}
	return opts
}

// supportsPKCE lists providers whose token endpoint validates code_verifier.
func supportsPKCE(name ProviderName) bool {
	return name == Twitter
}

// NewAuthRequest builds an authorization URL with a random state and, for
// PKCE providers, a fresh S256 verifier, replacing the static placeholders.
func (h *OAuthHandler) NewAuthRequest(ctx context.Context, provider string) (*AuthRequest, error) {
	logger := h.logEnricher(ctx, h.logger).Named("auth_request")

	p, err := h.Provider(provider)
	if err != nil {
		logger.Error("Provider not configured", zap.String("provider", provider))
		return nil, err
	}

	req := &AuthRequest{
		Provider: p.Name(),
		State:    uuid.NewString(),
	}
	if supportsPKCE(p.Name()) {
		req.CodeVerifier = oauth2.GenerateVerifier()
	}
	req.URL = p.AuthURL(req.Options()...)

	logger.Debug("Authorization request created",
		zap.String("provider", string(req.Provider)),
		zap.Bool("pkce", req.CodeVerifier != ""))
	return req, nil
}
