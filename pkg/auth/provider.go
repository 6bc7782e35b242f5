package auth

import (
	"context"
	"strings"
)

// Provider defines the common interface implemented by all OAuth providers.
// Implementations are immutable once constructed and safe for concurrent use.
type Provider interface {
	// Name returns the registry key of the provider.
	Name() ProviderName
	// AuthURL builds the provider-specific authorization URL. It performs no I/O.
	AuthURL(opts ...AuthOption) string
	// ExchangeCode trades an authorization code for an access token.
	ExchangeCode(ctx context.Context, code string, opts ...AuthOption) (AccessToken, error)
	// UserInfo fetches the profile behind token and normalizes it into a User.
	UserInfo(ctx context.Context, token AccessToken) (*User, error)
}

// ProviderName identifies one of the supported identity providers.
type ProviderName string

const (
	Google    ProviderName = "google"
	GitHub    ProviderName = "github"
	Facebook  ProviderName = "facebook"
	LinkedIn  ProviderName = "linkedin"
	Twitter   ProviderName = "twitter"
	Instagram ProviderName = "instagram"
	Reddit    ProviderName = "reddit"
)

// SupportedProviders lists every provider this package can construct, in
// canonical order.
func SupportedProviders() []ProviderName {
	return []ProviderName{Google, GitHub, Facebook, LinkedIn, Twitter, Instagram, Reddit}
}

// ParseProviderName resolves s case-insensitively against the supported set.
func ParseProviderName(s string) (ProviderName, error) {
	name := ProviderName(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range SupportedProviders() {
		if p == name {
			return p, nil
		}
	}
	return "", newError(KindConfiguration, "", "Unsupported provider: "+s, nil)
}

// ProviderConfig holds the client credentials for one provider.
// All fields are required.
type ProviderConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri" json:"redirect_uri"`
}

// Validate reports a configuration error when any credential is missing.
func (c ProviderConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return newError(KindConfiguration, "", "clientId, clientSecret, and redirectUri are required", nil)
	}
	return nil
}

// AccessToken is the opaque bearer credential returned by a token endpoint.
// It is never stored; it only travels from ExchangeCode to UserInfo.
type AccessToken string

// String hides the token value from logs and fmt output.
func (t AccessToken) String() string {
	if t == "" {
		return ""
	}
	return "[redacted]"
}

// User represents a standardized user profile obtained after successful OAuth authentication.
// Every field is always populated; unavailable values are empty strings.
type User struct {
	ID       string       `json:"id"`       // Provider-scoped user ID.
	Name     string       `json:"name"`     // Display name (or login when none is set).
	Email    string       `json:"email"`    // Email address, empty when the provider does not expose one.
	Picture  string       `json:"picture"`  // Avatar URL, empty when unavailable.
	Provider ProviderName `json:"provider"` // Provider that authenticated the user.
}

// AuthOption customizes a single authorization request or code exchange.
type AuthOption func(*authParams)

type authParams struct {
	state    string
	verifier string
}

// WithState sets the state parameter sent to the authorization endpoint.
func WithState(state string) AuthOption {
	return func(p *authParams) {
		p.state = state
	}
}

// WithPKCE supplies a PKCE code verifier. On AuthURL it produces an S256
// challenge; on ExchangeCode it is sent as code_verifier. Providers without
// PKCE support ignore it.
func WithPKCE(verifier string) AuthOption {
	return func(p *authParams) {
		p.verifier = verifier
	}
}

func collectAuthParams(opts []AuthOption) authParams {
	var p authParams
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}
