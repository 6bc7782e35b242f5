package auth

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

// OAuthConfig maps provider names (case-insensitive) to their credentials.
type OAuthConfig map[string]ProviderConfig

// OAuthHandler routes authorization and sign-in requests to the configured
// providers. The registry is built once and never mutated, so a single handler
// can serve any number of concurrent flows.
type OAuthHandler struct {
	providers   map[ProviderName]Provider // registered providers, read-only after construction
	order       []ProviderName            // registration order, canonical
	logger      *zap.Logger               // Shared logger instance.
	logEnricher LogEnricher               // Function to enrich logs with trace ID.
}

// Option configures an OAuthHandler.
type Option func(*handlerOptions)

type handlerOptions struct {
	client *http.Client
}

// WithHTTPClient sets the client used for every outbound call. The default
// client has a DefaultHTTPTimeout timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *handlerOptions) {
		if c != nil {
			o.client = c
		}
	}
}

// providerDeps is what the handler hands to each provider constructor.
type providerDeps struct {
	client      *http.Client
	logger      *zap.Logger
	logEnricher LogEnricher
}

// NewOAuthHandler creates and initializes a new OAuthHandler instance.
// Construction is all-or-nothing: an unknown provider name or incomplete
// credentials for any entry fails the whole call with a configuration error.
func NewOAuthHandler(
	logger *zap.Logger,
	logEnricher LogEnricher,
	config OAuthConfig,
	opts ...Option,
) (*OAuthHandler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if logEnricher == nil {
		logEnricher = passthroughEnricher
	}
	options := handlerOptions{client: &http.Client{Timeout: DefaultHTTPTimeout}}
	for _, opt := range opts {
		opt(&options)
	}

	h := &OAuthHandler{
		providers:   make(map[ProviderName]Provider, len(config)),
		logger:      logger.Named("oauth"),
		logEnricher: logEnricher,
	}
	deps := providerDeps{
		client:      options.client,
		logger:      h.logger,
		logEnricher: logEnricher,
	}
	if err := h.registerOAuthProviders(context.Background(), config, deps); err != nil {
		return nil, err
	}
	return h, nil
}

// registerOAuthProviders resolves every configured name and constructs its
// provider. The first failure aborts registration.
func (h *OAuthHandler) registerOAuthProviders(ctx context.Context, config OAuthConfig, deps providerDeps) error {
	logger := h.logEnricher(ctx, h.logger).Named("registration")

	// Sorted keys keep registration logs and error reporting deterministic.
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name, err := ParseProviderName(key)
		if err != nil {
			logger.Error("Unsupported OAuth provider", zap.String("provider", key))
			return newError(KindConfiguration, "",
				fmt.Sprintf("Failed to initialize %s provider: %s", key, err.Error()), err)
		}
		if _, dup := h.providers[name]; dup {
			logger.Error("Duplicate OAuth provider", zap.String("provider", key))
			return newError(KindConfiguration, name, fmt.Sprintf("Provider %s configured more than once", name), nil)
		}

		p, err := newProvider(name, config[key], deps)
		if err != nil {
			logger.Error("Failed to register OAuth provider", zap.String("provider", string(name)), zap.Error(err))
			return newError(KindConfiguration, name,
				fmt.Sprintf("Failed to initialize %s provider: %s", key, err.Error()), err)
		}
		h.providers[name] = p
		logger.Info("OAuth provider registered", zap.String("provider", string(name)))
	}

	for _, name := range SupportedProviders() {
		if _, ok := h.providers[name]; ok {
			h.order = append(h.order, name)
		}
	}
	logger.Info("OAuth handler ready", zap.Int("providers", len(h.order)))
	return nil
}

// newProvider is the single construction point for the closed provider set.
func newProvider(name ProviderName, cfg ProviderConfig, deps providerDeps) (Provider, error) {
	switch name {
	case Google:
		return newGoogleProvider(cfg, deps)
	case GitHub:
		return newGitHubProvider(cfg, deps)
	case Facebook:
		return newFacebookProvider(cfg, deps)
	case LinkedIn:
		return newLinkedInProvider(cfg, deps)
	case Twitter:
		return newTwitterProvider(cfg, deps)
	case Instagram:
		return newInstagramProvider(cfg, deps)
	case Reddit:
		return newRedditProvider(cfg, deps)
	default:
		return nil, newError(KindConfiguration, "", "Unsupported provider: "+string(name), nil)
	}
}

// Provider returns the registered provider for name.
func (h *OAuthHandler) Provider(name string) (Provider, error) {
	key, err := ParseProviderName(name)
	if err != nil {
		return nil, newError(KindConfiguration, ProviderName(name), fmt.Sprintf("Provider %s not configured", name), nil)
	}
	p, ok := h.providers[key]
	if !ok {
		return nil, newError(KindConfiguration, key, fmt.Sprintf("Provider %s not configured", name), nil)
	}
	return p, nil
}

// AuthURL returns the authorization URL for the named provider, unmodified.
func (h *OAuthHandler) AuthURL(ctx context.Context, provider string, opts ...AuthOption) (string, error) {
	logger := h.logEnricher(ctx, h.logger).Named("auth_url")

	p, err := h.Provider(provider)
	if err != nil {
		logger.Error("Provider not configured", zap.String("provider", provider))
		return "", err
	}
	return p.AuthURL(opts...), nil
}

// SignIn exchanges code with the named provider and returns the normalized
// user. Token-exchange and user-info errors keep their kind; anything else,
// including a panic inside a provider, is reported as an OAuth flow error.
func (h *OAuthHandler) SignIn(ctx context.Context, provider string, code string, opts ...AuthOption) (user *User, err error) {
	logger := h.logEnricher(ctx, h.logger).Named("sign_in").With(zap.String("provider", provider))

	p, err := h.Provider(provider)
	if err != nil {
		logger.Error("Provider not configured")
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("OAuth flow panicked", zap.Any("panic", r))
			user, err = nil, flowError(p.Name(), fmt.Errorf("%v", r))
		}
	}()

	token, err := p.ExchangeCode(ctx, code, opts...)
	if err != nil {
		logger.Error("OAuth flow failed", zap.Error(err))
		return nil, classify(p.Name(), err)
	}

	user, err = p.UserInfo(ctx, token)
	if err != nil {
		logger.Error("OAuth flow failed", zap.Error(err))
		return nil, classify(p.Name(), err)
	}

	logger.Info("OAuth flow completed", zap.String("user_id", user.ID))
	return user, nil
}

// classify passes token-exchange and user-info errors through and wraps
// everything else.
func classify(provider ProviderName, err error) error {
	switch KindOf(err) {
	case KindTokenExchange, KindUserInfo:
		return err
	default:
		return flowError(provider, err)
	}
}

func flowError(provider ProviderName, err error) *Error {
	return newError(KindOAuth, provider, fmt.Sprintf("OAuth flow failed for %s: %s", provider, err.Error()), err)
}

// AvailableProviders returns the registered provider names in canonical order.
func (h *OAuthHandler) AvailableProviders() []ProviderName {
	out := make([]ProviderName, len(h.order))
	copy(out, h.order)
	return out
}

// Stop performs any cleanup needed for the OAuthHandler.
func (h *OAuthHandler) Stop() {
	// No pooled resources are owned; idle connections belong to the caller's client.
	h.logger.Info("OAuthHandler stopped.")
}
