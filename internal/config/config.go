// Package config loads provider credentials and runtime settings from a YAML
// file, a dotenv file and UNIOAUTH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unioauth/unioauth/pkg/auth"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "UNIOAUTH_"

// Config is the resolved configuration.
type Config struct {
	Log         LogConfig        `yaml:"log" envPrefix:"LOG_"`
	HTTPTimeout time.Duration    `yaml:"http_timeout" env:"HTTP_TIMEOUT"`
	Providers   auth.OAuthConfig `yaml:"providers" env:"-"`
}

// LogConfig selects the zap logger built by internal/logging.
type LogConfig struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

// providerEnv holds the raw credentials of one provider.
type providerEnv struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
}

func (p providerEnv) empty() bool {
	return p.ClientID == "" && p.ClientSecret == "" && p.RedirectURI == ""
}

// providersEnv holds raw env values for every supported provider.
type providersEnv struct {
	Google    providerEnv `envPrefix:"GOOGLE_"`
	GitHub    providerEnv `envPrefix:"GITHUB_"`
	Facebook  providerEnv `envPrefix:"FACEBOOK_"`
	LinkedIn  providerEnv `envPrefix:"LINKEDIN_"`
	Twitter   providerEnv `envPrefix:"TWITTER_"`
	Instagram providerEnv `envPrefix:"INSTAGRAM_"`
	Reddit    providerEnv `envPrefix:"REDDIT_"`
}

func (p providersEnv) byName() map[auth.ProviderName]providerEnv {
	return map[auth.ProviderName]providerEnv{
		auth.Google:    p.Google,
		auth.GitHub:    p.GitHub,
		auth.Facebook:  p.Facebook,
		auth.LinkedIn:  p.LinkedIn,
		auth.Twitter:   p.Twitter,
		auth.Instagram: p.Instagram,
		auth.Reddit:    p.Reddit,
	}
}

// Default returns the configuration used when no file or variable is set.
func Default() *Config {
	return &Config{
		Log:         LogConfig{Level: "info"},
		HTTPTimeout: auth.DefaultHTTPTimeout,
		Providers:   auth.OAuthConfig{},
	}
}

// Load reads path (optional, may be empty) and then applies environment
// overrides. Environment values win over file values field by field.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if cfg.Providers == nil {
			cfg.Providers = auth.OAuthConfig{}
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	var raw providersEnv
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyProviderEnv(cfg.Providers, raw)

	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("http_timeout must be positive")
	}
	return cfg, nil
}

// applyProviderEnv overlays non-empty env credentials onto providers. The
// file key is reused when it already names the provider in another case.
func applyProviderEnv(providers auth.OAuthConfig, raw providersEnv) {
	for name, e := range raw.byName() {
		if e.empty() {
			continue
		}
		key := string(name)
		for k := range providers {
			if strings.EqualFold(k, key) {
				key = k
				break
			}
		}
		pc := providers[key]
		if e.ClientID != "" {
			pc.ClientID = e.ClientID
		}
		if e.ClientSecret != "" {
			pc.ClientSecret = e.ClientSecret
		}
		if e.RedirectURI != "" {
			pc.RedirectURI = e.RedirectURI
		}
		providers[key] = pc
	}
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
