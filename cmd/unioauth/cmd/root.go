package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unioauth/unioauth/internal/config"
	"github.com/unioauth/unioauth/internal/logging"
	"github.com/unioauth/unioauth/pkg/auth"
)

var version = "dev" // Set by build

// app holds what every subcommand shares once flags are parsed.
type app struct {
	cfgFile   string             // --config flag.
	envFile   string             // --env-file flag.
	transport http.RoundTripper  // Outbound transport; nil uses http.DefaultTransport.
	cfg       *config.Config     // Loaded configuration.
	logger    *zap.Logger        // Root logger built from cfg.Log.
	handler   *auth.OAuthHandler // Dispatcher over the configured providers.
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the unioauth command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "unioauth",
		Short: "unioauth - one login flow for seven OAuth2 providers",
		Long: `unioauth drives the OAuth2 authorization-code flow against Google, GitHub,
Facebook, LinkedIn, Twitter, Instagram and Reddit and prints the
normalized user profile.

Credentials come from a YAML file (--config), a dotenv file (--env-file)
and UNIOAUTH_<PROVIDER>_CLIENT_ID / _CLIENT_SECRET / _REDIRECT_URI
variables, in increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to dotenv file (ignored when missing)")

	root.AddCommand(
		newProvidersCmd(a),
		newURLCmd(a),
		newSignInCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout, Transport: a.transport}
	handler, err := auth.NewOAuthHandler(logger, nil, cfg.Providers, auth.WithHTTPClient(client))
	if err != nil {
		_ = logger.Sync()
		return err
	}

	a.cfg, a.logger, a.handler = cfg, logger, handler
	return nil
}

func (a *app) close() {
	if a.handler != nil {
		a.handler.Stop()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
