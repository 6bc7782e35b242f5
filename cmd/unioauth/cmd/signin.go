package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unioauth/unioauth/pkg/auth"
)

func newSignInCmd(a *app) *cobra.Command {
	var (
		verifier string
		timeout  time.Duration
	)

	c := &cobra.Command{
		Use:   "signin <provider> <code>",
		Short: "Exchange an authorization code and print the user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			var opts []auth.AuthOption
			if verifier != "" {
				opts = append(opts, auth.WithPKCE(verifier))
			}

			user, err := a.handler.SignIn(ctx, args[0], args[1], opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", auth.KindOf(err), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(user)
		},
	}

	c.Flags().StringVar(&verifier, "verifier", "", "PKCE code verifier printed by \"url --secure\"")
	c.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for the whole sign-in")
	return c
}
