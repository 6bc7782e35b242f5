package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newURLCmd(a *app) *cobra.Command {
	var secure bool

	c := &cobra.Command{
		Use:   "url <provider>",
		Short: "Print the authorization URL for a provider",
		Long: `Print the authorization URL for a provider.

With --secure a fresh random state (and a PKCE verifier for providers that
support it) replaces the fixed placeholders; the result is printed as JSON
so the state and verifier can be passed back to "signin".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !secure {
				u, err := a.handler.AuthURL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			}

			req, err := a.handler.NewAuthRequest(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(req)
		},
	}

	c.Flags().BoolVar(&secure, "secure", false, "Generate per-request state and PKCE verifier")
	return c
}
