package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.handler.AvailableProviders()
			if len(names) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No providers configured")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
