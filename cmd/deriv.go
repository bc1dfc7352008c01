package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statewallet/wallet-session/internal/derivation"
)

// derivCmd converts between account identities, derivation tokens and profile routes. It never
// talks to the wallet host.
type derivCmd struct{}

func (c *derivCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deriv",
		Short: "Encode and decode account derivation tokens and routes",
	}

	var tab string
	encodeCmd := &cobra.Command{
		Use:   "encode <account>/<sub-account>",
		Short: "Print the token and profile route of an account identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := derivation.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing identity: %w", err)
			}
			t := derivation.Tab(tab)
			if !t.IsValid() {
				return fmt.Errorf("unknown tab %q", tab)
			}
			fmt.Fprintln(cmd.OutOrStdout(), derivation.EncodeIdentity(identity))
			fmt.Fprintln(cmd.OutOrStdout(), derivation.ProfileRoute(identity, t))
			return nil
		},
	}
	encodeCmd.Flags().StringVar(&tab, "tab", "", "Profile tab of the route. Options: STATECHAIN, UTXO, COINJOIN")

	decodeCmd := &cobra.Command{
		Use:   "decode <token|route>",
		Short: "Print the account identity of a derivation token or profile route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := derivation.ParseRoute(args[0])
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), derivation.Format(route.Identity))
				if route.Screen != derivation.ScreenProfile {
					fmt.Fprintf(cmd.OutOrStdout(), "screen=%s\n", route.Screen)
				}
				if route.StatechainID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "statechain_id=%s\n", route.StatechainID)
				}
				if route.Tab != derivation.TabNone {
					fmt.Fprintf(cmd.OutOrStdout(), "tab=%s\n", route.Tab)
				}
				return nil
			}

			identity, err := derivation.ParseToken(args[0])
			if err != nil {
				return fmt.Errorf("decoding %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), derivation.Format(identity))
			return nil
		},
	}

	cmd.AddCommand(encodeCmd, decodeCmd)
	return cmd
}
