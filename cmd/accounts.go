package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/cmd/utils"
	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/queries"
	internalutils "github.com/statewallet/wallet-session/internal/utils"
)

type accountsCmd struct{}

func (c *accountsCmd) Command() *cobra.Command {
	cfg := sessionConfig{}
	cfgOpts := cfg.options()

	cmd := &cobra.Command{
		Use:               "accounts",
		Short:             "List the wallet accounts with their balances",
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()
			return c.Run(cmd, sess.reader)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *accountsCmd) Run(cmd *cobra.Command, reader *queries.Reader) error {
	ctx := cmd.Context()
	accounts, err := reader.Profiles(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	balances := make([]int64, len(accounts))
	for i, account := range accounts {
		if balances[i], err = reader.Balance(ctx, account.Address); err != nil {
			return fmt.Errorf("reading balance of %s: %w", account.Address, err)
		}
	}

	return printAccounts(cmd.OutOrStdout(), accounts, balances)
}

func printAccounts(out io.Writer, accounts []entities.Account, balances []int64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DERIV\tADDRESS\tTYPE\tNETWORK\tBALANCE\tBTC\tROUTE")
	for i, account := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			derivation.Format(account.AccountIdentity),
			account.Address,
			account.AddressType,
			account.Network,
			internalutils.FormatSats(balances[i]),
			internalutils.SatsToBtc(balances[i]),
			derivation.ProfileRoute(account.AccountIdentity, derivation.TabNone),
		)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
