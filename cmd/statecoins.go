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

type statecoinsCmd struct{}

func (c *statecoinsCmd) Command() *cobra.Command {
	cfg := sessionConfig{}
	cfgOpts := cfg.options()

	cmd := &cobra.Command{
		Use:               "statecoins <account>/<sub-account>",
		Short:             "List the statecoins of an account and its statechain receive address",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := parseIdentityArg(args[0])
			if err != nil {
				return err
			}
			sess, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()
			return c.Run(cmd, sess.reader, identity)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *statecoinsCmd) Run(cmd *cobra.Command, reader *queries.Reader, identity entities.AccountIdentity) error {
	ctx := cmd.Context()
	deriv := derivation.Format(identity)

	address, err := reader.StatechainAddress(ctx, deriv)
	if err != nil {
		return fmt.Errorf("reading statechain address of %s: %w", deriv, err)
	}
	coins, err := reader.Statecoins(ctx, deriv)
	if err != nil {
		return fmt.Errorf("listing statecoins of %s: %w", deriv, err)
	}

	ids := make([]string, len(coins))
	for i, coin := range coins {
		ids[i] = coin.StatechainID
	}
	details, err := reader.StatecoinDetails(ctx, ids)
	if err != nil {
		return fmt.Errorf("reading statecoin details of %s: %w", deriv, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Receive address: %s\n", address)
	return printStatecoins(cmd.OutOrStdout(), identity, details)
}

func printStatecoins(out io.Writer, identity entities.AccountIdentity, details []entities.StatecoinDetail) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATECHAIN ID\tAMOUNT\tTX N\tLOCKTIME\tBACKUP TXID\tROUTE")
	for _, detail := range details {
		backup := detail.BackupTxid
		if backup == "" {
			backup = "-"
		}
		route := derivation.Route{Identity: identity, Screen: derivation.ScreenStatecoin, StatechainID: detail.StatechainID}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			detail.StatechainID,
			internalutils.FormatSats(detail.Amount),
			detail.TxN,
			detail.NLockTime,
			backup,
			route.String(),
		)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing statecoins: %w", err)
	}
	return nil
}
