package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/cmd/utils"
)

type txStatusCmd struct{}

func (c *txStatusCmd) Command() *cobra.Command {
	cfg := sessionConfig{}
	cfgOpts := cfg.options()

	cmd := &cobra.Command{
		Use:               "tx-status <txid>",
		Short:             "Report whether a transaction is confirmed",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			confirmed, err := sess.gateway.App().TxConfirmed(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading status of %s: %w", args[0], err)
			}
			if confirmed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: confirmed\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: unconfirmed\n", args[0])
			}
			return nil
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
