package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/cmd/utils"
	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/flows"
	internalutils "github.com/statewallet/wallet-session/internal/utils"
)

// flowCmds are the mutation commands. Each one runs a single flow submission against the host.
type flowCmds struct{}

type flowsConfig struct {
	sessionConfig
	Fees flows.FeeSchedule
}

// withFlowDeps registers the flow options on cmd and calls run with the flow dependencies.
func withFlowDeps(cmd *cobra.Command, run func(cmd *cobra.Command, args []string, deps flows.Deps) error) *cobra.Command {
	cfg := flowsConfig{}
	cfgOpts := cfg.options()
	cfgOpts = append(cfgOpts, utils.FeeScheduleOption(&cfg.Fees))

	cmd.PersistentPreRunE = utils.DefaultPersistentPreRunE(cfgOpts)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cfg.sessionConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		return run(cmd, args, flows.Deps{
			Gateway:        sess.gateway,
			Reader:         sess.reader,
			AppTracker:     sess.appTracker,
			MetricsService: sess.metricsService,
			Fees:           cfg.Fees,
		})
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}
	return cmd
}

func (c *flowCmds) Commands() []*cobra.Command {
	return []*cobra.Command{c.deposit(), c.send(), c.sendStatecoin(), c.verify(), c.withdraw()}
}

func (c *flowCmds) deposit() *cobra.Command {
	return withFlowDeps(&cobra.Command{
		Use:   "deposit <account>/<sub-account> <amount-btc>",
		Short: "Deposit on-chain funds into a new statecoin",
		Args:  cobra.ExactArgs(2),
	}, func(cmd *cobra.Command, args []string, deps flows.Deps) error {
		identity, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		amount, err := internalutils.ConvertBtcToSats(args[1])
		if err != nil {
			return fmt.Errorf("parsing amount: %w", err)
		}

		flow, err := flows.NewDepositFlow(deps)
		if err != nil {
			return err
		}
		res, err := flow.Submit(cmd.Context(), flows.DepositParams{Identity: identity, Amount: amount})
		if err != nil {
			return fmt.Errorf("depositing %s: %w", internalutils.FormatSats(amount), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Send %s plus a %s fee to %s\n", internalutils.FormatSats(amount), internalutils.FormatSats(deps.Fees.StatecoinFee), res.AggregatedAddress)
		return nil
	})
}

func (c *flowCmds) send() *cobra.Command {
	var coinjoin bool
	cmd := withFlowDeps(&cobra.Command{
		Use:   "send <account>/<sub-account> <address> <amount-btc>",
		Short: "Send bitcoin from an account, directly or through a CoinJoin room",
		Args:  cobra.ExactArgs(3),
	}, func(cmd *cobra.Command, args []string, deps flows.Deps) error {
		identity, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		amount, err := internalutils.ConvertBtcToSats(args[2])
		if err != nil {
			return fmt.Errorf("parsing amount: %w", err)
		}
		strategy := flows.SendStrategyBase
		if coinjoin {
			strategy = flows.SendStrategyCoinJoin
		}

		flow, err := flows.NewSendFlow(deps)
		if err != nil {
			return err
		}
		res, err := flow.Submit(cmd.Context(), flows.SendParams{Identity: identity, Address: args[1], Amount: amount, Strategy: strategy})
		if err != nil {
			return fmt.Errorf("sending %s: %w", internalutils.FormatSats(amount), err)
		}
		if res.Registration != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Registered in room %s\n", res.Registration.Room)
			return nil
		}
		if res.Strategy == flows.SendStrategyCoinJoin {
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s for %s in a CoinJoin room\n", internalutils.FormatSats(amount), args[1])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s\n", internalutils.FormatSats(amount), args[1])
		return nil
	})
	cmd.Flags().BoolVar(&coinjoin, "coinjoin", false, "Register the output in a CoinJoin room instead of broadcasting a plain transaction")
	return cmd
}

func (c *flowCmds) sendStatecoin() *cobra.Command {
	return withFlowDeps(&cobra.Command{
		Use:   "send-statecoin <account>/<sub-account> <statechain-address> <statechain-id>",
		Short: "Transfer a statecoin and print the transfer message for the receiver",
		Args:  cobra.ExactArgs(3),
	}, func(cmd *cobra.Command, args []string, deps flows.Deps) error {
		identity, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		flow, err := flows.NewSendStatecoinFlow(deps)
		if err != nil {
			return err
		}
		msg, err := flow.Submit(cmd.Context(), flows.SendStatecoinParams{Identity: identity, Address: args[1], StatechainID: args[2]})
		if err != nil {
			return fmt.Errorf("sending statecoin %s: %w", args[2], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	})
}

func (c *flowCmds) verify() *cobra.Command {
	return withFlowDeps(&cobra.Command{
		Use:   "verify <account>/<sub-account>",
		Short: "Verify every pending inbound statecoin transfer of an account",
		Args:  cobra.ExactArgs(1),
	}, func(cmd *cobra.Command, args []string, deps flows.Deps) error {
		identity, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		transfers, err := deps.Reader.Transfers(ctx, derivation.Format(identity))
		if err != nil {
			return fmt.Errorf("listing transfers: %w", err)
		}

		flow, err := flows.NewTransferVerificationFlow(deps)
		if err != nil {
			return err
		}
		failed := 0
		for _, transfer := range transfers {
			res, verifyErr := flow.Verify(ctx, identity, transfer.TransferMessage, transfer.AuthKey)
			if verifyErr != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "verification failed: %v\n", verifyErr)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified: %s\n", res.Message)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d transfer(s) failed verification", failed, len(transfers))
		}
		return nil
	})
}

func (c *flowCmds) withdraw() *cobra.Command {
	return withFlowDeps(&cobra.Command{
		Use:   "withdraw <account>/<sub-account> <statechain-id>",
		Short: "Withdraw a statecoin back to the account's on-chain address",
		Args:  cobra.ExactArgs(2),
	}, func(cmd *cobra.Command, args []string, deps flows.Deps) error {
		identity, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		flow, err := flows.NewWithdrawFlow(deps)
		if err != nil {
			return err
		}
		res, err := flow.Submit(cmd.Context(), identity, args[1])
		if err != nil {
			return fmt.Errorf("withdrawing statecoin %s: %w", args[1], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Withdrawal broadcast: %s\n", res.Txid)
		return nil
	})
}
