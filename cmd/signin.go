package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/cmd/utils"
	"github.com/statewallet/wallet-session/internal/appstate"
)

type signinCmd struct{}

func (c *signinCmd) Command() *cobra.Command {
	cfg := sessionConfig{}
	cfgOpts := cfg.options()
	var createMaster bool

	cmd := &cobra.Command{
		Use:               "signin",
		Short:             "Sign in to the wallet, setting a password first on a brand new wallet",
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			store, err := appstate.NewStore(sess.gateway)
			if err != nil {
				return fmt.Errorf("creating app state store: %w", err)
			}
			defer store.Teardown()

			prompter, err := utils.NewPasswordPrompter("Wallet password:", os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("creating password prompter: %w", err)
			}
			return c.Run(cmd, store, prompter, createMaster)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}
	cmd.Flags().BoolVar(&createMaster, "create-master", false, "Create the master account after signing in if the wallet has none yet")

	return cmd
}

func (c *signinCmd) Run(cmd *cobra.Command, store *appstate.Store, prompter utils.PasswordPrompter, createMaster bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initializing app state: %w", err)
	}

	if !store.State().PasswordSet {
		password, err := prompter.RunConfirmed()
		if err != nil {
			return fmt.Errorf("reading new password: %w", err)
		}
		if err = store.SignUp(ctx, password); err != nil {
			return fmt.Errorf("setting wallet password: %w", err)
		}
		fmt.Fprintln(out, "Password set, signed in.")
	} else {
		password, err := prompter.Run()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		ok, err := store.SignIn(ctx, password)
		if err != nil {
			return fmt.Errorf("signing in: %w", err)
		}
		if !ok {
			return fmt.Errorf("wrong password")
		}
		fmt.Fprintln(out, "Signed in.")
	}

	if !createMaster || store.State().WalletCreated {
		return nil
	}
	words, err := store.CreateMaster(ctx)
	if err != nil {
		return fmt.Errorf("creating master account: %w", err)
	}
	fmt.Fprintln(out, "Write down your seed phrase:")
	fmt.Fprintln(out, strings.Join(words, " "))
	return store.ClearSeedPhrase()
}
