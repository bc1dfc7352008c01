package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wallet-session",
	Short: "Wallet session tools for the statechain and CoinJoin wallet host",
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			log.Fatalf("Error calling help command: %s", err.Error())
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing root command: %s", err.Error())
	}
}

func init() {
	log.DefaultLogger = log.New()

	rootCmd.AddCommand((&accountsCmd{}).Command())
	rootCmd.AddCommand((&derivCmd{}).Command())
	rootCmd.AddCommand((&watchCmd{}).Command())
	rootCmd.AddCommand((&signinCmd{}).Command())
	rootCmd.AddCommand((&statecoinsCmd{}).Command())
	rootCmd.AddCommand((&txStatusCmd{}).Command())
	rootCmd.AddCommand((&flowCmds{}).Commands()...)
}
