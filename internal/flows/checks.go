package flows

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/utils"
)

var networkParams = map[entities.Network]*chaincfg.Params{
	entities.NetworkBitcoin: &chaincfg.MainNetParams,
	entities.NetworkTestnet: &chaincfg.TestNet3Params,
	entities.NetworkSignet:  &chaincfg.SigNetParams,
	entities.NetworkRegtest: &chaincfg.RegressionNetParams,
}

// checkAddress rejects addresses that do not decode for the account's network.
func checkAddress(address string, network entities.Network) error {
	params, ok := networkParams[network]
	if !ok {
		return fmt.Errorf("unsupported network %q", network)
	}
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil || !decoded.IsForNet(params) {
		return &ValidationError{Field: "address", Message: fmt.Sprintf("Invalid %s address", network)}
	}
	return nil
}

func checkMinimum(amount, minimum int64) error {
	if amount < minimum {
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("Amount must be greater than or equal to %s", utils.FormatSats(minimum))}
	}
	return nil
}

// checkBalance compares the amount plus fee against the cached balance of address.
func (f *flow) checkBalance(ctx context.Context, address string, amount, fee int64) error {
	balance, err := f.deps.Reader.Balance(ctx, address)
	if err != nil {
		return fmt.Errorf("reading balance of %s: %w", address, err)
	}
	if amount+fee > balance {
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("Balance is not enough, %s available for %s plus a %s fee", utils.FormatSats(balance), utils.FormatSats(amount), utils.FormatSats(fee))}
	}
	return nil
}

func (f *flow) account(ctx context.Context, deriv string) (entities.Account, error) {
	account, err := f.deps.Reader.Account(ctx, deriv)
	if err != nil {
		return entities.Account{}, fmt.Errorf("reading account %s: %w", deriv, err)
	}
	return account, nil
}

// checkStatecoin verifies that statechainID is in the cached statecoin list of deriv.
func (f *flow) checkStatecoin(ctx context.Context, deriv, statechainID string) (entities.StateCoin, error) {
	coins, err := f.deps.Reader.Statecoins(ctx, deriv)
	if err != nil {
		return entities.StateCoin{}, fmt.Errorf("reading statecoins of %s: %w", deriv, err)
	}
	for _, coin := range coins {
		if coin.StatechainID == statechainID {
			return coin, nil
		}
	}
	return entities.StateCoin{}, &ValidationError{Field: "statechainId", Message: "Statecoin not found for this account"}
}
