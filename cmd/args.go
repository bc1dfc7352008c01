package cmd

import (
	"errors"
	"fmt"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
)

// parseIdentityArg accepts an identity in its canonical "<account>/<sub-account>" form or as a
// derivation token.
func parseIdentityArg(arg string) (entities.AccountIdentity, error) {
	identity, err := derivation.Parse(arg)
	if err == nil {
		return identity, nil
	}
	var formatErr *derivation.FormatError
	if !errors.As(err, &formatErr) {
		return entities.AccountIdentity{}, err
	}

	identity, tokenErr := derivation.ParseToken(arg)
	if tokenErr != nil {
		return entities.AccountIdentity{}, fmt.Errorf("%q is neither an account identity nor a derivation token", arg)
	}
	return identity, nil
}
