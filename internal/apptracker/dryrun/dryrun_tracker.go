package dryrun

import (
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/apptracker"
)

// DryRunTracker logs instead of reporting. Used when no tracker DSN is configured.
type DryRunTracker struct{}

var _ apptracker.AppTracker = (*DryRunTracker)(nil)

func (d *DryRunTracker) CaptureMessage(message string) {
	log.Warnf("[tracker] %s", message)
}

func (d *DryRunTracker) CaptureException(exception error) {
	log.Errorf("[tracker] %v", exception)
}
