package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/queries"
)

const verifyFlowName = "verify_transfer"

// VerificationResult is the host's reply to a successful transfer verification.
type VerificationResult struct {
	Message string
}

// TransferVerificationFlow verifies inbound statecoin transfers. Verifying the same transfer is
// never assumed to be a no-op: every call reaches the host, and a transfer already being
// verified is rejected with ErrSubmissionInFlight.
type TransferVerificationFlow struct {
	deps     Deps
	inFlight *KeyedGuard
}

func NewTransferVerificationFlow(deps Deps) (*TransferVerificationFlow, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s flow deps: %w", verifyFlowName, err)
	}
	return &TransferVerificationFlow{deps: deps, inFlight: NewKeyedGuard()}, nil
}

// InFlight reports whether the transfer identified by transferMessage is being verified.
func (v *TransferVerificationFlow) InFlight(transferMessage string) bool {
	return v.inFlight.InFlight(transferMessage)
}

// Verify verifies the transfer for identity. On success the transfer and statecoin lists of the
// account are invalidated. A host failure is returned as *RemoteVerificationError and leaves
// the cache untouched so the pending transfer stays listed.
func (v *TransferVerificationFlow) Verify(ctx context.Context, identity entities.AccountIdentity, transferMessage, authKey string) (result VerificationResult, err error) {
	if transferMessage == "" {
		return VerificationResult{}, &ValidationError{Field: "transferMessage", Message: "This field is required"}
	}
	if authKey == "" {
		return VerificationResult{}, &ValidationError{Field: "authKey", Message: "This field is required"}
	}
	if !v.inFlight.TryAcquire(transferMessage) {
		v.deps.MetricsService.IncFlowSubmissions(verifyFlowName, outcome(ErrSubmissionInFlight))
		return VerificationResult{}, ErrSubmissionInFlight
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &RemoteVerificationError{Err: fmt.Errorf("verification panicked: %v", r)}
			v.deps.AppTracker.CaptureException(err)
		}
		v.deps.MetricsService.ObserveFlowDuration(verifyFlowName, time.Since(start).Seconds())
		v.deps.MetricsService.IncFlowSubmissions(verifyFlowName, outcome(err))
		v.inFlight.Release(transferMessage)
	}()

	deriv := derivation.Format(identity)
	message, err := v.deps.Gateway.Statechain().VerifyTransfer(ctx, deriv, transferMessage, authKey)
	if err != nil {
		log.Ctx(ctx).Errorf("verifying transfer for %s: %v", deriv, err)
		if !errors.Is(err, context.Canceled) {
			v.deps.AppTracker.CaptureException(fmt.Errorf("verifying transfer for %s: %w", deriv, err))
		}
		return VerificationResult{}, &RemoteVerificationError{Err: err}
	}

	cache := v.deps.Reader.Cache()
	cache.Invalidate(queries.TransfersKey(deriv))
	cache.Invalidate(queries.StatecoinsKey(deriv))
	return VerificationResult{Message: message}, nil
}
