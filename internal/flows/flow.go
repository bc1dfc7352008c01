package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/apptracker"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/metrics"
	"github.com/statewallet/wallet-session/internal/queries"
	"github.com/statewallet/wallet-session/internal/validators"
)

// Deps are the collaborators shared by every flow.
type Deps struct {
	Gateway        *gateway.Gateway
	Reader         *queries.Reader
	AppTracker     apptracker.AppTracker
	MetricsService metrics.MetricsService
	Fees           FeeSchedule
}

func (d Deps) Validate() error {
	if d.Gateway == nil {
		return errors.New("gateway cannot be nil")
	}
	if d.Reader == nil {
		return errors.New("reader cannot be nil")
	}
	if d.AppTracker == nil {
		return errors.New("app tracker cannot be nil")
	}
	if d.MetricsService == nil {
		return errors.New("metrics service cannot be nil")
	}
	if err := d.Fees.Validate(); err != nil {
		return fmt.Errorf("validating fees: %w", err)
	}
	return nil
}

// flow holds the state every form-backed flow shares: the in-flight guard, the last submission
// error and the reset hooks run after a successful submission.
type flow struct {
	name      string
	deps      Deps
	validate  *validator.Validate
	guard     Guard
	mu        sync.Mutex
	lastErr   *SubmitError
	resetHook []func()
}

func newFlow(name string, deps Deps) (*flow, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s flow deps: %w", name, err)
	}
	return &flow{name: name, deps: deps, validate: validators.NewValidator()}, nil
}

// OnReset registers fn to run after every successful submission, typically to clear the inputs.
func (f *flow) OnReset(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetHook = append(f.resetHook, fn)
}

// Err is the error of the last failed submission until it is dismissed or a submission succeeds.
func (f *flow) Err() *SubmitError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *flow) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = nil
}

func (f *flow) InFlight() bool {
	return f.guard.InFlight()
}

// submission describes one run of a flow. check runs the pre-flight validation and may read
// cached data; call is the only step that mutates the host; invalidate runs after call succeeds.
type submission[T any] struct {
	check      func(ctx context.Context) error
	call       func(ctx context.Context) (T, error)
	invalidate func()
}

// submit runs s under f's guard. Every failure, including a panic, is returned as a
// *SubmitError, except the rejection of a concurrent submission which returns
// ErrSubmissionInFlight and leaves the flow state untouched.
func submit[T any](ctx context.Context, f *flow, s submission[T]) (result T, err error) {
	if !f.guard.TryAcquire() {
		f.deps.MetricsService.IncFlowSubmissions(f.name, outcome(ErrSubmissionInFlight))
		return result, ErrSubmissionInFlight
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s flow panicked: %v", f.name, r)
			f.deps.AppTracker.CaptureException(err)
		}
		f.deps.MetricsService.ObserveFlowDuration(f.name, time.Since(start).Seconds())
		f.deps.MetricsService.IncFlowSubmissions(f.name, outcome(err))
		if err != nil {
			var zero T
			result = zero
			err = f.fail(err)
		}
		f.guard.Release()
	}()

	if s.check != nil {
		if err = s.check(ctx); err != nil {
			return result, err
		}
	}

	result, err = s.call(ctx)
	if err != nil {
		log.Ctx(ctx).Errorf("%s flow submission failed: %v", f.name, err)
		f.deps.AppTracker.CaptureException(fmt.Errorf("%s flow: %w", f.name, err))
		return result, err
	}

	if s.invalidate != nil {
		s.invalidate()
	}
	f.succeed()
	return result, nil
}

func (f *flow) fail(err error) *SubmitError {
	submitErr := newSubmitError(err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = submitErr
	return submitErr
}

func (f *flow) succeed() {
	f.mu.Lock()
	f.lastErr = nil
	hooks := append([]func(){}, f.resetHook...)
	f.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}
