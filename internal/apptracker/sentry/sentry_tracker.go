package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/statewallet/wallet-session/internal/apptracker"
)

// We need these variables to be able to mock sentry.CaptureMessage and sentry.CaptureException in tests since
// package level functions cannot be mocked
var (
	captureMessageFunc   = sentry.CaptureMessage
	captureExceptionFunc = sentry.CaptureException
	InitFunc             = sentry.Init
	FlushFunc            = sentry.Flush
	RecoverFunc          = sentry.Recover
)

type sentryTracker struct {
	flushTimeout time.Duration
}

var _ apptracker.AppTracker = (*sentryTracker)(nil)

func (s *sentryTracker) CaptureMessage(message string) {
	captureMessageFunc(message)
}

func (s *sentryTracker) CaptureException(exception error) {
	captureExceptionFunc(exception)
}

// Flush waits for buffered events to be delivered. Call it before the process exits.
func (s *sentryTracker) Flush() bool {
	return FlushFunc(s.flushTimeout)
}

func NewSentryTracker(dsn string, env string, flushFreq int) (*sentryTracker, error) {
	if err := InitFunc(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		ServerName:  "wallet-session",
	}); err != nil {
		return nil, fmt.Errorf("unable to initialize sentry: %w", err)
	}
	defer RecoverFunc()
	return &sentryTracker{flushTimeout: time.Second * time.Duration(flushFreq)}, nil
}
