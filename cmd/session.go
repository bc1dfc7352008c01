package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/statewallet/wallet-session/cmd/utils"
	"github.com/statewallet/wallet-session/internal/apptracker"
	"github.com/statewallet/wallet-session/internal/apptracker/dryrun"
	"github.com/statewallet/wallet-session/internal/apptracker/sentry"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/gateway/auth"
	"github.com/statewallet/wallet-session/internal/metrics"
	"github.com/statewallet/wallet-session/internal/queries"
	"github.com/statewallet/wallet-session/internal/querycache"
)

// sessionConfig is filled from the options shared by every command talking to the wallet host.
type sessionConfig struct {
	LogLevel          logrus.Level
	BridgeURL         string
	BridgeEventsURL   string
	BridgeTokenSecret string
	SentryDSN         string
	Environment       string
}

func (c *sessionConfig) options() config.ConfigOptions {
	return config.ConfigOptions{
		utils.LogLevelOption(&c.LogLevel),
		utils.BridgeURLOption(&c.BridgeURL),
		utils.BridgeEventsURLOption(&c.BridgeEventsURL),
		utils.BridgeTokenSecretOption(&c.BridgeTokenSecret),
		utils.SentryDSNOption(&c.SentryDSN),
		utils.EnvironmentOption(&c.Environment),
	}
}

// session holds the collaborators built from a sessionConfig.
type session struct {
	metricsService metrics.MetricsService
	appTracker     apptracker.AppTracker
	gateway        *gateway.Gateway
	cache          *querycache.Cache
	reader         *queries.Reader
}

type flusher interface {
	Flush() bool
}

func newSession(cfg sessionConfig) (*session, error) {
	metricsService := metrics.NewMetricsService()

	var appTracker apptracker.AppTracker = &dryrun.DryRunTracker{}
	if cfg.SentryDSN != "" {
		sentryTracker, err := sentry.NewSentryTracker(cfg.SentryDSN, cfg.Environment, 5)
		if err != nil {
			return nil, fmt.Errorf("initializing app tracker: %w", err)
		}
		appTracker = sentryTracker
	}

	var requestSigner auth.HTTPRequestSigner
	if cfg.BridgeTokenSecret != "" {
		jwtManager, err := auth.NewJWTManager(cfg.BridgeTokenSecret, auth.DefaultMaxTimeout)
		if err != nil {
			return nil, fmt.Errorf("creating bridge token manager: %w", err)
		}
		requestSigner = auth.NewHTTPRequestSigner(jwtManager)
	}
	bridge, err := gateway.NewHTTPBridge(cfg.BridgeURL, requestSigner, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	var events gateway.EventSource
	if cfg.BridgeEventsURL != "" {
		wsEvents, wsErr := gateway.NewWSEventSource(cfg.BridgeEventsURL, nil)
		if wsErr != nil {
			return nil, fmt.Errorf("creating event source: %w", wsErr)
		}
		events = wsEvents
	}

	gw, err := gateway.NewGateway(bridge, events, metricsService)
	if err != nil {
		return nil, fmt.Errorf("creating gateway: %w", err)
	}
	cache, err := querycache.NewCache(metricsService, querycache.WithFetchTimeout(30*time.Second), querycache.WithMaxConcurrency(4))
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	reader, err := queries.NewReader(cache, gw)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("creating reader: %w", err)
	}

	return &session{
		metricsService: metricsService,
		appTracker:     appTracker,
		gateway:        gw,
		cache:          cache,
		reader:         reader,
	}, nil
}

func (s *session) Close() {
	s.cache.Close()
	if f, ok := s.appTracker.(flusher); ok {
		f.Flush()
	}
}
