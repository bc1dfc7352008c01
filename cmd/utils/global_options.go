package utils

import (
	"go/types"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/statewallet/wallet-session/internal/flows"
)

func LogLevelOption(configKey *logrus.Level) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "log-level",
		Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
		OptType:        types.String,
		FlagDefault:    "INFO",
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionLogLevel,
		Required:       false,
	}
}

func BridgeURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "bridge-url",
		Usage:          "Base URL of the wallet host command bridge. Commands are posted to <bridge-url>/invoke/<command>.",
		OptType:        types.String,
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionURL,
		FlagDefault:    "http://localhost:1430",
		Required:       true,
	}
}

func BridgeEventsURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "bridge-events-url",
		Usage:     "WebSocket URL of the wallet host event stream. If empty, host events are not subscribed and watchers rely on polling only.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func BridgeTokenSecretOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "bridge-token-secret",
		Usage:     "HS256 secret used to sign bridge requests. If empty, requests are sent unsigned.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func SentryDSNOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "tracker-dsn",
		Usage:     "The Sentry DSN. If empty, errors are only logged.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func EnvironmentOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "environment",
		Usage:       "The environment reported to the error tracker.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "development",
		Required:    false,
	}
}

func FeeScheduleOption(configKey *flows.FeeSchedule) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "fee-schedule-file",
		Usage:          "Path to a TOML file overriding dust_floor, statecoin_min, statecoin_fee and base_tx_fee (in sats). If empty, the built-in schedule is used.",
		OptType:        types.String,
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionFeeSchedule,
		Required:       false,
	}
}

func PollIntervalOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "poll-interval",
		Usage:       "Seconds between two polls of the CoinJoin rooms.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 5,
		Required:    true,
	}
}

func PollsPerSecondOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "polls-per-second",
		Usage:       "Maximum number of room polls per second, including polls triggered by host events.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 2,
		Required:    true,
	}
}

func SignRetryAttemptsOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "sign-retry-attempts",
		Usage:       "Number of times a failed CoinJoin sign call is repeated. Conflicts are never retried.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 0,
		Required:    false,
	}
}

func MetricsPortOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "metrics-port",
		Usage:       "Port serving the Prometheus metrics. Set to 0 to disable the metrics server.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 8002,
		Required:    false,
	}
}
