package utils

import (
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/flows"
)

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level in %s: %w", co.Name, err)
	}

	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("%s configKey has an invalid type %T", co.Name, co.ConfigKey)
	}
	*key = logLevel

	log.DefaultLogger.SetLevel(logLevel)
	return nil
}

func SetConfigOptionURL(co *config.ConfigOption) error {
	rawURL := viper.GetString(co.Name)
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", co.Name)
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("parsing URL in %s: %w", co.Name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got scheme %q", co.Name, u.Scheme)
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a string, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	*key = u.String()

	return nil
}

// SetConfigOptionFeeSchedule loads the fee schedule from the configured TOML file, falling back
// to the built-in schedule when no file is configured.
func SetConfigOptionFeeSchedule(co *config.ConfigOption) error {
	key, ok := co.ConfigKey.(*flows.FeeSchedule)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a flows.FeeSchedule, but a %T was provided instead", co.Name, co.ConfigKey)
	}

	path := viper.GetString(co.Name)
	if path == "" {
		*key = flows.DefaultFeeSchedule()
		return nil
	}

	fees, err := flows.LoadFeeSchedule(path)
	if err != nil {
		return fmt.Errorf("loading fee schedule in %s: %w", co.Name, err)
	}
	*key = fees

	return nil
}
