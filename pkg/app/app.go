// Package app loads the configuration shared by greeter commands and sets up
// logging and metrics from it.
package app

import (
	"os"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/greeter/pkg/metrics"
	"github.com/code-payments/greeter/pkg/solana/cliconfig"
)

// Load reads configPath, when set, into v and decodes v over the defaults.
// Values bound to v through env vars or flags take precedence over the file.
func Load(v *viper.Viper, configPath string) (BaseConfig, error) {
	if len(configPath) > 0 {
		// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to
		// search for a default config file, so a missing explicit file is
		// reported here.
		if _, err := os.Stat(configPath); err != nil {
			return BaseConfig{}, errors.Wrapf(err, "failed to check config %s", configPath)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return BaseConfig{}, errors.Wrapf(err, "failed to load config %s", configPath)
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	if config.RPCTimeout <= 0 {
		return BaseConfig{}, errors.New("rpc_timeout must be positive")
	}
	if config.RPCRequestsPerSecond < 0 {
		return BaseConfig{}, errors.New("rpc_requests_per_second must not be negative")
	}

	if len(config.SolanaConfig) == 0 {
		if path, err := cliconfig.DefaultPath(); err == nil {
			config.SolanaConfig = path
		}
	}

	return config, nil
}

// NewMetricsProvider connects to New Relic when a license key is configured.
// It returns nil otherwise.
func NewMetricsProvider(config BaseConfig) (*newrelic.Application, error) {
	if len(config.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	nr, err := newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(config.AppName),
		newrelic.ConfigLicense(config.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to new relic")
	}
	return nr, nil
}

// Setup configures the standard logger and returns the metrics provider, if
// any. Logs go to stderr so command output stays on stdout.
func Setup(config BaseConfig) (*newrelic.Application, error) {
	metricsProvider, err := NewMetricsProvider(config)
	if err != nil {
		return nil, err
	}

	metrics.ConfigureLogger(os.Stderr, config.LogLevel, metricsProvider)

	logrus.StandardLogger().WithFields(logrus.Fields{
		"type":     "app",
		"app_name": config.AppName,
		"metrics":  metricsProvider != nil,
	}).Debug("application configured")

	return metricsProvider, nil
}
