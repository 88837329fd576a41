package solana

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-payments/greeter/pkg/config"
	"github.com/code-payments/greeter/pkg/config/env"
	"github.com/code-payments/greeter/pkg/solana"
)

const (
	envConfigPrefix = "GREETER_LEDGER_"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	ConfirmationTimeoutConfigEnvName = envConfigPrefix + "CONFIRMATION_TIMEOUT"

	PollIntervalConfigEnvName = envConfigPrefix + "POLL_INTERVAL"
)

type conf struct {
	commitment          config.String
	confirmationTimeout config.Duration
	pollInterval        config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:          env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			confirmationTimeout: env.NewDurationConfig(ConfirmationTimeoutConfigEnvName, defaultConfirmationTimeout),
			pollInterval:        env.NewDurationConfig(PollIntervalConfigEnvName, defaultPollInterval),
		}
	}
}

// Options resolves the configured values into ledger options.
func (p ConfigProvider) Options(ctx context.Context) ([]Option, error) {
	c := p()

	commitment, err := solana.CommitmentFromString(c.commitment.Get(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", CommitmentConfigEnvName)
	}

	timeout := c.confirmationTimeout.Get(ctx)
	if timeout <= 0 {
		return nil, errors.Errorf("%s must be positive", ConfirmationTimeoutConfigEnvName)
	}

	interval := c.pollInterval.Get(ctx)
	if interval <= 0 {
		return nil, errors.Errorf("%s must be positive", PollIntervalConfigEnvName)
	}

	return []Option{
		WithCommitment(commitment),
		WithConfirmationTimeout(timeout),
		WithPollInterval(interval),
	}, nil
}
