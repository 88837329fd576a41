package greeter

import (
	"github.com/code-payments/greeter/pkg/config"
	"github.com/code-payments/greeter/pkg/config/env"
	"github.com/code-payments/greeter/pkg/config/memory"
	"github.com/code-payments/greeter/pkg/config/wrapper"
)

const (
	envConfigPrefix = "GREETER_SESSION_"

	// FeeSignatureBudgetConfigEnvName is the number of signature fees the
	// payer must be able to cover on top of the greeting account's rent.
	FeeSignatureBudgetConfigEnvName = envConfigPrefix + "FEE_SIGNATURE_BUDGET"
	defaultFeeSignatureBudget       = 100

	EnableAirdropConfigEnvName = envConfigPrefix + "ENABLE_AIRDROP"
	defaultEnableAirdrop       = true

	// MemoConfigEnvName attaches a memo instruction to every greeting when set.
	MemoConfigEnvName = envConfigPrefix + "MEMO"
	defaultMemo       = ""

	// ComputeUnitPriceConfigEnvName is the priority fee, in micro-lamports per
	// compute unit, attached to every greeting when non-zero.
	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0
)

type conf struct {
	feeSignatureBudget config.Uint64
	enableAirdrop      config.Bool
	memo               config.String
	computeUnitPrice   config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			feeSignatureBudget: env.NewUint64Config(FeeSignatureBudgetConfigEnvName, defaultFeeSignatureBudget),
			enableAirdrop:      env.NewBoolConfig(EnableAirdropConfigEnvName, defaultEnableAirdrop),
			memo:               env.NewStringConfig(MemoConfigEnvName, defaultMemo),
			computeUnitPrice:   env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),
		}
	}
}

type testOverrides struct {
	feeSignatureBudget uint64
	disableAirdrop     bool
	memo               string
	computeUnitPrice   uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		feeSignatureBudget := uint64(defaultFeeSignatureBudget)
		if overrides.feeSignatureBudget > 0 {
			feeSignatureBudget = overrides.feeSignatureBudget
		}

		return &conf{
			feeSignatureBudget: wrapper.NewUint64Config(memory.NewConfig(feeSignatureBudget), defaultFeeSignatureBudget),
			enableAirdrop:      wrapper.NewBoolConfig(memory.NewConfig(!overrides.disableAirdrop), defaultEnableAirdrop),
			memo:               wrapper.NewStringConfig(memory.NewConfig(overrides.memo), defaultMemo),
			computeUnitPrice:   wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),
		}
	}
}
