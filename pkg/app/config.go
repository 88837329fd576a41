package app

import (
	"time"

	"github.com/spf13/viper"
)

// BaseConfig contains the configuration shared by every greeter command.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// RPCURL is the JSON-RPC endpoint. When empty, the endpoint is read from
	// the Solana CLI config and then defaults to a local validator.
	RPCURL string `mapstructure:"rpc_url"`

	RPCTimeout           time.Duration `mapstructure:"rpc_timeout"`
	RPCRequestsPerSecond float64       `mapstructure:"rpc_requests_per_second"`

	// PayerKeypair overrides the keypair configured in the Solana CLI config.
	PayerKeypair string `mapstructure:"payer_keypair"`

	ProgramKeypair string `mapstructure:"program_keypair"`
	ProgramSOPath  string `mapstructure:"program_so_path"`

	// SolanaConfig is the Solana CLI config.yml. Empty disables it.
	SolanaConfig string `mapstructure:"solana_config"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "greeter",

	RPCTimeout:           10 * time.Second,
	RPCRequestsPerSecond: 10,

	ProgramKeypair: "dist/program/helloworldSOL-keypair.json",
	ProgramSOPath:  "dist/program/helloworldSOL.so",
}

// DefaultConfig returns a copy of the defaults Load starts from.
func DefaultConfig() BaseConfig {
	return defaultConfig
}

// BindEnv binds every BaseConfig key to its environment variable on v.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	_ = v.BindEnv("app_name", "APP_NAME")

	_ = v.BindEnv("rpc_url", "RPC_URL")
	_ = v.BindEnv("rpc_timeout", "RPC_TIMEOUT")
	_ = v.BindEnv("rpc_requests_per_second", "RPC_REQUESTS_PER_SECOND")

	_ = v.BindEnv("payer_keypair", "PAYER_KEYPAIR")
	_ = v.BindEnv("program_keypair", "PROGRAM_KEYPAIR")
	_ = v.BindEnv("program_so_path", "PROGRAM_SO_PATH")

	_ = v.BindEnv("solana_config", "SOLANA_CONFIG")

	_ = v.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
