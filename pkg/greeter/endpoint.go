package greeter

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/cliconfig"
)

// DefaultEndpoint is the JSON-RPC endpoint of a local solana-test-validator.
const DefaultEndpoint = string(solana.EnvironmentLocal)

// ResolveEndpoint picks the JSON-RPC endpoint to connect to: explicit when
// set, then json_rpc_url from the Solana CLI config at cliConfigPath, then
// DefaultEndpoint. An unreadable CLI config is logged and skipped.
//
// explicit may also be a cluster moniker such as "devnet" or "d".
func ResolveEndpoint(explicit, cliConfigPath string) string {
	if len(explicit) > 0 {
		return string(solana.EnvironmentFromMoniker(explicit))
	}

	if len(cliConfigPath) > 0 {
		config, err := cliconfig.Load(cliConfigPath)
		switch {
		case err == nil && len(config.JSONRPCURL) > 0:
			return config.JSONRPCURL
		case err != nil && !errors.Is(err, os.ErrNotExist):
			logrus.StandardLogger().WithField("type", "greeter/endpoint").WithError(err).Warn("failed to read rpc url from solana cli config, falling back to localhost")
		}
	}

	return DefaultEndpoint
}
