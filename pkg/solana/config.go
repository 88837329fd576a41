package solana

// Environment is a well known cluster RPC endpoint.
type Environment string

const (
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
)

// EnvironmentFromMoniker maps the Solana CLI's cluster monikers onto
// endpoints. Anything else is returned unchanged and treated as a URL.
func EnvironmentFromMoniker(moniker string) Environment {
	switch moniker {
	case "localhost", "l":
		return EnvironmentLocal
	case "devnet", "d":
		return EnvironmentDev
	case "testnet", "t":
		return EnvironmentTest
	case "mainnet-beta", "m":
		return EnvironmentProd
	default:
		return Environment(moniker)
	}
}
