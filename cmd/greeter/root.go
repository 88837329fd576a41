package main

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/greeter/pkg/app"
	"github.com/code-payments/greeter/pkg/greeter"
	"github.com/code-payments/greeter/pkg/ledger"
	ledger_solana "github.com/code-payments/greeter/pkg/ledger/solana"
	"github.com/code-payments/greeter/pkg/metrics"
	"github.com/code-payments/greeter/pkg/rate"
	"github.com/code-payments/greeter/pkg/solana"
)

const defaultShutdownTimeout = 5 * time.Second

type cli struct {
	v          *viper.Viper
	configPath string

	config          app.BaseConfig
	metricsProvider *newrelic.Application
	log             *logrus.Entry

	// newLedger is replaced in tests.
	newLedger func(ctx context.Context, endpoint string) (ledger.Ledger, error)
}

func newCLI() *cli {
	c := &cli{
		v:   viper.New(),
		log: logrus.StandardLogger().WithField("type", "cmd/greeter"),
	}
	c.newLedger = c.newRPCLedger
	app.BindEnv(c.v)
	return c
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "greeter",
		Short:         "Say hello to the Solana greeting program",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.metricsProvider != nil {
				c.metricsProvider.Shutdown(defaultShutdownTimeout)
			}
		},
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	defaults := app.DefaultConfig()

	// Unset flags still resolve to their own defaults, which take precedence
	// over app.DefaultConfig, so they must match it.
	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "configuration file path")
	flags.String("url", "", "JSON-RPC endpoint (default: solana cli config, then http://127.0.0.1:8899)")
	flags.String("log-level", defaults.LogLevel, "log level")
	flags.String("keypair", "", "payer keypair file (default: solana cli config, then ~/.config/solana/id.json)")
	flags.String("program-keypair", defaults.ProgramKeypair, "greeting program keypair file")
	flags.String("program-so", defaults.ProgramSOPath, "greeting program shared object, used to suggest a deploy command")
	flags.String("solana-config", "", "solana cli config file (default ~/.config/solana/cli/config.yml)")
	flags.Duration("rpc-timeout", defaults.RPCTimeout, "timeout for each JSON-RPC request")

	for key, flag := range map[string]string{
		"rpc_url":         "url",
		"log_level":       "log-level",
		"payer_keypair":   "keypair",
		"program_keypair": "program-keypair",
		"program_so_path": "program-so",
		"solana_config":   "solana-config",
		"rpc_timeout":     "rpc-timeout",
	} {
		if err := c.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(
		newHelloCmd(c),
		newReportCmd(c),
		newAddressCmd(c),
		newNFTCmd(c),
	)

	return cmd
}

func (c *cli) init(cmd *cobra.Command) error {
	config, err := app.Load(c.v, c.configPath)
	if err != nil {
		return err
	}

	metricsProvider, err := app.Setup(config)
	if err != nil {
		return err
	}

	c.config = config
	c.metricsProvider = metricsProvider
	c.log.WithField("command", cmd.CommandPath()).Debug("running command")
	cmd.SetContext(metrics.NewContext(cmd.Context(), metricsProvider))
	return nil
}

func (c *cli) endpoint() string {
	return greeter.ResolveEndpoint(c.config.RPCURL, c.config.SolanaConfig)
}

func (c *cli) newRPCLedger(ctx context.Context, endpoint string) (ledger.Ledger, error) {
	var limiter rate.Limiter = &rate.NoLimiter{}
	if c.config.RPCRequestsPerSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(c.config.RPCRequestsPerSecond))
	}

	client := solana.New(
		endpoint,
		solana.WithTimeout(c.config.RPCTimeout),
		solana.WithLimiter(limiter),
	)

	opts, err := ledger_solana.WithEnvConfigs().Options(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ledger config")
	}
	return ledger_solana.New(endpoint, client, opts...), nil
}

func (c *cli) newGreeter(ctx context.Context) (*greeter.Greeter, error) {
	l, err := c.newLedger(ctx, c.endpoint())
	if err != nil {
		return nil, err
	}

	return greeter.New(
		l,
		greeter.NewFileKeyMaterial(c.config.PayerKeypair, c.config.SolanaConfig),
		greeter.ProgramFiles{
			KeypairPath:      c.config.ProgramKeypair,
			SharedObjectPath: c.config.ProgramSOPath,
		},
		greeter.WithEnvConfigs(),
	), nil
}
