// Package greeter drives a greeting session against the hello world program:
// connect to the cluster, fund the payer, check the program, find or create
// the payer's greeting account, say hello and report the greeting counter.
package greeter

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/ledger"
	"github.com/code-payments/greeter/pkg/metrics"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/computebudget"
	"github.com/code-payments/greeter/pkg/solana/helloworld"
	"github.com/code-payments/greeter/pkg/solana/memo"
	"github.com/code-payments/greeter/pkg/solana/system"
)

const (
	runTransactionName = "greeter__run"
	runEventName       = "GreeterRun"
	runCountMetricName = "greeter.runs"

	lamportsPerSol = 1_000_000_000
)

// ProgramFiles locates the build artifacts of the greeting program.
type ProgramFiles struct {
	// KeypairPath is the program's keypair, which determines its address.
	KeypairPath string

	// SharedObjectPath is the compiled program. It is only used to tell
	// apart a program that still needs building from one that only needs
	// deploying.
	SharedObjectPath string
}

// Session is the state accumulated by the orchestration steps. Each step
// returns an updated copy.
type Session struct {
	Endpoint string
	Version  solana.Version

	Payer        ed25519.PrivateKey
	PayerBalance uint64

	Program  ed25519.PublicKey
	Greeting ed25519.PublicKey
}

// PayerKey returns the public key of the payer, or nil before EstablishPayer.
func (s Session) PayerKey() ed25519.PublicKey {
	if s.Payer == nil {
		return nil
	}
	return s.Payer.Public().(ed25519.PublicKey)
}

// Report is the outcome of a complete greeting run.
type Report struct {
	RunID     string
	Greeting  ed25519.PublicKey
	Counter   uint32
	Signature solana.Signature
}

func (r Report) String() string {
	return fmt.Sprintf("%s has been greeted %d time(s)", base58.Encode(r.Greeting), r.Counter)
}

// Greeter runs greeting sessions. It holds no session state.
type Greeter struct {
	log     *logrus.Entry
	conf    *conf
	ledger  ledger.Ledger
	keys    KeyMaterial
	program ProgramFiles
}

func New(l ledger.Ledger, keys KeyMaterial, program ProgramFiles, configProvider ConfigProvider) *Greeter {
	return &Greeter{
		log:     logrus.StandardLogger().WithField("type", "greeter/session"),
		conf:    configProvider(),
		ledger:  l,
		keys:    keys,
		program: program,
	}
}

// Connect queries the node version of the ledger endpoint.
func (g *Greeter) Connect(ctx context.Context) (Session, error) {
	version, err := g.ledger.GetVersion(ctx)
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to connect to cluster")
	}

	g.log.WithFields(logrus.Fields{
		"endpoint": g.ledger.Endpoint(),
		"version":  version.SolanaCore,
	}).Info("connection to cluster established")

	return Session{
		Endpoint: g.ledger.Endpoint(),
		Version:  version,
	}, nil
}

// EstablishPayer loads the payer and makes sure it can afford the greeting
// account's rent plus a budget of signature fees, requesting an airdrop for
// the difference when airdrops are enabled.
func (g *Greeter) EstablishPayer(ctx context.Context, s Session) (Session, error) {
	payer, err := g.keys.LoadPayerKey()
	if err != nil {
		return s, err
	}
	payerKey := payer.Public().(ed25519.PublicKey)

	log := g.log.WithFields(logrus.Fields{
		"method": "EstablishPayer",
		"payer":  base58.Encode(payerKey),
	})

	threshold, err := g.feeThreshold(ctx, payerKey)
	if err != nil {
		return s, err
	}

	balance, err := g.ledger.GetBalance(ctx, payerKey)
	if err != nil {
		return s, errors.Wrap(err, "failed to get payer balance")
	}

	if balance < threshold && g.conf.enableAirdrop.Get(ctx) {
		log.WithFields(logrus.Fields{
			"balance":   balance,
			"threshold": threshold,
		}).Info("requesting airdrop to cover fees")

		if _, err := g.ledger.RequestAirdrop(ctx, payerKey, threshold-balance); err != nil {
			return s, errors.Wrap(err, "failed to airdrop to payer")
		}

		balance, err = g.ledger.GetBalance(ctx, payerKey)
		if err != nil {
			return s, errors.Wrap(err, "failed to get payer balance")
		}
	}

	if balance < threshold {
		return s, errors.Wrapf(ErrInsufficientFunds, "balance of %d lamports is below the required %d", balance, threshold)
	}

	log.WithField("sol", float64(balance)/lamportsPerSol).Info("using payer account to pay for fees")

	s.Payer = payer
	s.PayerBalance = balance
	return s, nil
}

// feeThreshold is the rent of a greeting account plus the configured number
// of signature fees.
func (g *Greeter) feeThreshold(ctx context.Context, payer ed25519.PublicKey) (uint64, error) {
	rent, err := g.ledger.GetMinimumBalanceForRentExemption(ctx, helloworld.GreetingAccountSize)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rent exemption amount")
	}

	signatureFee, err := g.ledger.GetSignatureFee(ctx, payer)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get signature fee")
	}

	return rent + signatureFee*g.conf.feeSignatureBudget.Get(ctx), nil
}

// CheckProgram verifies the program is deployed and executable, then finds or
// creates the payer's greeting account.
//
// Creation is not atomic: two sessions for the same payer can both find the
// account missing, in which case the second creation fails in the system
// program and that error is returned.
func (g *Greeter) CheckProgram(ctx context.Context, s Session) (Session, error) {
	programKey, err := g.keys.LoadProgramKeyFromFile(g.program.KeypairPath)
	if err != nil {
		return s, err
	}
	program := programKey.Public().(ed25519.PublicKey)

	log := g.log.WithFields(logrus.Fields{
		"method":  "CheckProgram",
		"program": base58.Encode(program),
	})

	info, err := g.ledger.GetAccountInfo(ctx, program)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return s, g.programNotDeployed(program)
	} else if err != nil {
		return s, errors.Wrap(err, "failed to get program account")
	}
	if !info.Executable {
		return s, errors.Wrapf(ErrProgramNotExecutable, "%s", base58.Encode(program))
	}

	log.Info("using program")

	greeting, err := helloworld.GetGreetingAddress(&helloworld.GetGreetingAddressArgs{
		Payer:   s.PayerKey(),
		Program: program,
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to derive greeting address")
	}

	if err := g.ensureGreetingAccount(ctx, s.Payer, program, greeting); err != nil {
		return s, err
	}

	s.Program = program
	s.Greeting = greeting
	return s, nil
}

func (g *Greeter) programNotDeployed(program ed25519.PublicKey) error {
	if _, err := os.Stat(g.program.SharedObjectPath); err == nil {
		return errors.Wrapf(
			ErrProgramNotDeployed,
			"%s needs to be deployed with `solana program deploy %s`",
			base58.Encode(program),
			g.program.SharedObjectPath,
		)
	}

	return errors.Wrapf(
		ErrProgramNotDeployed,
		"%s needs to be built and deployed (no build found at %s)",
		base58.Encode(program),
		g.program.SharedObjectPath,
	)
}

func (g *Greeter) ensureGreetingAccount(ctx context.Context, payer ed25519.PrivateKey, program, greeting ed25519.PublicKey) error {
	log := g.log.WithFields(logrus.Fields{
		"method":   "ensureGreetingAccount",
		"greeting": base58.Encode(greeting),
	})

	_, err := g.ledger.GetAccountInfo(ctx, greeting)
	if err == nil {
		log.Debug("greeting account already exists")
		return nil
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return errors.Wrap(err, "failed to get greeting account")
	}

	rent, err := g.ledger.GetMinimumBalanceForRentExemption(ctx, helloworld.GreetingAccountSize)
	if err != nil {
		return errors.Wrap(err, "failed to get rent exemption amount")
	}

	payerKey := payer.Public().(ed25519.PublicKey)
	create := system.CreateAccountWithSeed(
		payerKey,
		greeting,
		payerKey,
		helloworld.GreetingSeed,
		rent,
		helloworld.GreetingAccountSize,
		program,
	)

	log.Info("creating greeting account")

	sig, err := g.ledger.SubmitAndConfirm(ctx, []solana.Instruction{create}, payer)
	if err != nil {
		return errors.Wrap(err, "failed to create greeting account")
	}

	log.WithField("signature", sig.String()).Debug("greeting account created")
	return nil
}

// Locate loads the payer and program keys and derives the greeting address
// without querying or modifying the ledger.
func (g *Greeter) Locate(s Session) (Session, error) {
	payer, err := g.keys.LoadPayerKey()
	if err != nil {
		return s, err
	}

	programKey, err := g.keys.LoadProgramKeyFromFile(g.program.KeypairPath)
	if err != nil {
		return s, err
	}
	program := programKey.Public().(ed25519.PublicKey)

	greeting, err := helloworld.GetGreetingAddress(&helloworld.GetGreetingAddressArgs{
		Payer:   payer.Public().(ed25519.PublicKey),
		Program: program,
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to derive greeting address")
	}

	s.Payer = payer
	s.Program = program
	s.Greeting = greeting
	return s, nil
}

// SayHello submits greeting to the session's greeting account and waits for
// it to be confirmed.
func (g *Greeter) SayHello(ctx context.Context, s Session, greeting Greeting) (solana.Signature, error) {
	log := g.log.WithFields(logrus.Fields{
		"method":   "SayHello",
		"greeting": base58.Encode(s.Greeting),
		"op":       greeting.String(),
	})

	ix, err := greeting.instruction(s.Program, s.Greeting)
	if err != nil {
		return solana.Signature{}, err
	}

	var instructions []solana.Instruction
	if price := g.conf.computeUnitPrice.Get(ctx); price > 0 {
		instructions = append(instructions, computebudget.SetComputeUnitPrice(price))
	}
	instructions = append(instructions, ix)
	if text := g.conf.memo.Get(ctx); len(text) > 0 {
		memoIx, err := memo.Instruction(text)
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, memoIx)
	}

	log.Info("saying hello")

	sig, err := g.ledger.SubmitAndConfirm(ctx, instructions, s.Payer)
	if err != nil {
		return sig, errors.Wrap(err, "failed to say hello")
	}

	log.WithField("signature", sig.String()).Debug("greeting confirmed")
	return sig, nil
}

// ReportGreetings fetches and decodes the session's greeting account.
func (g *Greeter) ReportGreetings(ctx context.Context, s Session) (*helloworld.GreetingAccount, error) {
	info, err := g.ledger.GetAccountInfo(ctx, s.Greeting)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get greeting account %s", base58.Encode(s.Greeting))
	}

	record, err := helloworld.GreetingAccountFromAccountInfo(s.Program, *info)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode greeting account %s", base58.Encode(s.Greeting))
	}

	g.log.WithFields(logrus.Fields{
		"greeting": base58.Encode(s.Greeting),
		"counter":  record.Counter,
	}).Info("greetings reported")

	return record, nil
}

// Run performs a complete session. The first failing step aborts the run.
func (g *Greeter) Run(ctx context.Context, greeting Greeting) (*Report, error) {
	runID := uuid.New().String()

	ctx, end := metrics.StartTransaction(ctx, runTransactionName)
	defer end()

	log := g.log.WithFields(logrus.Fields{
		"method": "Run",
		"run_id": runID,
	})
	log.WithField("op", greeting.String()).Info("starting greeting run")

	s, err := g.Connect(ctx)
	if err != nil {
		return nil, err
	}

	s, err = g.EstablishPayer(ctx, s)
	if err != nil {
		return nil, err
	}

	s, err = g.CheckProgram(ctx, s)
	if err != nil {
		return nil, err
	}

	sig, err := g.SayHello(ctx, s, greeting)
	if err != nil {
		return nil, err
	}

	record, err := g.ReportGreetings(ctx, s)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     runID,
		Greeting:  s.Greeting,
		Counter:   record.Counter,
		Signature: sig,
	}

	metrics.RecordEvent(ctx, runEventName, map[string]interface{}{
		"run_id":   runID,
		"endpoint": s.Endpoint,
		"op":       greeting.String(),
		"counter":  record.Counter,
	})
	metrics.RecordCount(ctx, runCountMetricName, 1)

	log.WithField("signature", sig.String()).Info(report.String())
	return report, nil
}
